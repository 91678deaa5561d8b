package main

import (
	"context"

	"github.com/kaspanet/merkleclock/domain/clock/model"
	"github.com/kaspanet/merkleclock/infrastructure/config"
	"github.com/kaspanet/merkleclock/infrastructure/db/database/instrumented"
	"github.com/kaspanet/merkleclock/infrastructure/db/database/ldb"
	"github.com/kaspanet/merkleclock/infrastructure/db/database/memory"
	"github.com/kaspanet/merkleclock/infrastructure/db/database/pgstore"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type stores struct {
	blocks *instrumented.Store
	heads  model.HeadStore
	close  func()
}

func openStores(ctx context.Context, cfg *config.Config, registerer prometheus.Registerer) (*stores, error) {
	var blocks model.BlockStore
	var heads model.HeadStore
	closeFunc := func() {}

	switch cfg.DBType {
	case config.DBTypeLevelDB:
		db, err := ldb.NewLevelDB(cfg.LevelDBPath(), cfg.CacheSizeMiB)
		if err != nil {
			return nil, err
		}
		log.Debugf("Opened leveldb store at %s", cfg.LevelDBPath())
		blocks, heads = db, db.HeadStore(cfg.HeadName)
		closeFunc = func() {
			err := db.Close()
			if err != nil {
				log.Errorf("Failed to close leveldb store: %s", err)
			}
		}
	case config.DBTypePostgres:
		db, err := pgstore.Connect(ctx, cfg.PgURL)
		if err != nil {
			return nil, err
		}
		log.Debugf("Connected to the postgres store")
		blocks, heads = db, db.HeadStore(cfg.HeadName)
		closeFunc = db.Close
	case config.DBTypeMemory:
		db := memory.New()
		log.Warnf("Using the memory store: nothing will be persisted")
		blocks, heads = db, db
	default:
		return nil, errors.Errorf("unsupported db type %s", cfg.DBType)
	}

	return &stores{
		blocks: instrumented.New(blocks, instrumented.NewMetrics(registerer)),
		heads:  heads,
		close:  closeFunc,
	}, nil
}
