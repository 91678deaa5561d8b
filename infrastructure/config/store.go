package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// Supported store types.
const (
	DBTypeLevelDB  = "leveldb"
	DBTypePostgres = "postgres"
	DBTypeMemory   = "memory"
)

const (
	defaultDBType       = DBTypeLevelDB
	defaultCacheSizeMiB = 64
	pgURLEnvVar         = "MERKLECLOCK_PGURL"
)

var knownDBTypes = []string{DBTypeLevelDB, DBTypePostgres, DBTypeMemory}

// StoreFlags holds the store configuration, that is where blocks and heads
// are kept.
type StoreFlags struct {
	DataDir      string `short:"b" long:"datadir" description:"Directory to store data"`
	DBType       string `long:"dbtype" description:"Store backend {leveldb, postgres, memory}"`
	PgURL        string `long:"pgurl" description:"PostgreSQL connection URL, required for --dbtype=postgres (or set MERKLECLOCK_PGURL)"`
	CacheSizeMiB int    `long:"dbcache" description:"LevelDB block cache size in MiB"`
	HeadName     string `long:"head" description:"Name of the clock head to operate on"`
}

func defaultStoreFlags() StoreFlags {
	return StoreFlags{
		DataDir:      defaultDataDir,
		DBType:       defaultDBType,
		CacheSizeMiB: defaultCacheSizeMiB,
	}
}

// ResolveStore validates the store command line arguments and fills in the
// values derived from them.
func (storeFlags *StoreFlags) ResolveStore(parser *flags.Parser) error {
	storeFlags.DBType = strings.ToLower(storeFlags.DBType)
	if !validDBType(storeFlags.DBType) {
		err := errors.Errorf("the specified database type [%s] is invalid -- "+
			"supported types %s", storeFlags.DBType, strings.Join(knownDBTypes, ", "))
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return err
	}

	if storeFlags.PgURL == "" {
		storeFlags.PgURL = os.Getenv(pgURLEnvVar)
	}
	if storeFlags.DBType == DBTypePostgres && storeFlags.PgURL == "" {
		return errors.Errorf("--pgurl or %s is required when using the %s store", pgURLEnvVar, DBTypePostgres)
	}

	if storeFlags.CacheSizeMiB <= 0 {
		return errors.Errorf("--dbcache must be positive, got %d", storeFlags.CacheSizeMiB)
	}

	storeFlags.DataDir = cleanAndExpandPath(storeFlags.DataDir)
	return nil
}

// LevelDBPath returns the directory of the leveldb store.
func (storeFlags *StoreFlags) LevelDBPath() string {
	return filepath.Join(storeFlags.DataDir, "clock")
}

func validDBType(dbType string) bool {
	for _, knownType := range knownDBTypes {
		if dbType == knownType {
			return true
		}
	}

	return false
}
