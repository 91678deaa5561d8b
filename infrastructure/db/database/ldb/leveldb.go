// Package ldb implements a block and head store on top of leveldb.
package ldb

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/kaspanet/merkleclock/domain/clock/frontier"
	"github.com/kaspanet/merkleclock/infrastructure/db/database"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
)

var (
	blocksPrefix = []byte("blocks/")
	headsPrefix  = []byte("heads/")
)

// DefaultHeadName is the head key used by HeadStore when no name is given.
const DefaultHeadName = "default"

// LevelDB defines a thin wrapper around leveldb storing clock blocks and
// heads under separate key prefixes.
type LevelDB struct {
	ldb *leveldb.DB
}

// NewLevelDB opens a leveldb instance defined by the given path.
func NewLevelDB(path string, cacheSizeMiB int) (*LevelDB, error) {
	// Open leveldb. If it doesn't exist, create it.
	ldb, err := leveldb.OpenFile(path, Options(cacheSizeMiB))

	// If the database is corrupted, attempt to recover.
	if _, corrupted := err.(*ldbErrors.ErrCorrupted); corrupted {
		log.Warnf("LevelDB corruption detected for path %s: %s",
			path, err)
		ldb, err = leveldb.RecoverFile(path, Options(cacheSizeMiB))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		log.Warnf("LevelDB recovered from corruption for path %s",
			path)
	}

	// If the database cannot be opened for any other
	// reason, return the error as-is.
	if err != nil {
		return nil, errors.WithStack(err)
	}

	db := &LevelDB{
		ldb: ldb,
	}
	return db, nil
}

// Close closes the leveldb instance.
func (db *LevelDB) Close() error {
	return errors.WithStack(db.ldb.Close())
}

// Put stores bytes under id. It overwrites any previous value, which for a
// content-addressed key is the same value.
func (db *LevelDB) Put(ctx context.Context, id cid.Cid, bytes []byte) error {
	if !id.Defined() {
		return errors.New("cannot put a block under an undefined identifier")
	}
	err := db.ldb.Put(blockKey(id), bytes, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Get gets the bytes stored under id. It returns ErrNotFound if
// id does not exist.
func (db *LevelDB) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := db.ldb.Get(blockKey(id), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.Wrapf(database.ErrNotFound,
				"block %s not found", id)
		}
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// Has returns true if the database does contains id.
func (db *LevelDB) Has(ctx context.Context, id cid.Cid) (bool, error) {
	has, err := db.ldb.Has(blockKey(id), nil)
	if err != nil {
		return false, errors.WithStack(err)
	}
	return has, nil
}

// Delete deletes the block stored under id. Will not
// return an error if the block doesn't exist.
func (db *LevelDB) Delete(ctx context.Context, id cid.Cid) error {
	return errors.WithStack(db.ldb.Delete(blockKey(id), nil))
}

// HeadStore returns a model.HeadStore persisting the head called name in db.
func (db *LevelDB) HeadStore(name string) *HeadStore {
	if name == "" {
		name = DefaultHeadName
	}
	return &HeadStore{db: db, key: append(append([]byte{}, headsPrefix...), name...)}
}

// HeadStore persists one named frontier in a LevelDB.
type HeadStore struct {
	db  *LevelDB
	key []byte
}

// Head returns the stored frontier, or an empty one if none was stored.
func (hs *HeadStore) Head(ctx context.Context) (frontier.Frontier, error) {
	serialized, err := hs.db.ldb.Get(hs.key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return frontier.Frontier{}, nil
		}
		return nil, errors.WithStack(err)
	}
	return frontier.Deserialize(serialized)
}

// SetHead replaces the stored frontier.
func (hs *HeadStore) SetHead(ctx context.Context, head frontier.Frontier) error {
	serialized, err := frontier.Serialize(head)
	if err != nil {
		return err
	}
	return errors.WithStack(hs.db.ldb.Put(hs.key, serialized, nil))
}

func blockKey(id cid.Cid) []byte {
	return append(append([]byte{}, blocksPrefix...), id.Bytes()...)
}
