// Package pgstore implements a block and head store on PostgreSQL.
package pgstore

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kaspanet/merkleclock/domain/clock/frontier"
	"github.com/kaspanet/merkleclock/infrastructure/db/database"
	"github.com/pkg/errors"
)

// PgStore is a PostgreSQL-backed block store.
type PgStore struct {
	pool *pgxpool.Pool
}

// New creates a PgStore.
func New(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Connect opens a connection pool to url and returns a PgStore with its
// tables in place. Close releases the pool.
func Connect(ctx context.Context, url string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	s := New(pool)
	err = s.EnsureTables(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying pool.
func (s *PgStore) Close() {
	s.pool.Close()
}

// EnsureTables creates the blocks and clock_heads tables if they don't exist.
func (s *PgStore) EnsureTables(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS blocks (
			cid   TEXT PRIMARY KEY,
			bytes BYTEA NOT NULL
		)`)
	if err != nil {
		return errors.Wrap(err, "create blocks table")
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS clock_heads (
			name TEXT PRIMARY KEY,
			head TEXT[] NOT NULL DEFAULT '{}'
		)`)
	if err != nil {
		return errors.Wrap(err, "create clock_heads table")
	}
	return nil
}

// Get retrieves the bytes of a single block.
func (s *PgStore) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	var bytes []byte
	err := s.pool.QueryRow(ctx, `SELECT bytes FROM blocks WHERE cid = $1`, id.String()).Scan(&bytes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(database.ErrNotFound, "block %s", id)
		}
		return nil, errors.Wrapf(err, "get block %s", id)
	}
	return bytes, nil
}

// Put inserts a block. Blocks are immutable, so an existing row is kept.
func (s *PgStore) Put(ctx context.Context, id cid.Cid, bytes []byte) error {
	if !id.Defined() {
		return errors.New("cannot put a block under an undefined identifier")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO blocks (cid, bytes) VALUES ($1, $2)
		ON CONFLICT (cid) DO NOTHING`, id.String(), bytes)
	if err != nil {
		return errors.Wrapf(err, "put block %s", id)
	}
	return nil
}

// Has returns whether the block is stored.
func (s *PgStore) Has(ctx context.Context, id cid.Cid) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM blocks WHERE cid = $1)`, id.String()).Scan(&exists)
	if err != nil {
		return false, errors.Wrapf(err, "has block %s", id)
	}
	return exists, nil
}

// Count returns the number of stored blocks.
func (s *PgStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM blocks`).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count blocks")
	}
	return n, nil
}

// DefaultHeadName is the head row used by HeadStore when no name is given.
const DefaultHeadName = "default"

// HeadStore returns a model.HeadStore for the head row called name.
func (s *PgStore) HeadStore(name string) *HeadStore {
	if name == "" {
		name = DefaultHeadName
	}
	return &HeadStore{pool: s.pool, name: name}
}

// HeadStore persists one named frontier in the clock_heads table.
type HeadStore struct {
	pool *pgxpool.Pool
	name string
}

// Head returns the stored frontier, or an empty one if none was stored.
func (hs *HeadStore) Head(ctx context.Context) (frontier.Frontier, error) {
	var elements []string
	err := hs.pool.QueryRow(ctx, `SELECT head FROM clock_heads WHERE name = $1`, hs.name).Scan(&elements)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return frontier.Frontier{}, nil
		}
		return nil, errors.Wrapf(err, "get head %s", hs.name)
	}
	return frontier.FromStrings(elements)
}

// SetHead replaces the stored frontier.
func (hs *HeadStore) SetHead(ctx context.Context, head frontier.Frontier) error {
	_, err := hs.pool.Exec(ctx, `
		INSERT INTO clock_heads (name, head) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET head = EXCLUDED.head`, hs.name, head.Strings())
	if err != nil {
		return errors.Wrapf(err, "set head %s", hs.name)
	}
	return nil
}
