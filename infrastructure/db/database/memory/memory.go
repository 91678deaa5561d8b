// Package memory provides an in-memory block and head store.
package memory

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/kaspanet/merkleclock/domain/clock/frontier"
	"github.com/kaspanet/merkleclock/infrastructure/db/database"
	"github.com/pkg/errors"
)

// Store keeps blocks and a single head in memory. It is safe for concurrent
// use.
type Store struct {
	mtx    sync.RWMutex
	blocks map[cid.Cid][]byte
	head   frontier.Frontier
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		blocks: make(map[cid.Cid][]byte),
	}
}

// Get returns a copy of the bytes stored under id.
func (s *Store) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	bytes, ok := s.blocks[id]
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "block %s", id)
	}
	clone := make([]byte, len(bytes))
	copy(clone, bytes)
	return clone, nil
}

// Put stores a copy of bytes under id.
func (s *Store) Put(ctx context.Context, id cid.Cid, bytes []byte) error {
	if !id.Defined() {
		return errors.New("cannot put a block under an undefined identifier")
	}
	clone := make([]byte, len(bytes))
	copy(clone, bytes)

	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.blocks[id] = clone
	return nil
}

// Has returns whether id is stored.
func (s *Store) Has(ctx context.Context, id cid.Cid) (bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	_, ok := s.blocks[id]
	return ok, nil
}

// Delete removes id from the store. Deleting a missing block is not an
// error.
func (s *Store) Delete(ctx context.Context, id cid.Cid) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	delete(s.blocks, id)
	return nil
}

// Len returns the number of stored blocks.
func (s *Store) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.blocks)
}

// Head returns the stored frontier.
func (s *Store) Head(ctx context.Context) (frontier.Frontier, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.head.Clone(), nil
}

// SetHead replaces the stored frontier.
func (s *Store) SetHead(ctx context.Context, head frontier.Frontier) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.head = head.Clone()
	return nil
}
