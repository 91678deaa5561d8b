package model

import (
	"context"

	"github.com/ipfs/go-cid"
)

// BlockFetcher reads raw blocks by their content identifier.
//
// Get returns an error satisfying database.IsNotFoundError when the block
// is not present. A fetcher must return promptly for blocks it cannot serve.
type BlockFetcher interface {
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
}

// BlockStore is a content-addressed key/value store.
type BlockStore interface {
	BlockFetcher

	// Put stores bytes under id. Putting the same block twice is not an
	// error.
	Put(ctx context.Context, id cid.Cid, bytes []byte) error

	// Has returns true if the store contains id.
	Has(ctx context.Context, id cid.Cid) (bool, error)
}
