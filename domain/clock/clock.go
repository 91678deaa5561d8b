// Package clock provides a stateful merkle clock over a block store and a
// persisted head.
package clock

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/kaspanet/merkleclock/domain/clock/event"
	"github.com/kaspanet/merkleclock/domain/clock/frontier"
	"github.com/kaspanet/merkleclock/domain/clock/model"
	"github.com/kaspanet/merkleclock/domain/clock/processes/frontiermanager"
	"github.com/kaspanet/merkleclock/infrastructure/logger"
	"github.com/pkg/errors"
)

// Clock is a single causal stream. Head updates are serialized, so a Clock
// is safe for concurrent use. Clocks sharing a block store but not a head
// store are independent.
type Clock struct {
	mtx     sync.Mutex
	store   model.BlockStore
	heads   model.HeadStore
	manager *frontiermanager.FrontierManager
}

// New returns a Clock that keeps events in store and its head in heads.
func New(store model.BlockStore, heads model.HeadStore) *Clock {
	return &Clock{
		store:   store,
		heads:   heads,
		manager: frontiermanager.New(store),
	}
}

// Head returns the current head.
func (c *Clock) Head(ctx context.Context) (frontier.Frontier, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.heads.Head(ctx)
}

// Advance merges the event id, which must already be in the block store,
// into the head and persists the result.
func (c *Clock) Advance(ctx context.Context, id cid.Cid) (frontier.Frontier, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.advance(ctx, id)
}

// Append creates an event with the given payload on top of the current
// head, puts it in the block store and advances to it.
func (c *Clock) Append(ctx context.Context, data []byte) (*event.Block, frontier.Frontier, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	head, err := c.heads.Head(ctx)
	if err != nil {
		return nil, nil, err
	}
	block, err := event.CreateChecked(ctx, c.store, data, head)
	if err != nil {
		return nil, nil, err
	}
	err = c.store.Put(ctx, block.CID, block.Bytes)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to put event %s", block.CID)
	}
	log.Debugf("Appended event %s with parents %s", block.CID, head)

	newHead, err := c.advance(ctx, block.CID)
	if err != nil {
		return nil, nil, err
	}
	return block, newHead, nil
}

func (c *Clock) advance(ctx context.Context, id cid.Cid) (frontier.Frontier, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "Clock.advance")
	defer onEnd()

	head, err := c.heads.Head(ctx)
	if err != nil {
		return nil, err
	}

	newHead, stats, err := c.manager.AdvanceWithStats(ctx, head, id)
	if err != nil {
		return nil, err
	}
	if newHead.Equal(head) {
		return newHead, nil
	}

	err = c.heads.SetHead(ctx, newHead)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to persist head %s", newHead)
	}
	log.Infof("Head advanced to %s (%d fetched, %d superseded)", newHead, stats.Fetches, len(stats.Superseded))
	return newHead, nil
}
