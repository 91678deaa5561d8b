// Package frontiermanager merges newly observed events into the frontier of
// a merkle clock.
package frontiermanager

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/kaspanet/merkleclock/domain/clock/frontier"
	"github.com/kaspanet/merkleclock/domain/clock/model"
	"github.com/pkg/errors"
)

// ErrEventNotFound is returned by Advance when the advanced-to event itself
// is not in the block store.
var ErrEventNotFound = errors.New("event not found")

// Stats describes the work done by a single Advance call. It is diagnostic
// only: unavailable blocks never make Advance fail.
type Stats struct {
	// Fetches is the number of distinct blocks requested from the store.
	Fetches int

	// Superseded holds the head elements that were dropped, in head order.
	Superseded frontier.Frontier

	// Optimistic is the subset of Superseded that could not be proven to
	// be ancestors of the new event because some of its ancestry was
	// unavailable.
	Optimistic frontier.Frontier

	// Unavailable holds the blocks that could not be fetched, sorted.
	Unavailable []cid.Cid

	// Stale is true when the new event turned out to be an ancestor of
	// the head, leaving it unchanged.
	Stale bool
}

// FrontierManager computes frontier updates against a block store.
type FrontierManager struct {
	store model.BlockFetcher
}

// New instantiates a new FrontierManager
func New(store model.BlockFetcher) *FrontierManager {
	return &FrontierManager{store: store}
}

// Advance is a shorthand for New(store).Advance(ctx, head, id).
func Advance(ctx context.Context, store model.BlockFetcher, head frontier.Frontier, id cid.Cid) (frontier.Frontier, error) {
	return New(store).Advance(ctx, head, id)
}

// Advance returns the frontier that results from observing the event id,
// which must already be in the store, on top of head. head is not modified.
//
// Head elements that are ancestors of id are dropped and id is appended. If
// id is an ancestor of a head element the head is returned unchanged.
// Otherwise id is concurrent with every head element and is appended.
func (fm *FrontierManager) Advance(ctx context.Context, head frontier.Frontier, id cid.Cid) (frontier.Frontier, error) {
	result, _, err := fm.AdvanceWithStats(ctx, head, id)
	return result, err
}

// AdvanceWithStats is Advance that also reports the work it did.
func (fm *FrontierManager) AdvanceWithStats(ctx context.Context, head frontier.Frontier, id cid.Cid) (
	frontier.Frontier, *Stats, error) {

	stats := &Stats{}
	if !id.Defined() {
		return nil, stats, errors.Wrap(frontier.ErrInvalidFrontier, "cannot advance to an undefined event")
	}
	err := head.Validate()
	if err != nil {
		return nil, stats, err
	}

	if len(head) == 0 {
		return frontier.New(id), stats, nil
	}
	if head.Contains(id) {
		return head.Clone(), stats, nil
	}

	tc := newTraversalContext(fm.store)
	result, err := fm.advance(ctx, tc, head, id, stats)
	stats.Fetches = tc.fetchCount()
	stats.Unavailable = tc.unavailable()
	if err != nil {
		return nil, stats, err
	}

	log.Debugf("Advanced %s with %s to %s (fetches: %d, superseded: %d, stale: %t)",
		head, id, result, stats.Fetches, len(stats.Superseded), stats.Stale)
	if len(stats.Optimistic) > 0 {
		log.Warnf("Dropped %s while advancing with %s: ancestry blocks %s are unavailable",
			stats.Optimistic, id, frontier.Frontier(stats.Unavailable))
	}
	return result, stats, nil
}

func (fm *FrontierManager) advance(ctx context.Context, tc *traversalContext, head frontier.Frontier,
	id cid.Cid, stats *Stats) (frontier.Frontier, error) {

	newEvent, ok, err := tc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrEventNotFound, "%s", id)
	}

	search, err := findSuperseded(ctx, tc, head, newEvent)
	if err != nil {
		return nil, err
	}

	stats.Superseded = head.Filter(search.isDropped)
	stats.Optimistic = head.Filter(search.isOptimistic)
	survivors := head.Filter(func(element cid.Cid) bool {
		return !search.isDropped(element)
	})

	// In a valid head, no element can descend from the new event once
	// another element is proven to be its ancestor. Elements dropped
	// optimistically are still searched: a head that provably descends
	// from the new event is kept.
	if len(search.proven) == 0 {
		stale, err := isAncestorOfAny(ctx, tc, head, id, search.ancestors)
		if err != nil {
			return nil, err
		}
		if stale {
			stats.Superseded = nil
			stats.Optimistic = nil
			stats.Stale = true
			return head.Clone(), nil
		}
	}

	return survivors.Append(id), nil
}
