package frontiermanager

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
	"github.com/kaspanet/merkleclock/domain/clock/event"
	"github.com/kaspanet/merkleclock/domain/clock/frontier"
	"github.com/kaspanet/merkleclock/domain/clock/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// traversalContext holds the events fetched during a single Advance call.
// Every identifier is fetched from the store at most once, unavailable
// blocks included. A nil entry marks an unavailable block.
type traversalContext struct {
	store    model.BlockFetcher
	inflight singleflight.Group

	mtx     sync.Mutex
	fetched map[cid.Cid]*event.Event
	fetches int
}

func newTraversalContext(store model.BlockFetcher) *traversalContext {
	return &traversalContext{
		store:   store,
		fetched: make(map[cid.Cid]*event.Event),
	}
}

func (tc *traversalContext) cached(id cid.Cid) (evt *event.Event, isCached bool) {
	tc.mtx.Lock()
	defer tc.mtx.Unlock()
	evt, isCached = tc.fetched[id]
	return evt, isCached
}

// get returns the event identified by id, fetching it on first use. ok is
// false if the block is unavailable. The only error returned is the
// cancellation of ctx.
func (tc *traversalContext) get(ctx context.Context, id cid.Cid) (evt *event.Event, ok bool, err error) {
	if evt, isCached := tc.cached(id); isCached {
		return evt, evt != nil, nil
	}

	result, err, _ := tc.inflight.Do(id.KeyString(), func() (interface{}, error) {
		if evt, isCached := tc.cached(id); isCached {
			return evt, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		evt, fetchErr := event.Get(ctx, tc.store, id)
		if fetchErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Debugf("Block %s is unavailable: %s", id, fetchErr)
			evt = nil
		}

		tc.mtx.Lock()
		defer tc.mtx.Unlock()
		tc.fetched[id] = evt
		tc.fetches++
		return evt, nil
	})
	if err != nil {
		return nil, false, err
	}
	evt = result.(*event.Event)
	return evt, evt != nil, nil
}

// prefetch fetches ids concurrently.
func (tc *traversalContext) prefetch(ctx context.Context, ids []cid.Cid) error {
	group, groupCtx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		group.Go(func() error {
			_, _, err := tc.get(groupCtx, id)
			return err
		})
	}
	return group.Wait()
}

// unavailable returns the identifiers that could not be fetched, sorted.
func (tc *traversalContext) unavailable() []cid.Cid {
	tc.mtx.Lock()
	defer tc.mtx.Unlock()
	var ids []cid.Cid
	for id, evt := range tc.fetched {
		if evt == nil {
			ids = append(ids, id)
		}
	}
	frontier.SortIDs(ids)
	return ids
}

func (tc *traversalContext) fetchCount() int {
	tc.mtx.Lock()
	defer tc.mtx.Unlock()
	return tc.fetches
}
