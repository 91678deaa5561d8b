package frontiermanager

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/kaspanet/merkleclock/domain/clock/event"
	"github.com/kaspanet/merkleclock/domain/clock/frontier"
)

// supersessionSearch is the outcome of walking the ancestry of a new event
// looking for head elements.
type supersessionSearch struct {
	// proven holds the head elements found among the new event's ancestors.
	proven map[cid.Cid]struct{}

	// optimistic holds the head elements that were not found while part of
	// the new event's ancestry was unavailable.
	optimistic map[cid.Cid]struct{}

	// ancestors holds every identifier the search enqueued. All of them
	// are ancestors of the new event. It is complete only if the search
	// was not cut short.
	ancestors map[cid.Cid]struct{}
}

func (s *supersessionSearch) isDropped(id cid.Cid) bool {
	_, isProven := s.proven[id]
	return isProven || s.isOptimistic(id)
}

func (s *supersessionSearch) isOptimistic(id cid.Cid) bool {
	_, isOptimistic := s.optimistic[id]
	return isOptimistic
}

// findSuperseded walks the ancestry of newEvent breadth-first looking for
// the elements of head. The walk does not descend below a head element, nor
// below a block that is a direct parent of every head element still looked
// for, and it ends once every head element is found.
func findSuperseded(ctx context.Context, tc *traversalContext, head frontier.Frontier,
	newEvent *event.Event) (*supersessionSearch, error) {

	search := &supersessionSearch{
		proven:     make(map[cid.Cid]struct{}),
		optimistic: make(map[cid.Cid]struct{}),
		ancestors:  make(map[cid.Cid]struct{}),
	}
	unresolved := make(map[cid.Cid]struct{}, len(head))
	for _, element := range head {
		unresolved[element] = struct{}{}
	}

	queue := make([]cid.Cid, 0, len(newEvent.Parents))
	enqueue := func(ids []cid.Cid) {
		for _, id := range ids {
			if _, ok := search.ancestors[id]; ok {
				continue
			}
			search.ancestors[id] = struct{}{}
			queue = append(queue, id)
		}
	}
	enqueue(newEvent.Parents)

	headFetched := false
	hitUnavailable := false
	for len(queue) > 0 && len(unresolved) > 0 {
		current := queue[0]
		queue = queue[1:]

		if _, ok := unresolved[current]; ok {
			delete(unresolved, current)
			search.proven[current] = struct{}{}
			continue
		}

		// Pruning needs the parents of the head elements, which are
		// fetched only once the walk goes past the direct parents that
		// happen to be head elements.
		if !headFetched {
			err := tc.prefetch(ctx, head.Filter(func(element cid.Cid) bool {
				_, ok := unresolved[element]
				return ok
			}))
			if err != nil {
				return nil, err
			}
			headFetched = true
		}
		if isParentOfAll(tc, current, unresolved) {
			continue
		}

		currentEvent, ok, err := tc.get(ctx, current)
		if err != nil {
			return nil, err
		}
		if !ok {
			hitUnavailable = true
			continue
		}
		enqueue(currentEvent.Parents)
	}

	if hitUnavailable {
		for element := range unresolved {
			search.optimistic[element] = struct{}{}
		}
	}
	return search, nil
}

// isParentOfAll returns whether id is a direct parent of every element of
// targets. A target can't be an ancestor of its own parent, so such a block
// can't lead to any of them.
func isParentOfAll(tc *traversalContext, id cid.Cid, targets map[cid.Cid]struct{}) bool {
	for target := range targets {
		targetEvent, isCached := tc.cached(target)
		if !isCached || targetEvent == nil || !targetEvent.HasParent(id) {
			return false
		}
	}
	return true
}

// isAncestorOfAny walks the ancestry of every element of head breadth-first,
// as a single search, looking for id. Blocks in knownAncestors are ancestors
// of id and are not descended into.
func isAncestorOfAny(ctx context.Context, tc *traversalContext, head frontier.Frontier, id cid.Cid,
	knownAncestors map[cid.Cid]struct{}) (bool, error) {

	err := tc.prefetch(ctx, head)
	if err != nil {
		return false, err
	}

	var queue []cid.Cid
	enqueued := make(map[cid.Cid]struct{})
	enqueue := func(ids []cid.Cid) {
		for _, id := range ids {
			if _, ok := enqueued[id]; ok {
				continue
			}
			enqueued[id] = struct{}{}
			queue = append(queue, id)
		}
	}
	for _, element := range head {
		elementEvent, _ := tc.cached(element)
		if elementEvent != nil {
			enqueue(elementEvent.Parents)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.Equals(id) {
			return true, nil
		}
		if _, ok := knownAncestors[current]; ok {
			continue
		}

		currentEvent, ok, err := tc.get(ctx, current)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		enqueue(currentEvent.Parents)
	}
	return false, nil
}
