package clock

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/kaspanet/merkleclock/domain/clock/event"
	"github.com/kaspanet/merkleclock/domain/clock/frontier"
	"github.com/kaspanet/merkleclock/infrastructure/db/database/ldb"
	"github.com/kaspanet/merkleclock/infrastructure/db/database/memory"
)

// countingHeadStore counts head writes.
type countingHeadStore struct {
	*memory.Store
	mtx    sync.Mutex
	writes int
}

func (s *countingHeadStore) SetHead(ctx context.Context, head frontier.Frontier) error {
	s.mtx.Lock()
	s.writes++
	s.mtx.Unlock()
	return s.Store.SetHead(ctx, head)
}

func TestClockAppend(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	clock := New(store, store)

	var previous *event.Block
	for i := 0; i < 5; i++ {
		block, head, err := clock.Append(ctx, []byte(fmt.Sprintf("event %d", i)))
		if err != nil {
			t.Fatalf("TestClockAppend: Append unexpectedly failed: %s", err)
		}
		if !head.Equal(frontier.New(block.CID)) {
			t.Fatalf("TestClockAppend: expected head [%s], got %s", block.CID, head)
		}
		if previous == nil && !block.Event.IsRoot() {
			t.Fatalf("TestClockAppend: first event is not a root")
		}
		if previous != nil && (len(block.Event.Parents) != 1 || !block.Event.HasParent(previous.CID)) {
			t.Fatalf("TestClockAppend: event %d has parents %v, expected [%s]",
				i, block.Event.Parents, previous.CID)
		}
		previous = block
	}

	head, err := clock.Head(ctx)
	if err != nil {
		t.Fatalf("TestClockAppend: Head unexpectedly failed: %s", err)
	}
	if !head.Equal(frontier.New(previous.CID)) {
		t.Fatalf("TestClockAppend: persisted head %s does not match the last event", head)
	}
	if store.Len() != 5 {
		t.Fatalf("TestClockAppend: expected 5 stored blocks, got %d", store.Len())
	}
}

func TestClockConcurrentAdvance(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	clock := New(store, store)

	root, _, err := clock.Append(ctx, []byte("root"))
	if err != nil {
		t.Fatalf("TestClockConcurrentAdvance: Append unexpectedly failed: %s", err)
	}

	const siblingCount = 16
	siblings := make(frontier.Frontier, siblingCount)
	for i := range siblings {
		block, err := event.Create([]byte(fmt.Sprintf("sibling %d", i)), []cid.Cid{root.CID})
		if err != nil {
			t.Fatalf("TestClockConcurrentAdvance: Create unexpectedly failed: %s", err)
		}
		err = store.Put(ctx, block.CID, block.Bytes)
		if err != nil {
			t.Fatalf("TestClockConcurrentAdvance: Put unexpectedly failed: %s", err)
		}
		siblings[i] = block.CID
	}

	var wg sync.WaitGroup
	errs := make(chan error, siblingCount)
	for _, sibling := range siblings {
		sibling := sibling
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := clock.Advance(ctx, sibling)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("TestClockConcurrentAdvance: Advance unexpectedly failed: %s", err)
		}
	}

	head, err := clock.Head(ctx)
	if err != nil {
		t.Fatalf("TestClockConcurrentAdvance: Head unexpectedly failed: %s", err)
	}
	if !head.SetEqual(siblings) {
		t.Fatalf("TestClockConcurrentAdvance: expected head %s, got %s", siblings.Sorted(), head.Sorted())
	}

	merge, head, err := clock.Append(ctx, []byte("merge"))
	if err != nil {
		t.Fatalf("TestClockConcurrentAdvance: Append unexpectedly failed: %s", err)
	}
	if !head.Equal(frontier.New(merge.CID)) || len(merge.Event.Parents) != siblingCount {
		t.Fatalf("TestClockConcurrentAdvance: merge did not collapse the head: %s", head)
	}
}

func TestClockConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	clock := New(store, store)

	const appendCount = 20
	var wg sync.WaitGroup
	errs := make(chan error, appendCount)
	for i := 0; i < appendCount; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := clock.Append(ctx, []byte(fmt.Sprintf("event %d", i)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("TestClockConcurrentAppend: Append unexpectedly failed: %s", err)
		}
	}

	// Appends are serialized, so every event extends the previous one.
	head, err := clock.Head(ctx)
	if err != nil {
		t.Fatalf("TestClockConcurrentAppend: Head unexpectedly failed: %s", err)
	}
	if len(head) != 1 {
		t.Fatalf("TestClockConcurrentAppend: expected a single head element, got %s", head)
	}
	if store.Len() != appendCount {
		t.Fatalf("TestClockConcurrentAppend: expected %d blocks, got %d", appendCount, store.Len())
	}
}

func TestClockUnchangedHeadIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	heads := &countingHeadStore{Store: memory.New()}
	clock := New(store, heads)

	root, _, err := clock.Append(ctx, []byte("root"))
	if err != nil {
		t.Fatalf("TestClockUnchangedHeadIsNotPersisted: Append unexpectedly failed: %s", err)
	}
	_, _, err = clock.Append(ctx, []byte("child"))
	if err != nil {
		t.Fatalf("TestClockUnchangedHeadIsNotPersisted: Append unexpectedly failed: %s", err)
	}
	if heads.writes != 2 {
		t.Fatalf("TestClockUnchangedHeadIsNotPersisted: expected 2 head writes, got %d", heads.writes)
	}

	_, err = clock.Advance(ctx, root.CID)
	if err != nil {
		t.Fatalf("TestClockUnchangedHeadIsNotPersisted: Advance unexpectedly failed: %s", err)
	}
	if heads.writes != 2 {
		t.Fatalf("TestClockUnchangedHeadIsNotPersisted: stale advance wrote the head")
	}
}

func TestClockPersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "clock")

	db, err := ldb.NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("TestClockPersistence: NewLevelDB unexpectedly failed: %s", err)
	}
	clock := New(db, db.HeadStore(""))
	block, _, err := clock.Append(ctx, []byte("persisted"))
	if err != nil {
		t.Fatalf("TestClockPersistence: Append unexpectedly failed: %s", err)
	}
	err = db.Close()
	if err != nil {
		t.Fatalf("TestClockPersistence: Close unexpectedly failed: %s", err)
	}

	db, err = ldb.NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("TestClockPersistence: NewLevelDB unexpectedly failed: %s", err)
	}
	defer db.Close()
	head, err := New(db, db.HeadStore("")).Head(ctx)
	if err != nil {
		t.Fatalf("TestClockPersistence: Head unexpectedly failed: %s", err)
	}
	if !head.Equal(frontier.New(block.CID)) {
		t.Fatalf("TestClockPersistence: expected head [%s] after reopening, got %s", block.CID, head)
	}
}
