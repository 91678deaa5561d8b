package database_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/kaspanet/merkleclock/domain/clock/model"
	"github.com/kaspanet/merkleclock/infrastructure/db/database/ldb"
	"github.com/kaspanet/merkleclock/infrastructure/db/database/memory"
	"github.com/kaspanet/merkleclock/infrastructure/db/database/pgstore"
)

// pgURLEnv names the environment variable holding a PostgreSQL URL to run
// the pgstore tests against. They are skipped when it is unset.
const pgURLEnv = "MERKLECLOCK_TEST_PGURL"

type testStore interface {
	model.BlockStore
	headStore(t *testing.T) model.HeadStore
}

type memoryTestStore struct{ *memory.Store }

func (s memoryTestStore) headStore(*testing.T) model.HeadStore { return s.Store }

type ldbTestStore struct{ *ldb.LevelDB }

func (s ldbTestStore) headStore(t *testing.T) model.HeadStore {
	return s.LevelDB.HeadStore(t.Name())
}

type pgTestStore struct{ *pgstore.PgStore }

func (s pgTestStore) headStore(*testing.T) model.HeadStore {
	return s.PgStore.HeadStore(uuid.NewString())
}

type storePrepareFunc func(t *testing.T, testName string) (store testStore, name string, teardownFunc func())

// storePrepareFuncs is a set of functions, in which each function
// prepares a separate store type for testing.
// See testForAllStoreTypes for further details.
var storePrepareFuncs = []storePrepareFunc{
	prepareMemoryForTest,
	prepareLDBForTest,
	preparePgStoreForTest,
}

func prepareMemoryForTest(t *testing.T, testName string) (testStore, string, func()) {
	return memoryTestStore{memory.New()}, "memory", func() {}
}

func prepareLDBForTest(t *testing.T, testName string) (testStore, string, func()) {
	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("%s: Open unexpectedly "+
			"failed: %s", testName, err)
	}
	teardownFunc := func() {
		err = db.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly "+
				"failed: %s", testName, err)
		}
	}
	return ldbTestStore{db}, "ldb", teardownFunc
}

func preparePgStoreForTest(t *testing.T, testName string) (testStore, string, func()) {
	url := os.Getenv(pgURLEnv)
	if url == "" {
		return nil, "pgstore", nil
	}
	store, err := pgstore.Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("%s: Connect unexpectedly "+
			"failed: %s", testName, err)
	}
	return pgTestStore{store}, "pgstore", store.Close
}

// testForAllStoreTypes runs the given testFunc for every store
// type defined in storePrepareFuncs. This is to make sure that
// all supported store types adhere to the assumptions defined in
// the interfaces of the model package.
func testForAllStoreTypes(t *testing.T, testName string,
	testFunc func(t *testing.T, store testStore, testName string)) {

	for _, prepareStore := range storePrepareFuncs {
		func() {
			store, storeType, teardownFunc := prepareStore(t, testName)
			if store == nil {
				t.Logf("%s: skipping %s, %s is not set", testName, storeType, pgURLEnv)
				return
			}
			defer teardownFunc()

			testName := fmt.Sprintf("%s: %s", storeType, testName)
			testFunc(t, store, testName)
		}()
	}
}
