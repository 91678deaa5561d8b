package main

import (
	"context"
	"testing"

	"github.com/kaspanet/merkleclock/domain/clock/event"
	"github.com/kaspanet/merkleclock/infrastructure/config"
	"github.com/kaspanet/merkleclock/infrastructure/db/database/ldb"
)

func TestRunAgainstLevelDB(t *testing.T) {
	ctx := context.Background()
	cfg, _, err := config.LoadConfig(appName, []string{"--nologfiles", "--datadir", t.TempDir()})
	if err != nil {
		t.Fatalf("TestRunAgainstLevelDB: LoadConfig unexpectedly failed: %s", err)
	}

	for _, payload := range []string{"first", "second"} {
		err = run(ctx, cfg, "append", []string{payload})
		if err != nil {
			t.Fatalf("TestRunAgainstLevelDB: append %s unexpectedly failed: %s", payload, err)
		}
	}
	err = run(ctx, cfg, "head", nil)
	if err != nil {
		t.Fatalf("TestRunAgainstLevelDB: head unexpectedly failed: %s", err)
	}

	db, err := ldb.NewLevelDB(cfg.LevelDBPath(), cfg.CacheSizeMiB)
	if err != nil {
		t.Fatalf("TestRunAgainstLevelDB: NewLevelDB unexpectedly failed: %s", err)
	}
	head, err := db.HeadStore(cfg.HeadName).Head(ctx)
	db.Close()
	if err != nil {
		t.Fatalf("TestRunAgainstLevelDB: Head unexpectedly failed: %s", err)
	}
	if len(head) != 1 {
		t.Fatalf("TestRunAgainstLevelDB: expected a single head element, got %s", head)
	}

	for _, name := range []string{"show", "advance"} {
		err = run(ctx, cfg, name, []string{head[0].String()})
		if err != nil {
			t.Fatalf("TestRunAgainstLevelDB: %s unexpectedly failed: %s", name, err)
		}
	}
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	cfg, _, err := config.LoadConfig(appName, []string{"--nologfiles", "--dbtype", config.DBTypeMemory})
	if err != nil {
		t.Fatalf("TestRunErrors: LoadConfig unexpectedly failed: %s", err)
	}

	missing, err := event.Create([]byte("never stored"), nil)
	if err != nil {
		t.Fatalf("TestRunErrors: Create unexpectedly failed: %s", err)
	}

	tests := []struct {
		name       string
		command    string
		parameters []string
	}{
		{name: "unknown command", command: "merge"},
		{name: "missing parameter", command: "append"},
		{name: "extra parameter", command: "head", parameters: []string{"x"}},
		{name: "malformed cid", command: "show", parameters: []string{"not-a-cid"}},
		{name: "missing event", command: "show", parameters: []string{missing.CID.String()}},
	}
	for _, test := range tests {
		err := run(ctx, cfg, test.command, test.parameters)
		if err == nil {
			t.Fatalf("TestRunErrors: %s: run unexpectedly succeeded", test.name)
		}
	}
}
