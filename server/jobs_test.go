// ABOUTME: Tests for the background jobs, mainly daily grant idempotency.

package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/litai12/Tanva-sub008/flow"
	"github.com/litai12/Tanva-sub008/store"
)

func TestDailyGrantRunsOnceAtStartup(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "tanva.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sessions := NewSessionStore(4, time.Hour, func() (*flow.Runtime, error) {
		return flow.NewRuntime(flow.RuntimeConfig{}), nil
	})
	t.Cleanup(sessions.CloseAll)

	jobs := StartJobs(db, sessions, 25, nil)
	jobs.Stop()

	balance, err := db.Balance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if balance != 25 {
		t.Fatalf("balance = %d, want 25 after startup grant", balance)
	}

	// A restart on the same day must not grant again.
	jobs = StartJobs(db, sessions, 25, nil)
	jobs.Stop()

	balance, err = db.Balance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if balance != 25 {
		t.Fatalf("balance = %d after restart, want 25 (idempotent grant)", balance)
	}
}

func TestJobsDisabledGrant(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "tanva.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sessions := NewSessionStore(4, time.Hour, func() (*flow.Runtime, error) {
		return flow.NewRuntime(flow.RuntimeConfig{}), nil
	})
	t.Cleanup(sessions.CloseAll)

	jobs := StartJobs(db, sessions, 0, nil)
	jobs.Stop()

	balance, err := db.Balance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if balance != 0 {
		t.Fatalf("balance = %d, want 0 with grant disabled", balance)
	}
}
