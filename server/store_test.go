// ABOUTME: Tests for the in-memory session store: capacity eviction and TTL cleanup.

package server

import (
	"testing"
	"time"

	"github.com/litai12/Tanva-sub008/flow"
)

func newTestSessionStore(maxSessions int, ttl time.Duration) *SessionStore {
	return NewSessionStore(maxSessions, ttl, func() (*flow.Runtime, error) {
		return flow.NewRuntime(flow.RuntimeConfig{}), nil
	})
}

func TestSessionStoreCreateAndGet(t *testing.T) {
	st := newTestSessionStore(4, time.Hour)
	defer st.CloseAll()

	sess, err := st.Create("alpha", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("session has empty ID")
	}

	got, ok := st.Get(sess.ID)
	if !ok {
		t.Fatal("Get did not find the session")
	}
	if got.Name != "alpha" {
		t.Errorf("name = %q, want alpha", got.Name)
	}

	if _, ok := st.Get("missing"); ok {
		t.Error("Get found a session that does not exist")
	}
}

func TestSessionStoreCreateSeedsDocument(t *testing.T) {
	st := newTestSessionStore(4, time.Hour)
	defer st.CloseAll()

	doc := &flow.Document{
		Version: flow.DocumentVersion,
		Nodes: []flow.DocumentNode{
			{ID: "n1", Kind: flow.KindText, Data: flow.NodeData{Status: flow.StatusIdle, Text: "seeded"}},
		},
	}
	sess, err := st.Create("seeded", doc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n := sess.Runtime.Graph().Len(); n != 1 {
		t.Errorf("graph has %d nodes, want 1", n)
	}
}

func TestSessionStoreEvictsOldestAtCapacity(t *testing.T) {
	st := newTestSessionStore(2, time.Hour)
	defer st.CloseAll()

	a, err := st.Create("a", nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := st.Create("b", nil)
	if err != nil {
		t.Fatal(err)
	}

	// Make a the stale one.
	a.LastAccess = time.Now().Add(-time.Minute)

	c, err := st.Create("c", nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := st.Get(a.ID); ok {
		t.Error("oldest session should have been evicted")
	}
	if _, ok := st.Get(b.ID); !ok {
		t.Error("recent session should survive eviction")
	}
	if _, ok := st.Get(c.ID); !ok {
		t.Error("new session should exist")
	}
	if st.Len() != 2 {
		t.Errorf("len = %d, want 2", st.Len())
	}
}

func TestSessionStoreCleanupRemovesExpired(t *testing.T) {
	st := newTestSessionStore(4, 10*time.Minute)
	defer st.CloseAll()

	old, err := st.Create("old", nil)
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := st.Create("fresh", nil)
	if err != nil {
		t.Fatal(err)
	}
	old.LastAccess = time.Now().Add(-time.Hour)

	st.Cleanup()

	if _, ok := st.Get(old.ID); ok {
		t.Error("expired session should have been cleaned up")
	}
	if _, ok := st.Get(fresh.ID); !ok {
		t.Error("fresh session should survive cleanup")
	}
}

func TestSessionStoreDelete(t *testing.T) {
	st := newTestSessionStore(4, time.Hour)
	defer st.CloseAll()

	sess, err := st.Create("gone", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !st.Delete(sess.ID) {
		t.Fatal("Delete returned false for an existing session")
	}
	if st.Delete(sess.ID) {
		t.Fatal("Delete returned true for a removed session")
	}
}

func TestSessionStoreListNewestFirst(t *testing.T) {
	st := newTestSessionStore(4, time.Hour)
	defer st.CloseAll()

	a, err := st.Create("first", nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := st.Create("second", nil)
	if err != nil {
		t.Fatal(err)
	}
	b.CreatedAt = a.CreatedAt.Add(time.Second)

	list := st.List()
	if len(list) != 2 {
		t.Fatalf("list len = %d, want 2", len(list))
	}
	if list[0].ID != b.ID {
		t.Errorf("list[0] = %s, want newest session %s", list[0].ID, b.ID)
	}
}

func TestSessionStoreStartCleanupStops(t *testing.T) {
	st := newTestSessionStore(4, time.Millisecond)
	defer st.CloseAll()

	sess, err := st.Create("ephemeral", nil)
	if err != nil {
		t.Fatal(err)
	}
	sess.LastAccess = time.Now().Add(-time.Hour)

	stop := st.StartCleanup(5 * time.Millisecond)
	defer stop()

	deadline := time.After(time.Second)
	for st.Len() > 0 {
		select {
		case <-deadline:
			t.Fatal("cleanup goroutine never removed the expired session")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
