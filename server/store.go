// ABOUTME: In-memory session store with TTL cleanup and a capacity cap.
// ABOUTME: Evicted and expired sessions have their flow runtimes closed.

package server

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/litai12/Tanva-sub008/flow"
)

// RuntimeFactory builds a fresh flow runtime for a new session.
type RuntimeFactory func() (*flow.Runtime, error)

// SessionStore holds active canvas sessions in memory.
type SessionStore struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxSessions int
	ttl         time.Duration
	newRuntime  RuntimeFactory
}

// NewSessionStore creates a session store backed by the given runtime factory.
func NewSessionStore(maxSessions int, ttl time.Duration, factory RuntimeFactory) *SessionStore {
	return &SessionStore{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		ttl:         ttl,
		newRuntime:  factory,
	}
}

// Create opens a new session, optionally seeded from a document. At capacity
// the session with the oldest LastAccess is evicted and its runtime closed.
func (s *SessionStore) Create(name string, doc *flow.Document) (*Session, error) {
	rt, err := s.newRuntime()
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	if doc != nil {
		if err := rt.LoadDocument(doc); err != nil {
			rt.Close()
			return nil, fmt.Errorf("load document: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.maxSessions {
		var oldestID string
		var oldestTime time.Time
		for id, sess := range s.sessions {
			if oldestTime.IsZero() || sess.LastAccess.Before(oldestTime) {
				oldestID = id
				oldestTime = sess.LastAccess
			}
		}
		if old, ok := s.sessions[oldestID]; ok {
			old.Runtime.Close()
			delete(s.sessions, oldestID)
		}
	}

	now := time.Now()
	sess := &Session{
		ID:         uuid.New().String(),
		Name:       name,
		Runtime:    rt,
		CreatedAt:  now,
		LastAccess: now,
	}

	s.sessions[sess.ID] = sess
	return sess, nil
}

// Get retrieves a session by ID and refreshes its LastAccess time.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}

	sess.LastAccess = time.Now()
	return sess, true
}

// Delete removes a session and closes its runtime.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.Runtime.Close()
	delete(s.sessions, id)
	return true
}

// List returns all sessions ordered by creation time, newest first.
func (s *SessionStore) List() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Len reports the number of open sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle longer than the TTL and closes their runtimes.
func (s *SessionStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.LastAccess.Before(cutoff) {
			sess.Runtime.Close()
			delete(s.sessions, id)
		}
	}
}

// CloseAll closes every session runtime. Used at shutdown.
func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		sess.Runtime.Close()
		delete(s.sessions, id)
	}
}

// StartCleanup starts a background cleanup goroutine and returns a stop
// function.
func (s *SessionStore) StartCleanup(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				s.Cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}
