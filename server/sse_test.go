// ABOUTME: Test for the SSE event stream using a live HTTP server.

package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestEventsStreamDeliversNodeEvents(t *testing.T) {
	s := newTestServer(t)
	sessID := createSession(t, s)
	nodeID := addNode(t, s, sessID, "text")

	ts := httptest.NewServer(s)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sessions/"+sessID+"/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open event stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	// Keep mutating the node until the subscription (registered after the
	// stream opens) observes an event.
	stopEdits := make(chan struct{})
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopEdits:
				return
			case <-ticker.C:
				sess, ok := s.sessions.Get(sessID)
				if !ok {
					return
				}
				_ = sess.Runtime.SetField(nodeID, "text", time.Now().String())
			}
		}
	}()
	defer close(stopEdits)

	scanner := bufio.NewScanner(resp.Body)
	var sawEvent, sawData bool
	for scanner.Scan() {
		line := scanner.Text()
		if line == "event: node" {
			sawEvent = true
		}
		if strings.HasPrefix(line, "data: ") && strings.Contains(line, nodeID) {
			sawData = true
		}
		if sawEvent && sawData {
			return
		}
	}
	t.Fatalf("stream closed without a node event (sawEvent=%v sawData=%v): %v", sawEvent, sawData, scanner.Err())
}
