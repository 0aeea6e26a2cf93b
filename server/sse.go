// ABOUTME: Server-sent events bridge from a session's flow bus to the browser.
// ABOUTME: Bus events are queued per connection so slow clients never block the publisher.

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/litai12/Tanva-sub008/flow"
)

// sseQueueDepth bounds the per-connection event queue. A client that falls
// further behind than this loses events rather than stalling the flow.
const sseQueueDepth = 256

// sseKeepAlive is the idle comment interval that keeps proxies from closing
// the stream.
const sseKeepAlive = 15 * time.Second

// handleEvents streams node-change events for one session as SSE. The bus
// delivers synchronously on the publishing goroutine, so the handler copies
// events into a buffered channel and writes from its own goroutine.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := make(chan flow.Event, sseQueueDepth)
	unsubscribe := sess.Runtime.Bus().Subscribe(func(evt flow.Event) {
		select {
		case events <- evt:
		default:
			// Queue full: drop. The client can refetch the document to
			// resynchronize.
		}
	})
	defer unsubscribe()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case evt := <-events:
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: node\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
