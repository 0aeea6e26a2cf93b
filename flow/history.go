// ABOUTME: Shared cross-node media history feed for the global preview gallery.
// ABOUTME: Entries get time-sortable ULID ids; an optional sink mirrors appends into durable storage.
package flow

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// historyCap bounds the in-memory feed; older entries fall off the end.
const historyCap = 500

// HistoryEntry is one generated media output in the shared feed.
type HistoryEntry struct {
	ID        string    `json:"id"`
	NodeID    string    `json:"nodeId"`
	Kind      string    `json:"kind"` // "image" or "video"
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistorySink receives history entries as they are appended, for durable
// storage. Sink errors are the sink's problem; the feed never blocks on it.
type HistorySink interface {
	AppendHistory(entry HistoryEntry) error
}

// History is the in-memory media history feed shared by all nodes in a
// flow. Newest entries first.
type History struct {
	mu      sync.Mutex
	entries []HistoryEntry
	sink    HistorySink
}

// NewHistory creates an empty feed. sink may be nil.
func NewHistory(sink HistorySink) *History {
	return &History{sink: sink}
}

// Append records a new entry, stamping it with a ULID and the current time.
func (h *History) Append(nodeID string, item HistoryItem) HistoryEntry {
	entry := HistoryEntry{
		ID:        ulid.Make().String(),
		NodeID:    nodeID,
		Kind:      item.Kind,
		URL:       item.URL,
		Prompt:    item.Prompt,
		CreatedAt: time.Now().UTC(),
	}

	h.mu.Lock()
	h.entries = append([]HistoryEntry{entry}, h.entries...)
	if len(h.entries) > historyCap {
		h.entries = h.entries[:historyCap]
	}
	sink := h.sink
	h.mu.Unlock()

	if sink != nil {
		_ = sink.AppendHistory(entry)
	}
	return entry
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (h *History) List(limit int) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]HistoryEntry, n)
	copy(out, h.entries[:n])
	return out
}
