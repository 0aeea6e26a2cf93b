// ABOUTME: Tests for the shared media history feed: ordering, limits, capacity, and sink mirroring.
package flow

import (
	"fmt"
	"testing"
)

type recordingSink struct {
	entries []HistoryEntry
}

func (s *recordingSink) AppendHistory(entry HistoryEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func TestHistoryNewestFirst(t *testing.T) {
	h := NewHistory(nil)
	h.Append("n1", HistoryItem{Kind: "image", URL: "first.png"})
	h.Append("n2", HistoryItem{Kind: "image", URL: "second.png"})

	entries := h.List(0)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].URL != "second.png" || entries[1].URL != "first.png" {
		t.Errorf("expected newest first, got %s then %s", entries[0].URL, entries[1].URL)
	}
}

func TestHistoryListLimit(t *testing.T) {
	h := NewHistory(nil)
	for i := 0; i < 10; i++ {
		h.Append("n", HistoryItem{Kind: "image", URL: fmt.Sprintf("%d.png", i)})
	}
	if got := len(h.List(3)); got != 3 {
		t.Errorf("expected 3 entries with limit, got %d", got)
	}
}

func TestHistoryCapacityBound(t *testing.T) {
	h := NewHistory(nil)
	for i := 0; i < historyCap+50; i++ {
		h.Append("n", HistoryItem{Kind: "image", URL: fmt.Sprintf("%d.png", i)})
	}
	if got := len(h.List(0)); got != historyCap {
		t.Errorf("expected feed capped at %d, got %d", historyCap, got)
	}
	// The newest entry survives the cap.
	if h.List(1)[0].URL != fmt.Sprintf("%d.png", historyCap+49) {
		t.Error("expected newest entry retained")
	}
}

func TestHistoryMirrorsToSink(t *testing.T) {
	sink := &recordingSink{}
	h := NewHistory(sink)
	h.Append("n1", HistoryItem{Kind: "video", URL: "clip.mp4", Prompt: "a storm"})

	if len(sink.entries) != 1 {
		t.Fatalf("expected sink to receive the entry, got %d", len(sink.entries))
	}
	e := sink.entries[0]
	if e.Kind != "video" || e.URL != "clip.mp4" || e.Prompt != "a storm" || e.NodeID != "n1" {
		t.Errorf("unexpected sink entry: %+v", e)
	}
	if e.ID == "" {
		t.Error("expected ULID assigned")
	}
}
