// ABOUTME: Tests for the status bar's elapsed formatting and rendered content.
package tui

import (
	"strings"
	"testing"
	"time"
)

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{12 * time.Second, "12s"},
		{59 * time.Second, "59s"},
		{time.Minute, "1m0s"},
		{2*time.Minute + 30*time.Second, "2m30s"},
	}
	for _, c := range cases {
		if got := formatElapsed(c.d); got != c.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestStatusBarView(t *testing.T) {
	m := NewStatusBarModel("demo", 5)
	m.SetWidth(120)
	m.SetCounts(2, 1)
	m.SetActiveNode("image-abc")

	view := m.View()
	if !strings.Contains(view, "demo") {
		t.Error("view missing flow name")
	}
	if !strings.Contains(view, "2 ok / 1 failed of 5 nodes") {
		t.Errorf("view missing counts: %q", view)
	}
	if !strings.Contains(view, "image-abc") {
		t.Error("view missing active node")
	}
}

func TestStatusBarIdleWithoutActiveNode(t *testing.T) {
	m := NewStatusBarModel("demo", 1)
	m.SetWidth(80)
	if !strings.Contains(m.View(), "Active: idle") {
		t.Error("view should show idle when no node is active")
	}
}

func TestElapsedZeroBeforeStart(t *testing.T) {
	m := NewStatusBarModel("demo", 1)
	if m.Elapsed() != 0 {
		t.Error("elapsed should be zero before Start")
	}
	m.Start()
	if m.Elapsed() < 0 {
		t.Error("elapsed should not be negative after Start")
	}
}
