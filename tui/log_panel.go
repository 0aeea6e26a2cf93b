// ABOUTME: Scrollable event log panel using the bubbles viewport component.
// ABOUTME: Displays flow bus events with color-coded status fields.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/litai12/Tanva-sub008/flow"
)

// logEntry is one received bus event with its arrival time.
type logEntry struct {
	when  time.Time
	event flow.Event
}

// LogPanelModel is a scrollable log of flow bus events.
type LogPanelModel struct {
	entries  []logEntry
	max      int
	viewport viewport.Model
	focused  bool
	width    int
	height   int
}

// NewLogPanelModel creates a log panel with a maximum number of entries.
// If maxEntries is <= 0, it defaults to 200.
func NewLogPanelModel(maxEntries int) LogPanelModel {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	return LogPanelModel{
		entries:  make([]logEntry, 0, maxEntries),
		max:      maxEntries,
		viewport: viewport.New(80, 10),
	}
}

// Append adds an event to the log, evicting the oldest entry at capacity.
func (m *LogPanelModel) Append(when time.Time, evt flow.Event) {
	if len(m.entries) >= m.max {
		m.entries = m.entries[1:]
	}
	m.entries = append(m.entries, logEntry{when: when, event: evt})
	m.syncViewport()
}

// Len returns the number of entries in the log.
func (m LogPanelModel) Len() int {
	return len(m.entries)
}

// SetFocused sets whether this panel accepts keyboard input.
func (m *LogPanelModel) SetFocused(focused bool) {
	m.focused = focused
}

// IsFocused returns whether the panel is focused.
func (m LogPanelModel) IsFocused() bool {
	return m.focused
}

// SetSize sets the available dimensions and updates the viewport.
func (m *LogPanelModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	// Reserve space for the border (2 lines) and title (1 line)
	vpWidth := w - 2
	vpHeight := h - 3
	if vpWidth < 1 {
		vpWidth = 1
	}
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
	m.syncViewport()
}

// View renders the log panel.
func (m LogPanelModel) View() string {
	title := "EVENT LOG"
	if m.focused {
		title = "EVENT LOG (focused)"
	}

	var content string
	if len(m.entries) == 0 {
		content = "No events yet"
	} else {
		content = m.viewport.View()
	}

	rendered := TitleStyle.Render(title) + "\n" + content
	return BorderStyle.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(rendered)
}

// syncViewport rebuilds the viewport content from entries and scrolls to
// the bottom.
func (m *LogPanelModel) syncViewport() {
	if len(m.entries) == 0 {
		m.viewport.SetContent("")
		return
	}
	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		lines = append(lines, formatEntry(e))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

// formatEntry formats a single bus event as a log line.
func formatEntry(e logEntry) string {
	ts := LogTimestampStyle.Render(e.when.Format("15:04:05"))
	node := LogNodeStyle.Render(fmt.Sprintf("[%s]", shortID(e.event.NodeID)))

	parts := []string{ts, node}
	if len(e.event.Patch) > 0 {
		parts = append(parts, formatPatch(e.event.Patch))
	}
	return strings.Join(parts, " ")
}

// formatPatch formats a patch as compact sorted key=value pairs, coloring
// status and error fields.
func formatPatch(patch map[string]any) string {
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pair := fmt.Sprintf("%s=%v", k, patch[k])
		pairs = append(pairs, patchStyle(k, patch[k]).Render(pair))
	}
	return strings.Join(pairs, " ")
}

func patchStyle(key string, value any) lipgloss.Style {
	if key == "error" {
		return LogErrorStyle
	}
	if key == "status" {
		switch fmt.Sprint(value) {
		case string(flow.StatusSucceeded):
			return LogSuccessStyle
		case string(flow.StatusFailed):
			return LogErrorStyle
		case string(flow.StatusRunning):
			return RunningStyle
		}
	}
	return ValueStyle
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
