// ABOUTME: Single-line status bar showing flow name, elapsed time, and node state counts.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// StatusBarModel displays run progress in a single line.
type StatusBarModel struct {
	flowName   string
	startTime  time.Time
	totalNodes int
	succeeded  int
	failed     int
	activeNode string
	width      int
}

// NewStatusBarModel creates a StatusBarModel for the given flow.
func NewStatusBarModel(flowName string, totalNodes int) StatusBarModel {
	return StatusBarModel{
		flowName:   flowName,
		totalNodes: totalNodes,
	}
}

// Start records the run start time.
func (m *StatusBarModel) Start() {
	m.startTime = time.Now()
}

// SetCounts updates the settled node counts.
func (m *StatusBarModel) SetCounts(succeeded, failed int) {
	m.succeeded = succeeded
	m.failed = failed
}

// SetActiveNode sets the currently running node label.
func (m *StatusBarModel) SetActiveNode(name string) {
	m.activeNode = name
}

// SetWidth sets the bar width for rendering.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

// Elapsed returns the time since Start() was called, or zero if not
// started.
func (m StatusBarModel) Elapsed() time.Duration {
	if m.startTime.IsZero() {
		return 0
	}
	return time.Since(m.startTime)
}

// formatElapsed formats a duration for the bar. Under a minute shows as
// seconds ("12s"), a minute or more as minutes and seconds ("2m30s").
func formatElapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) - minutes*60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

// View renders the status bar as a single styled line.
func (m StatusBarModel) View() string {
	active := m.activeNode
	if active == "" {
		active = "idle"
	}

	content := fmt.Sprintf("Flow: %s | Elapsed: %s | %d ok / %d failed of %d nodes | Active: %s",
		m.flowName, formatElapsed(m.Elapsed()), m.succeeded, m.failed, m.totalNodes, active)

	style := StatusBarStyle.Width(m.width)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, style.Render(content))
}
