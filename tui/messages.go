// ABOUTME: Bubble Tea message types used in the viewer's message loop.
// ABOUTME: Each type wraps a domain event for the tea.Msg interface.
package tui

import (
	"time"

	"github.com/litai12/Tanva-sub008/flow"
)

// FlowEventMsg wraps a flow bus event for the Bubble Tea message loop.
type FlowEventMsg struct {
	Event flow.Event
	Time  time.Time
}

// RunResultMsg signals that the watched run has settled.
type RunResultMsg struct {
	NodeID string
	Err    error
}

// TickMsg is sent periodically to advance spinners and elapsed timers.
type TickMsg struct {
	Time time.Time
}
