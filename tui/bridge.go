// ABOUTME: Bridge connecting a flow runtime's event bus to the Bubble Tea message loop.
// ABOUTME: Provides EventBridge for event injection plus tea.Cmd factories for runs and ticks.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litai12/Tanva-sub008/flow"
)

// EventBridge forwards flow bus events into a tea.Program's message loop.
type EventBridge struct {
	send func(msg tea.Msg)
}

// NewEventBridge creates an EventBridge that sends messages via the given
// function. Typically called with program.Send as the argument.
func NewEventBridge(send func(msg tea.Msg)) *EventBridge {
	return &EventBridge{send: send}
}

// Attach subscribes the bridge to the bus and returns the unsubscribe
// function. Bus delivery is synchronous, so the handler only wraps and
// forwards.
func (b *EventBridge) Attach(bus *flow.Bus) (unsubscribe func()) {
	return bus.Subscribe(func(evt flow.Event) {
		b.send(FlowEventMsg{Event: evt, Time: time.Now()})
	})
}

// RunNodeCmd returns a tea.Cmd that starts the node run and blocks until it
// settles, then reports the terminal outcome.
func RunNodeCmd(ctx context.Context, rt *flow.Runtime, nodeID string) tea.Cmd {
	return func() tea.Msg {
		handle, err := rt.Run(ctx, nodeID)
		if err != nil {
			return RunResultMsg{NodeID: nodeID, Err: err}
		}
		<-handle.Done

		if _, data, ok := rt.Graph().Snapshot(nodeID); ok && data.Status == flow.StatusFailed {
			return RunResultMsg{NodeID: nodeID, Err: errors.New(data.Error)}
		}
		return RunResultMsg{NodeID: nodeID}
	}
}

// TickCmd returns a tea.Cmd that sends a TickMsg after the given interval.
// Used for spinner animation and the elapsed timer.
func TickCmd(interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		time.Sleep(interval)
		return TickMsg{Time: time.Now()}
	}
}
