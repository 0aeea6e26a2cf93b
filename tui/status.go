// ABOUTME: Display mapping from flow run statuses to icons and spinner frames.
package tui

import "github.com/litai12/Tanva-sub008/flow"

// NodeState is the visual state of a node in the viewer.
type NodeState int

const (
	StateIdle NodeState = iota
	StateRunning
	StateSucceeded
	StateFailed
)

// StateOf maps a flow status onto its visual state.
func StateOf(s flow.Status) NodeState {
	switch s {
	case flow.StatusRunning:
		return StateRunning
	case flow.StatusSucceeded:
		return StateSucceeded
	case flow.StatusFailed:
		return StateFailed
	default:
		return StateIdle
	}
}

// String returns the lowercase name of the state.
func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Icon returns a bracket-style status marker for display.
func (s NodeState) Icon() string {
	switch s {
	case StateIdle:
		return "[ ]"
	case StateRunning:
		return "[~]"
	case StateSucceeded:
		return "[*]"
	case StateFailed:
		return "[!]"
	default:
		return "[?]"
	}
}

// SpinnerFrames contains the Braille-dot animation frames for running nodes.
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
