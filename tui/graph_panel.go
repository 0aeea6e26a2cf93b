// ABOUTME: Bubble Tea sub-model rendering the flow graph with status markers and spinner animation.
// ABOUTME: Uses Kahn's algorithm for topological levels and lipgloss for styled output.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/litai12/Tanva-sub008/flow"
)

// GraphPanelModel displays the flow graph with per-node status markers.
type GraphPanelModel struct {
	graph        *flow.Graph
	states       map[string]NodeState
	spinnerIndex int
	width        int
}

// NewGraphPanelModel creates a graph panel seeded with the graph's current
// node statuses.
func NewGraphPanelModel(g *flow.Graph) GraphPanelModel {
	m := GraphPanelModel{
		graph:  g,
		states: make(map[string]NodeState),
	}
	if g != nil {
		for _, id := range g.NodeIDs() {
			if _, data, ok := g.Snapshot(id); ok {
				m.states[id] = StateOf(data.Status)
			}
		}
	}
	return m
}

// SetNodeState updates a node's visual state.
func (m *GraphPanelModel) SetNodeState(nodeID string, state NodeState) {
	m.states[nodeID] = state
}

// GetNodeState returns the current state (defaults to StateIdle).
func (m *GraphPanelModel) GetNodeState(nodeID string) NodeState {
	if s, ok := m.states[nodeID]; ok {
		return s
	}
	return StateIdle
}

// AdvanceSpinner increments the spinner frame index.
func (m *GraphPanelModel) AdvanceSpinner() {
	m.spinnerIndex++
}

// SetWidth sets the available width for rendering.
func (m *GraphPanelModel) SetWidth(w int) {
	m.width = w
}

// View renders the graph panel as a string.
func (m GraphPanelModel) View() string {
	if m.graph == nil || m.graph.Len() == 0 {
		content := TitleStyle.Render("=== FLOW: (empty) ===")
		if m.width > 0 {
			return BorderStyle.Width(m.width - 2).Render(content)
		}
		return BorderStyle.Render(content)
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("=== FLOW: %d nodes ===", m.graph.Len())))
	b.WriteString("\n")

	levels := m.topologicalLevels()
	for levelIdx, level := range levels {
		for _, nodeID := range level {
			kind, _, ok := m.graph.Snapshot(nodeID)
			if !ok {
				continue
			}

			state := m.GetNodeState(nodeID)
			style := StyleForState(state)

			var line string
			if state == StateRunning {
				frame := SpinnerFrames[m.spinnerIndex%len(SpinnerFrames)]
				line = fmt.Sprintf("  %s %s (%s) %s", state.Icon(), nodeLabel(nodeID, kind), kind, frame)
			} else {
				line = fmt.Sprintf("  %s %s (%s)", state.Icon(), nodeLabel(nodeID, kind), kind)
			}

			b.WriteString(style.Render(line))
			b.WriteString("\n")

			if levelIdx < len(levels)-1 {
				for _, targetID := range m.graph.Downstream(nodeID) {
					targetKind, _, ok := m.graph.Snapshot(targetID)
					if !ok {
						continue
					}
					b.WriteString(EdgeStyle.Render(fmt.Sprintf("    --> %s", nodeLabel(targetID, targetKind))))
					b.WriteString("\n")
				}
			}
		}
	}

	content := b.String()
	if m.width > 0 {
		return BorderStyle.Width(m.width - 2).Render(content)
	}
	return BorderStyle.Render(content)
}

// topologicalLevels computes topological levels with Kahn's algorithm.
// Nodes within a level are sorted for deterministic output; any leftover
// nodes on a cycle are appended as a final level instead of disappearing.
func (m GraphPanelModel) topologicalLevels() [][]string {
	ids := m.graph.NodeIDs()
	if len(ids) == 0 {
		return nil
	}

	// In-degree over unique source->target pairs, matching Downstream's
	// deduplication so every increment has a matching decrement.
	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		inDegree[id] = 0
	}
	for _, id := range ids {
		for _, targetID := range m.graph.Downstream(id) {
			if _, ok := inDegree[targetID]; ok {
				inDegree[targetID]++
			}
		}
	}

	var queue []string
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	seen := make(map[string]bool, len(ids))
	var levels [][]string
	for len(queue) > 0 {
		level := make([]string, len(queue))
		copy(level, queue)
		levels = append(levels, level)
		for _, id := range level {
			seen[id] = true
		}

		var next []string
		for _, nodeID := range queue {
			for _, targetID := range m.graph.Downstream(nodeID) {
				inDegree[targetID]--
				if inDegree[targetID] == 0 {
					next = append(next, targetID)
				}
			}
		}
		sort.Strings(next)
		queue = next
	}

	var leftover []string
	for _, id := range ids {
		if !seen[id] {
			leftover = append(leftover, id)
		}
	}
	if len(leftover) > 0 {
		sort.Strings(leftover)
		levels = append(levels, leftover)
	}
	return levels
}

// nodeLabel renders a short display label: the kind plus a truncated id.
func nodeLabel(nodeID string, kind flow.NodeKind) string {
	short := nodeID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s", kind, short)
}
