// ABOUTME: Tests for the graph panel's level layout and status rendering.
package tui

import (
	"strings"
	"testing"

	"github.com/litai12/Tanva-sub008/flow"
)

// buildChainRuntime creates a runtime with text -> optimizer -> image wired
// in a line and returns it with the node ids in order.
func buildChainRuntime(t *testing.T) (*flow.Runtime, []string) {
	t.Helper()
	rt := flow.NewRuntime(flow.RuntimeConfig{})
	t.Cleanup(rt.Close)

	textID, err := rt.AddNode(flow.KindText, flow.Position{})
	if err != nil {
		t.Fatal(err)
	}
	optID, err := rt.AddNode(flow.KindOptimizer, flow.Position{})
	if err != nil {
		t.Fatal(err)
	}
	imgID, err := rt.AddNode(flow.KindImage, flow.Position{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Connect(textID, "", optID, flow.PortText); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Connect(optID, "", imgID, flow.PortPrompt); err != nil {
		t.Fatal(err)
	}
	return rt, []string{textID, optID, imgID}
}

func TestGraphPanelLevels(t *testing.T) {
	rt, ids := buildChainRuntime(t)
	m := NewGraphPanelModel(rt.Graph())

	levels := m.topologicalLevels()
	if len(levels) != 3 {
		t.Fatalf("levels = %d, want 3 for a chain", len(levels))
	}
	for i, id := range ids {
		if len(levels[i]) != 1 || levels[i][0] != id {
			t.Errorf("level %d = %v, want [%s]", i, levels[i], id)
		}
	}
}

func TestGraphPanelLevelsWithCycle(t *testing.T) {
	rt := flow.NewRuntime(flow.RuntimeConfig{})
	t.Cleanup(rt.Close)

	a, err := rt.AddNode(flow.KindText, flow.Position{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := rt.AddNode(flow.KindText, flow.Position{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Connect(a, "", b, flow.PortText); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Connect(b, "", a, flow.PortText); err != nil {
		t.Fatal(err)
	}

	m := NewGraphPanelModel(rt.Graph())
	var total int
	for _, level := range m.topologicalLevels() {
		total += len(level)
	}
	if total != 2 {
		t.Fatalf("cycle nodes rendered = %d, want all 2", total)
	}
}

func TestGraphPanelViewShowsStates(t *testing.T) {
	rt, ids := buildChainRuntime(t)
	m := NewGraphPanelModel(rt.Graph())
	m.SetWidth(100)

	m.SetNodeState(ids[0], StateSucceeded)
	m.SetNodeState(ids[1], StateRunning)

	view := m.View()
	if !strings.Contains(view, "[*]") {
		t.Error("view missing succeeded marker")
	}
	if !strings.Contains(view, "[~]") {
		t.Error("view missing running marker")
	}
	if !strings.Contains(view, "[ ]") {
		t.Error("view missing idle marker")
	}
	if !strings.Contains(view, "-->") {
		t.Error("view missing edge arrows")
	}
}

func TestGraphPanelSeedsStatesFromGraph(t *testing.T) {
	rt, ids := buildChainRuntime(t)

	doc := rt.ExportDocument()
	for i := range doc.Nodes {
		if doc.Nodes[i].ID == ids[2] {
			doc.Nodes[i].Data.Status = flow.StatusFailed
		}
	}
	if err := rt.LoadDocument(doc); err != nil {
		t.Fatal(err)
	}

	m := NewGraphPanelModel(rt.Graph())
	if got := m.GetNodeState(ids[2]); got != StateFailed {
		t.Errorf("seeded state = %v, want failed", got)
	}
}

func TestGraphPanelEmpty(t *testing.T) {
	m := NewGraphPanelModel(nil)
	if view := m.View(); !strings.Contains(view, "(empty)") {
		t.Errorf("empty view = %q", view)
	}
}
