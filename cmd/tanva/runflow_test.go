// ABOUTME: Tests for target node selection, patch formatting, and headless run failures.
package main

import (
	"strings"
	"testing"

	"github.com/litai12/Tanva-sub008/flow"
)

func TestPickTargetNodePrefersSink(t *testing.T) {
	rt := flow.NewRuntime(flow.RuntimeConfig{})
	defer rt.Close()

	textID, err := rt.AddNode(flow.KindText, flow.Position{})
	if err != nil {
		t.Fatal(err)
	}
	optID, err := rt.AddNode(flow.KindOptimizer, flow.Position{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Connect(textID, "", optID, flow.PortText); err != nil {
		t.Fatal(err)
	}

	if got := pickTargetNode(rt.Graph()); got != optID {
		t.Errorf("target = %q, want the sink %q", got, optID)
	}
}

func TestPickTargetNodeFallsBackOnCycle(t *testing.T) {
	rt := flow.NewRuntime(flow.RuntimeConfig{})
	defer rt.Close()

	a, err := rt.AddNode(flow.KindOptimizer, flow.Position{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := rt.AddNode(flow.KindOptimizer, flow.Position{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Connect(a, "", b, flow.PortText); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Connect(b, "", a, flow.PortText); err != nil {
		t.Fatal(err)
	}

	ids := rt.Graph().NodeIDs()
	if got := pickTargetNode(rt.Graph()); got != ids[0] {
		t.Errorf("target = %q, want first node %q when no sink exists", got, ids[0])
	}
}

func TestPickTargetNodeEmptyGraph(t *testing.T) {
	rt := flow.NewRuntime(flow.RuntimeConfig{})
	defer rt.Close()
	if got := pickTargetNode(rt.Graph()); got != "" {
		t.Errorf("target = %q, want empty for an empty graph", got)
	}
}

func TestFormatPatchSortsKeys(t *testing.T) {
	out := formatPatch(map[string]any{"status": "running", "error": ""})
	if !strings.Contains(out, "error=") || !strings.Contains(out, "status=running") {
		t.Errorf("patch output missing fields: %q", out)
	}
	if strings.Index(out, "error") > strings.Index(out, "status") {
		t.Errorf("patch keys not sorted: %q", out)
	}
}

func TestRunFlowFailsWithoutProviders(t *testing.T) {
	path, ids := writeFlowFile(t)

	// No provider keys are configured, so the optimizer run must settle as
	// failed and the command must report it.
	if got := runFlow([]string{"-node", ids[1], path}); got != 1 {
		t.Errorf("exit code = %d, want 1", got)
	}
}

func TestRunFlowMissingFile(t *testing.T) {
	if got := runFlow([]string{"missing.json"}); got != 1 {
		t.Errorf("exit code = %d, want 1", got)
	}
}
