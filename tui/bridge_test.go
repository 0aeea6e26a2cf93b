// ABOUTME: Tests for the bus-to-tea bridge and the run command factory.
package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litai12/Tanva-sub008/flow"
)

func TestEventBridgeForwardsBusEvents(t *testing.T) {
	var received []tea.Msg
	bridge := NewEventBridge(func(msg tea.Msg) {
		received = append(received, msg)
	})

	bus := flow.NewBus()
	unsubscribe := bridge.Attach(bus)

	bus.Publish(flow.Event{NodeID: "n1", Patch: map[string]any{"status": "running"}})
	if len(received) != 1 {
		t.Fatalf("received %d messages, want 1", len(received))
	}
	msg, ok := received[0].(FlowEventMsg)
	if !ok {
		t.Fatalf("message type = %T, want FlowEventMsg", received[0])
	}
	if msg.Event.NodeID != "n1" {
		t.Errorf("node id = %q", msg.Event.NodeID)
	}

	unsubscribe()
	bus.Publish(flow.Event{NodeID: "n2"})
	if len(received) != 1 {
		t.Error("unsubscribed bridge should not receive events")
	}
}

func TestRunNodeCmdReportsMissingNode(t *testing.T) {
	rt := flow.NewRuntime(flow.RuntimeConfig{})
	t.Cleanup(rt.Close)

	msg := RunNodeCmd(context.Background(), rt, "missing")()
	result, ok := msg.(RunResultMsg)
	if !ok {
		t.Fatalf("message type = %T, want RunResultMsg", msg)
	}
	if result.Err == nil {
		t.Fatal("expected an error for a missing node")
	}
}

func TestRunNodeCmdWaitsForCompletion(t *testing.T) {
	registry := flow.DefaultRegistry(flow.Services{Optimizer: staticOptimizer{}})
	rt := flow.NewRuntime(flow.RuntimeConfig{Registry: registry})
	t.Cleanup(rt.Close)

	id, err := rt.AddNode(flow.KindOptimizer, flow.Position{})
	if err != nil {
		t.Fatal(err)
	}
	if err := rt.SetField(id, flow.PortText, "a quiet lake"); err != nil {
		t.Fatal(err)
	}

	msg := RunNodeCmd(context.Background(), rt, id)()
	result, ok := msg.(RunResultMsg)
	if !ok {
		t.Fatalf("message type = %T, want RunResultMsg", msg)
	}
	if result.Err != nil {
		t.Fatalf("run failed: %v", result.Err)
	}

	_, data, _ := rt.Graph().Snapshot(id)
	if data.Status != flow.StatusSucceeded {
		t.Errorf("status = %q after command returned, want succeeded", data.Status)
	}
}

type staticOptimizer struct{}

func (staticOptimizer) OptimizePrompt(ctx context.Context, prompt string) (string, error) {
	return "refined: " + prompt, nil
}
