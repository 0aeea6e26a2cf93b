// ABOUTME: The run subcommand: executes one node of a flow document from the terminal.
// ABOUTME: Supports a headless mode printing bus events and an interactive TUI mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litai12/Tanva-sub008/flow"
	"github.com/litai12/Tanva-sub008/server"
	"github.com/litai12/Tanva-sub008/tui"
)

// runFlow loads a flow document, runs the target node, and reports the
// outcome. CLI runs have no credit gate; credits only meter server sessions.
func runFlow(args []string) int {
	fs := flag.NewFlagSet("tanva run", flag.ContinueOnError)
	nodeID := fs.String("node", "", "Node to run (default: first node with no outgoing edges)")
	tuiMode := fs.Bool("tui", false, "Run with the interactive terminal viewer")
	configPath := fs.String("config", "", "Path to a YAML config file for provider keys")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tanva run [-node <id>] [-tui] <flow.json>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	flowFile := fs.Arg(0)
	raw, err := os.ReadFile(flowFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	doc, err := flow.ParseDocument(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// The TUI owns the terminal; provider logs would corrupt the alt screen.
	logOut := io.Writer(os.Stderr)
	if *tuiMode {
		logOut = io.Discard
	}
	logger := log.New(logOut, "[tanva] ", log.LstdFlags)

	svc := buildMediaService(cfg, logger)
	rt := flow.NewRuntime(flow.RuntimeConfig{
		Registry: flow.DefaultRegistry(flow.Services{
			Images:    svc,
			Videos:    svc,
			Optimizer: svc,
			Frames:    svc,
			Models:    svc,
		}),
		Uploader: svc,
		Logger:   logger,
	})
	defer rt.Close()

	if err := rt.LoadDocument(doc); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	target := *nodeID
	if target == "" {
		target = pickTargetNode(rt.Graph())
	}
	if target == "" {
		fmt.Fprintln(os.Stderr, "error: flow has no nodes to run")
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *tuiMode {
		return runFlowWithTUI(ctx, rt, filepath.Base(flowFile), target)
	}
	return runFlowHeadless(ctx, rt, target)
}

// runFlowHeadless runs the target node while echoing bus events to stderr.
func runFlowHeadless(ctx context.Context, rt *flow.Runtime, target string) int {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	unsubscribe := rt.Bus().Subscribe(func(evt flow.Event) {
		fmt.Fprintf(os.Stderr, "[node] %s %s\n", evt.NodeID, formatPatch(evt.Patch))
	})
	defer unsubscribe()

	handle, err := rt.Run(ctx, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	select {
	case <-handle.Done:
	case <-sigChan:
		fmt.Fprintln(os.Stderr, "\nInterrupted.")
		return 1
	}

	kind, data, ok := rt.Graph().Snapshot(target)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: node %s disappeared during the run\n", target)
		return 1
	}
	if data.Status == flow.StatusFailed {
		fmt.Fprintf(os.Stderr, "error: %s\n", data.Error)
		return 1
	}

	fmt.Printf("Node %s (%s) succeeded.\n", target, kind)
	if data.Text != "" {
		fmt.Printf("Text: %s\n", data.Text)
	}
	for _, url := range data.Images {
		fmt.Printf("Image: %s\n", url)
	}
	if data.VideoURL != "" {
		fmt.Printf("Video: %s\n", data.VideoURL)
	}
	if data.ModelURL != "" {
		fmt.Printf("Model: %s\n", data.ModelURL)
	}
	return 0
}

// runFlowWithTUI runs the target node inside the Bubble Tea viewer with live
// node statuses and the event log.
func runFlowWithTUI(ctx context.Context, rt *flow.Runtime, flowName, target string) int {
	model := tui.NewAppModel(ctx, rt, flowName, target)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Wire the event bridge so bus events reach the TUI.
	bridge := tui.NewEventBridge(p.Send)
	unsubscribe := bridge.Attach(rt.Bus())
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if _, data, ok := rt.Graph().Snapshot(target); ok && data.Status == flow.StatusFailed {
		fmt.Fprintf(os.Stderr, "error: %s\n", data.Error)
		return 1
	}
	return 0
}

// pickTargetNode returns the first sink node in sorted ID order, falling
// back to the first node when every node has downstream edges.
func pickTargetNode(g *flow.Graph) string {
	ids := g.NodeIDs()
	if len(ids) == 0 {
		return ""
	}
	for _, id := range ids {
		if len(g.Downstream(id)) == 0 {
			return id
		}
	}
	return ids[0]
}

// formatPatch renders a patch map as sorted key=value pairs for log lines.
func formatPatch(patch map[string]any) string {
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%v", k, patch[k])
	}
	return out
}
