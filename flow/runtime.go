// ABOUTME: Flow runtime: owns the graph, bus, propagator, and history, and drives the node run lifecycle.
// ABOUTME: Enforces run admission, generation-guarded completion writes, credit debits, and upload substitution.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// uploadTimeout bounds one upload-substitution call.
const uploadTimeout = 60 * time.Second

// defaultRunTimeout applies when a handler does not declare its own.
const defaultRunTimeout = 60 * time.Second

// CreditGate checks and records credit spend for runs. Debit must fail when
// the balance cannot cover the cost; Refund returns credits after a failed
// run. A nil gate means unlimited credits.
type CreditGate interface {
	Debit(ctx context.Context, reason string, cost int) error
	Refund(ctx context.Context, reason string, cost int) error
}

// Uploader stores an inline data payload in object storage and returns the
// durable URL that replaces it.
type Uploader interface {
	Upload(ctx context.Context, dataURL, hint string) (string, error)
}

// RuntimeConfig configures a Runtime. Registry is required; the rest may
// be nil (no credits, no uploads, no history sink).
type RuntimeConfig struct {
	Registry *HandlerRegistry
	Credits  CreditGate
	Uploader Uploader
	History  *History
	Logger   *log.Logger
}

// Runtime binds a graph to the propagation bus and the kind handlers. All
// node-controller operations (local edits, connect/disconnect, runs) go
// through it.
type Runtime struct {
	graph      *Graph
	bus        *Bus
	registry   *HandlerRegistry
	propagator *Propagator
	history    *History
	credits    CreditGate
	uploader   Uploader
	logger     *log.Logger
}

// RunHandle tracks one asynchronous run. Done is closed when the run has
// settled (including a discarded stale completion).
type RunHandle struct {
	NodeID string
	Done   <-chan struct{}
}

// NewRuntime creates a runtime with an empty graph and an attached
// propagator.
func NewRuntime(cfg RuntimeConfig) *Runtime {
	registry := cfg.Registry
	if registry == nil {
		registry = DefaultRegistry(Services{})
	}
	history := cfg.History
	if history == nil {
		history = NewHistory(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[flow] ", log.LstdFlags)
	}

	rt := &Runtime{
		graph:    NewGraph(),
		bus:      NewBus(),
		registry: registry,
		history:  history,
		credits:  cfg.Credits,
		uploader: cfg.Uploader,
		logger:   logger,
	}
	rt.propagator = NewPropagator(rt.graph, rt.bus)
	rt.propagator.Attach()
	return rt
}

// Graph returns the underlying graph store.
func (rt *Runtime) Graph() *Graph { return rt.graph }

// Bus returns the runtime's event bus.
func (rt *Runtime) Bus() *Bus { return rt.bus }

// History returns the shared media history feed.
func (rt *Runtime) History() *History { return rt.history }

// Close detaches the propagator.
func (rt *Runtime) Close() {
	rt.propagator.Detach()
}

// AddNode creates a node of the given kind and returns its ID.
func (rt *Runtime) AddNode(kind NodeKind, pos Position) (string, error) {
	id := uuid.New().String()
	n := &Node{ID: id, Kind: kind, Position: pos, Data: &NodeData{Status: StatusIdle}}
	if err := rt.graph.AddNode(n); err != nil {
		return "", err
	}
	return id, nil
}

// RemoveNode deletes a node and re-resolves the ports its edges fed.
func (rt *Runtime) RemoveNode(id string) error {
	downstream := rt.graph.Downstream(id)
	if err := rt.graph.RemoveNode(id); err != nil {
		return err
	}
	for _, target := range downstream {
		if changed := rt.graph.RecomputePorts(target); len(changed) > 0 {
			rt.bus.Publish(Event{NodeID: target, Patch: patchForPorts(changed)})
		}
	}
	return nil
}

// Connect adds an edge and immediately re-resolves the target port, so the
// downstream node adopts the upstream value without waiting for the next
// upstream publish.
func (rt *Runtime) Connect(source, sourceHandle, target, targetHandle string) (string, error) {
	id := uuid.New().String()
	e := &Edge{ID: id, Source: source, SourceHandle: sourceHandle, Target: target, TargetHandle: targetHandle}
	if err := rt.graph.AddEdge(e); err != nil {
		return "", err
	}
	if changed := rt.graph.RecomputePorts(target); len(changed) > 0 {
		rt.bus.Publish(Event{NodeID: target, Patch: patchForPorts(changed)})
	}
	return id, nil
}

// Disconnect removes an edge; the former target reverts to its last local
// value for that port.
func (rt *Runtime) Disconnect(edgeID string) error {
	e, ok := rt.graph.FindEdge(edgeID)
	if !ok {
		return fmt.Errorf("disconnect %s: %w", edgeID, ErrEdgeNotFound)
	}
	if err := rt.graph.RemoveEdge(edgeID); err != nil {
		return err
	}
	if changed := rt.graph.RecomputePorts(e.Target); len(changed) > 0 {
		rt.bus.Publish(Event{NodeID: e.Target, Patch: patchForPorts(changed)})
	}
	return nil
}

// SetField applies a local edit to a named input port. While the port is
// connected the edit only updates the local shadow value; the resolved
// upstream value keeps owning the field until the edge is removed.
func (rt *Runtime) SetField(nodeID, port, value string) error {
	rt.graph.mu.Lock()
	n, ok := rt.graph.nodes[nodeID]
	if !ok {
		rt.graph.mu.Unlock()
		return fmt.Errorf("set field on %s: %w", nodeID, ErrNodeNotFound)
	}
	b, ok := bindingFor(n.Kind, port)
	if !ok {
		rt.graph.mu.Unlock()
		return fmt.Errorf("set field on %s: port %q: %w", nodeID, port, ErrUnknownPort)
	}
	b.setLocal(n.Data, value)
	connected := false
	for _, e := range rt.graph.edges {
		if e.Target == nodeID && e.TargetHandle == port {
			if _, live := rt.graph.nodes[e.Source]; live {
				connected = true
				break
			}
		}
	}
	if !connected {
		b.set(n.Data, value)
	}
	rt.graph.mu.Unlock()

	rt.bus.Publish(Event{NodeID: nodeID, Patch: map[string]any{port: value}})
	return nil
}

// NodeOptions is a partial update of a node's generation options and
// sizing fields. Nil fields are left untouched.
type NodeOptions struct {
	AspectRatio *string  `json:"aspectRatio,omitempty"`
	DurationSec *int     `json:"durationSec,omitempty"`
	BoxWidth    *float64 `json:"boxWidth,omitempty"`
	BoxHeight   *float64 `json:"boxHeight,omitempty"`
}

// SetOptions updates generation options on a node.
func (rt *Runtime) SetOptions(nodeID string, opts NodeOptions) error {
	rt.graph.mu.Lock()
	n, ok := rt.graph.nodes[nodeID]
	if !ok {
		rt.graph.mu.Unlock()
		return fmt.Errorf("set options on %s: %w", nodeID, ErrNodeNotFound)
	}
	patch := make(map[string]any)
	if opts.AspectRatio != nil {
		n.Data.AspectRatio = *opts.AspectRatio
		patch["aspectRatio"] = *opts.AspectRatio
	}
	if opts.DurationSec != nil {
		n.Data.DurationSec = *opts.DurationSec
		patch["durationSec"] = *opts.DurationSec
	}
	if opts.BoxWidth != nil {
		n.Data.BoxWidth = *opts.BoxWidth
	}
	if opts.BoxHeight != nil {
		n.Data.BoxHeight = *opts.BoxHeight
	}
	rt.graph.mu.Unlock()

	if len(patch) > 0 {
		rt.bus.Publish(Event{NodeID: nodeID, Patch: patch})
	}
	return nil
}

// ResetNode returns a node to idle, clears its error, and bumps its
// generation so any in-flight run result is discarded.
func (rt *Runtime) ResetNode(nodeID string) error {
	rt.graph.mu.Lock()
	n, ok := rt.graph.nodes[nodeID]
	if !ok {
		rt.graph.mu.Unlock()
		return fmt.Errorf("reset %s: %w", nodeID, ErrNodeNotFound)
	}
	n.generation++
	n.Data.Status = StatusIdle
	n.Data.Error = ""
	rt.graph.mu.Unlock()

	rt.bus.Publish(Event{NodeID: nodeID, Patch: map[string]any{"status": string(StatusIdle)}})
	return nil
}

// Run starts an asynchronous run for the node. It fails fast, without any
// status transition, when the node is missing, already running, has no
// resolvable input, or the credit debit is refused.
func (rt *Runtime) Run(ctx context.Context, nodeID string) (*RunHandle, error) {
	rt.graph.mu.Lock()
	n, ok := rt.graph.nodes[nodeID]
	if !ok {
		rt.graph.mu.Unlock()
		return nil, fmt.Errorf("run %s: %w", nodeID, ErrNodeNotFound)
	}
	handler := rt.registry.Get(n.Kind)
	if handler == nil {
		rt.graph.mu.Unlock()
		return nil, fmt.Errorf("run %s: no handler for kind %q", nodeID, n.Kind)
	}
	if n.Data.Status == StatusRunning {
		rt.graph.mu.Unlock()
		return nil, fmt.Errorf("run %s: %w", nodeID, ErrAlreadyRunning)
	}
	if err := handler.CheckInput(n.Data); err != nil {
		rt.graph.mu.Unlock()
		return nil, fmt.Errorf("run %s: %w", nodeID, err)
	}

	cost := handler.Cost()
	kind := n.Kind
	snapshot := *n.Data.Clone()
	gen := n.generation
	rt.graph.mu.Unlock()

	if rt.credits != nil && cost > 0 {
		if err := rt.credits.Debit(ctx, string(kind), cost); err != nil {
			return nil, fmt.Errorf("run %s: %w", nodeID, err)
		}
	}

	// Transition to running. Admission is re-checked under the lock so two
	// racing Run calls cannot both pass.
	rt.graph.mu.Lock()
	n, ok = rt.graph.nodes[nodeID]
	if !ok || n.generation != gen {
		rt.graph.mu.Unlock()
		rt.refund(kind, cost)
		return nil, fmt.Errorf("run %s: %w", nodeID, ErrNodeNotFound)
	}
	if n.Data.Status == StatusRunning {
		rt.graph.mu.Unlock()
		rt.refund(kind, cost)
		return nil, fmt.Errorf("run %s: %w", nodeID, ErrAlreadyRunning)
	}
	n.Data.Status = StatusRunning
	n.Data.Error = ""
	rt.graph.mu.Unlock()

	rt.bus.Publish(Event{NodeID: nodeID, Patch: map[string]any{"status": string(StatusRunning)}})

	done := make(chan struct{})
	handle := &RunHandle{NodeID: nodeID, Done: done}

	// The run outlives the caller's request context; only the handler
	// timeout bounds it.
	timeout := handler.Timeout()
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)

	go func() {
		defer close(done)
		defer cancel()

		result, err := handler.Run(runCtx, RunInput{NodeID: nodeID, Data: snapshot})
		if err != nil {
			rt.completeFailure(nodeID, gen, kind, cost, err)
			return
		}
		rt.completeSuccess(nodeID, gen, result)
	}()

	return handle, nil
}

// completeFailure records a failed run, unless the node is gone or was
// reset while the call was in flight.
func (rt *Runtime) completeFailure(nodeID string, gen uint64, kind NodeKind, cost int, runErr error) {
	rt.refund(kind, cost)

	rt.graph.mu.Lock()
	n, ok := rt.graph.nodes[nodeID]
	if !ok || n.generation != gen {
		rt.graph.mu.Unlock()
		rt.logger.Printf("node %s: discarding late failure: %v", nodeID, runErr)
		return
	}
	msg := userMessage(runErr)
	n.Data.Status = StatusFailed
	n.Data.Error = msg
	rt.graph.mu.Unlock()

	rt.bus.Publish(Event{NodeID: nodeID, Patch: map[string]any{
		"status": string(StatusFailed),
		"error":  msg,
	}})
}

// completeSuccess applies a run result, appends history, and kicks off
// upload substitution for inline payloads.
func (rt *Runtime) completeSuccess(nodeID string, gen uint64, result *RunResult) {
	rt.graph.mu.Lock()
	n, ok := rt.graph.nodes[nodeID]
	if !ok || n.generation != gen {
		rt.graph.mu.Unlock()
		rt.logger.Printf("node %s: discarding late result", nodeID)
		return
	}

	patch := map[string]any{"status": string(StatusSucceeded)}
	if result.Text != "" {
		n.Data.Text = result.Text
		patch["text"] = result.Text
	}
	if result.Images != nil {
		n.Data.Images = append([]string(nil), result.Images...)
		patch["images"] = n.Data.Images
	}
	if result.VideoURL != "" {
		n.Data.VideoURL = result.VideoURL
		patch["videoUrl"] = result.VideoURL
	}
	if result.ModelURL != "" {
		n.Data.ModelURL = result.ModelURL
		patch["modelUrl"] = result.ModelURL
	}
	if result.Prompts != nil {
		n.Data.Prompts = append([]string(nil), result.Prompts...)
	}
	n.Data.Status = StatusSucceeded
	n.Data.Error = ""
	rt.graph.mu.Unlock()

	rt.bus.Publish(Event{NodeID: nodeID, Patch: patch})

	for _, item := range result.History {
		rt.history.Append(nodeID, item)
	}

	if rt.uploader != nil {
		for _, asset := range inlineAssets(result) {
			go rt.substituteUpload(nodeID, gen, asset)
		}
	}
}

// inlineAssets lists the result payloads that are inline data URLs and
// should be swapped for durable storage URLs.
func inlineAssets(result *RunResult) []string {
	var assets []string
	for _, img := range result.Images {
		if strings.HasPrefix(img, "data:") {
			assets = append(assets, img)
		}
	}
	if strings.HasPrefix(result.VideoURL, "data:") {
		assets = append(assets, result.VideoURL)
	}
	return assets
}

// substituteUpload uploads one inline payload and rewrites the node field
// holding it. This is a second asynchronous write subject to the same
// propagation and generation rules as the run completion itself.
func (rt *Runtime) substituteUpload(nodeID string, gen uint64, dataURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
	defer cancel()

	url, err := rt.uploader.Upload(ctx, dataURL, nodeID)
	if err != nil {
		rt.logger.Printf("node %s: upload substitution failed: %v", nodeID, err)
		return
	}

	rt.graph.mu.Lock()
	n, ok := rt.graph.nodes[nodeID]
	if !ok || n.generation != gen {
		rt.graph.mu.Unlock()
		return
	}
	replaced := false
	for i, img := range n.Data.Images {
		if img == dataURL {
			n.Data.Images[i] = url
			replaced = true
		}
	}
	if n.Data.VideoURL == dataURL {
		n.Data.VideoURL = url
		replaced = true
	}
	rt.graph.mu.Unlock()

	if replaced {
		rt.bus.Publish(Event{NodeID: nodeID, Patch: map[string]any{"asset": url}})
	}
}

func (rt *Runtime) refund(kind NodeKind, cost int) {
	if rt.credits == nil || cost <= 0 {
		return
	}
	if err := rt.credits.Refund(context.Background(), string(kind), cost); err != nil {
		rt.logger.Printf("refund %d credits for %s failed: %v", cost, kind, err)
	}
}

func patchForPorts(ports []string) map[string]any {
	patch := make(map[string]any, len(ports))
	for _, p := range ports {
		patch[p] = true
	}
	return patch
}

// userMessage translates a run error into the message stored on the node.
// Provider errors carry a pre-classified user-facing message; anything
// else surfaces its Error() text.
func userMessage(err error) string {
	type messager interface{ UserMessage() string }
	var um messager
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
