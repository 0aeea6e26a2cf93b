// ABOUTME: Thread-safe graph store holding the flow's nodes and edges.
// ABOUTME: Mutations go through Add/Remove/Connect methods; reads return copies or stable snapshots.
package flow

import (
	"fmt"
	"sort"
	"sync"
)

// Position is a node's canvas coordinate. Layout only, no execution semantics.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one unit in the flow graph. Each node owns its Data exclusively;
// cross-node reads go through the resolver and are always copy-on-read.
type Node struct {
	ID       string
	Kind     NodeKind
	Position Position
	Data     *NodeData

	// generation is bumped whenever the node is reset or removed, so a run
	// that completes late can detect that its target is gone or stale.
	generation uint64
}

// Generation returns the node's current generation counter.
func (n *Node) Generation() uint64 { return n.generation }

// Edge is a directed connection from a source node's output to a named
// input port on a target node.
type Edge struct {
	ID           string
	Source       string
	SourceHandle string
	Target       string
	TargetHandle string
}

// Graph is the shared store of nodes and edges. All access is guarded by a
// single RWMutex; handlers never hold references to node data across calls.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	edges []*Edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// AddNode inserts a node. The node's Data is initialized if nil.
func (g *Graph) AddNode(n *Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n.ID == "" {
		return fmt.Errorf("add node: %w", ErrEmptyID)
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("add node %s: %w", n.ID, ErrNodeExists)
	}
	if _, ok := kindPorts[n.Kind]; !ok {
		return fmt.Errorf("add node %s: unknown kind %q", n.ID, n.Kind)
	}
	if n.Data == nil {
		n.Data = &NodeData{Status: StatusIdle}
	}
	if n.Data.Status == "" {
		n.Data.Status = StatusIdle
	}
	g.nodes[n.ID] = n
	return nil
}

// RemoveNode deletes a node and every edge touching it. The node's
// generation is bumped so in-flight runs discard their results.
func (g *Graph) RemoveNode(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("remove node %s: %w", id, ErrNodeNotFound)
	}
	n.generation++
	delete(g.nodes, id)

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	g.edges = kept
	return nil
}

// AddEdge inserts an edge. Both endpoints must exist and the target handle
// must be a declared input port of the target's kind.
func (g *Graph) AddEdge(e *Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e.ID == "" {
		return fmt.Errorf("add edge: %w", ErrEmptyID)
	}
	if _, ok := g.nodes[e.Source]; !ok {
		return fmt.Errorf("add edge %s: source %s: %w", e.ID, e.Source, ErrNodeNotFound)
	}
	target, ok := g.nodes[e.Target]
	if !ok {
		return fmt.Errorf("add edge %s: target %s: %w", e.ID, e.Target, ErrNodeNotFound)
	}
	if _, ok := bindingFor(target.Kind, e.TargetHandle); !ok {
		return fmt.Errorf("add edge %s: node kind %s has no input port %q", e.ID, target.Kind, e.TargetHandle)
	}
	for _, existing := range g.edges {
		if existing.ID == e.ID {
			return fmt.Errorf("add edge %s: %w", e.ID, ErrEdgeExists)
		}
	}
	g.edges = append(g.edges, e)
	return nil
}

// RemoveEdge deletes an edge by ID.
func (g *Graph) RemoveEdge(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, e := range g.edges {
		if e.ID == id {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("remove edge %s: %w", id, ErrEdgeNotFound)
}

// FindEdge returns a copy of the edge with the given ID.
func (g *Graph) FindEdge(id string) (Edge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, e := range g.edges {
		if e.ID == id {
			return *e, true
		}
	}
	return Edge{}, false
}

// node returns the live node pointer. Callers must hold the graph lock.
func (g *Graph) node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Snapshot returns a copy of a node's data, or false if the node is gone.
func (g *Graph) Snapshot(id string) (NodeKind, *NodeData, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return "", nil, false
	}
	return n.Kind, n.Data.Clone(), true
}

// Edges returns a copy of the current edge list in insertion order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, len(g.edges))
	for i, e := range g.edges {
		out[i] = *e
	}
	return out
}

// EdgesInto returns the edges targeting the given node and port, in
// insertion order.
func (g *Graph) EdgesInto(nodeID, port string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgesIntoLocked(nodeID, port)
}

func (g *Graph) edgesIntoLocked(nodeID, port string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Target == nodeID && e.TargetHandle == port {
			out = append(out, *e)
		}
	}
	return out
}

// Downstream returns the IDs of nodes reachable over a single edge from
// the given source node. Duplicates are removed, order follows edge order.
func (g *Graph) Downstream(sourceID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, e := range g.edges {
		if e.Source == sourceID && !seen[e.Target] {
			seen[e.Target] = true
			out = append(out, e.Target)
		}
	}
	return out
}

// NodeIDs returns all node IDs in insertion-independent sorted order.
func (g *Graph) NodeIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}
