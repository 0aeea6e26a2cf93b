// ABOUTME: Dirty-node propagator: recomputes downstream derived fields when a node's data changes.
// ABOUTME: Walks the graph breadth-first, visiting each node at most once per pass, so cycles cannot loop forever.
package flow

import "sync"

// patchKeyPropagated marks events the propagator publishes for nodes it
// updated itself. The propagator ignores these on receipt; the pass that
// produced them already covered the transitive closure.
const patchKeyPropagated = "_propagated"

// Propagator subscribes to the bus and keeps derived port values in sync
// with their upstream sources. On any node-change event it marks the
// node's direct downstream neighbors dirty and recomputes them
// breadth-first, republishing only nodes whose stored values actually
// changed. Passes are serialized; events arriving while a pass is running
// are queued and drained by the pass owner, so re-entrant publishes from
// sibling subscribers cannot deadlock.
type Propagator struct {
	graph *Graph
	bus   *Bus

	passMu sync.Mutex // held by the goroutine draining the queue

	mu      sync.Mutex
	pending []string

	unsubscribe func()
}

// NewPropagator creates a propagator over the given graph and bus.
// Call Attach to start receiving events.
func NewPropagator(g *Graph, bus *Bus) *Propagator {
	return &Propagator{graph: g, bus: bus}
}

// Attach subscribes the propagator to the bus.
func (p *Propagator) Attach() {
	if p.unsubscribe != nil {
		return
	}
	p.unsubscribe = p.bus.Subscribe(p.onEvent)
}

// Detach unsubscribes the propagator.
func (p *Propagator) Detach() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
}

func (p *Propagator) onEvent(evt Event) {
	if evt.Patch != nil {
		if marked, ok := evt.Patch[patchKeyPropagated].(bool); ok && marked {
			return
		}
	}
	p.enqueue(evt.NodeID)

	// If another goroutine (or an outer frame of this one) owns the pass
	// lock, it will drain the queue; trying to block here would deadlock
	// on re-entrant publishes. Re-check after releasing in case an event
	// was enqueued between the owner's final drain and its unlock.
	for {
		if !p.passMu.TryLock() {
			return
		}
		p.drain()
		p.passMu.Unlock()

		p.mu.Lock()
		empty := len(p.pending) == 0
		p.mu.Unlock()
		if empty {
			return
		}
	}
}

func (p *Propagator) enqueue(nodeID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, nodeID)
}

func (p *Propagator) dequeue() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return "", false
	}
	id := p.pending[0]
	p.pending = p.pending[1:]
	return id, true
}

// drain runs passes until the pending queue is empty. Caller holds passMu.
func (p *Propagator) drain() {
	for {
		sourceID, ok := p.dequeue()
		if !ok {
			return
		}
		for _, changed := range p.pass(sourceID) {
			p.bus.Publish(Event{
				NodeID: changed,
				Patch:  map[string]any{patchKeyPropagated: true},
			})
		}
	}
}

// pass recomputes the dirty closure downstream of sourceID and returns the
// IDs of nodes whose derived values changed, in visit order.
func (p *Propagator) pass(sourceID string) []string {
	visited := map[string]bool{sourceID: true}
	queue := p.graph.Downstream(sourceID)

	var changed []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true

		if ports := p.graph.RecomputePorts(id); len(ports) > 0 {
			changed = append(changed, id)
			queue = append(queue, p.graph.Downstream(id)...)
		}
	}
	return changed
}

// RecomputePorts re-resolves every input port of the node and applies the
// edge-wins policy: a connected port stores the resolved upstream value, a
// disconnected port reverts to the last local edit. Returns the names of
// ports whose stored value changed.
func (g *Graph) RecomputePorts(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}

	var changed []string
	for _, b := range kindPorts[n.Kind] {
		res := g.resolvePortLocked(id, b.name)
		switch {
		case res.Connected:
			if b.value(n.Data) != res.Value {
				b.set(n.Data, res.Value)
				changed = append(changed, b.name)
			}
		default:
			if b.value(n.Data) != b.local(n.Data) {
				b.set(n.Data, b.local(n.Data))
				changed = append(changed, b.name)
			}
		}
	}
	return changed
}
