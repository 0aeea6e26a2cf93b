// ABOUTME: Edge resolver: computes the value feeding a node's named input port from upstream edges.
// ABOUTME: Pure and synchronous; reads already-materialized node data, never triggers provider calls.
package flow

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Resolution is the outcome of resolving one input port.
type Resolution struct {
	// Value is the resolved upstream value. Empty when the upstream node
	// has not produced a value yet.
	Value string
	// Connected reports whether at least one live edge drives the port.
	// Dangling edges (source node gone) do not count.
	Connected bool
}

// ResolvePort resolves the value feeding (nodeID, port).
//
// Zero live inbound edges: not connected, caller falls back to the local
// field. Exactly one: the source's declared output value, verbatim. More
// than one (prompt concatenation): sources ordered by the numeric suffix
// of their sourceHandle (unparseable handles after all parseable ones, in
// edge order), empty and whitespace-only values dropped, joined by "\n\n".
func ResolvePort(g *Graph, nodeID, port string) Resolution {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolvePortLocked(nodeID, port)
}

// resolvePortLocked is the resolver core. Callers must hold the graph lock.
func (g *Graph) resolvePortLocked(nodeID, port string) Resolution {
	edges := g.edgesIntoLocked(nodeID, port)
	live := edges[:0]
	for _, e := range edges {
		if _, ok := g.nodes[e.Source]; ok {
			live = append(live, e)
		}
	}
	if len(live) == 0 {
		return Resolution{}
	}

	if len(live) == 1 {
		src := g.nodes[live[0].Source]
		v, _ := outputValue(src.Kind, src.Data)
		return Resolution{Value: v, Connected: true}
	}

	ordered := orderByHandleSuffix(live)
	var parts []string
	for _, e := range ordered {
		src := g.nodes[e.Source]
		v, _ := outputValue(src.Kind, src.Data)
		if strings.TrimSpace(v) == "" {
			continue
		}
		parts = append(parts, v)
	}
	return Resolution{Value: strings.Join(parts, "\n\n"), Connected: true}
}

var handleDigits = regexp.MustCompile(`\d+`)

// orderByHandleSuffix sorts edges by the first digit group embedded in their
// SourceHandle. Edges without a parseable digit group sort after all
// parseable ones, keeping their original edge-list order.
func orderByHandleSuffix(edges []Edge) []Edge {
	type keyed struct {
		edge  Edge
		num   int
		hasNo bool // no parseable number
		pos   int
	}
	ks := make([]keyed, len(edges))
	for i, e := range edges {
		k := keyed{edge: e, pos: i, hasNo: true}
		if m := handleDigits.FindString(e.SourceHandle); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				k.num = n
				k.hasNo = false
			}
		}
		ks[i] = k
	}
	sort.SliceStable(ks, func(a, b int) bool {
		if ks[a].hasNo != ks[b].hasNo {
			return !ks[a].hasNo
		}
		if ks[a].hasNo {
			return ks[a].pos < ks[b].pos
		}
		if ks[a].num != ks[b].num {
			return ks[a].num < ks[b].num
		}
		return ks[a].pos < ks[b].pos
	})
	out := make([]Edge, len(ks))
	for i, k := range ks {
		out[i] = k.edge
	}
	return out
}

// outputValue extracts a node's declared output according to its kind.
// The bool reports whether the kind has an output at all.
func outputValue(kind NodeKind, d *NodeData) (string, bool) {
	switch kind {
	case KindText, KindOptimizer:
		return d.Text, true
	case KindImage, KindImageGrid:
		return latestImage(d.Images), true
	case KindFrame:
		return firstImage(d.Images), true
	case KindVideo:
		return d.VideoURL, true
	case KindViewer3D:
		return d.ModelURL, true
	}
	return "", false
}

// latestImage returns the most recently populated image slot.
func latestImage(images []string) string {
	for i := len(images) - 1; i >= 0; i-- {
		if images[i] != "" {
			return images[i]
		}
	}
	return ""
}

func firstImage(images []string) string {
	for _, img := range images {
		if img != "" {
			return img
		}
	}
	return ""
}
