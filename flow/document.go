// ABOUTME: Flow document codec: serializes a graph to JSON and rebuilds one, with schema validation on import.
// ABOUTME: Imported documents are checked against the embedded JSON schema before any node is created.
package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// DocumentVersion is the current flow document format version.
const DocumentVersion = 1

// Document is the serialized form of a flow graph. Inline data URLs are
// expected to have been substituted with storage URLs before saving, so
// documents stay small.
type Document struct {
	Version int            `json:"version"`
	Nodes   []DocumentNode `json:"nodes"`
	Edges   []DocumentEdge `json:"edges"`
}

// DocumentNode is one serialized node.
type DocumentNode struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"kind"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// DocumentEdge is one serialized edge.
type DocumentEdge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	Target       string `json:"target"`
	TargetHandle string `json:"targetHandle"`
}

// documentSchema validates the structural shape of an imported document.
const documentSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["version", "nodes", "edges"],
	"properties": {
		"version": {"type": "integer", "minimum": 1},
		"nodes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "kind"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"kind": {"enum": ["text", "optimizer", "image", "image_grid", "video", "frame", "viewer3d"]},
					"position": {
						"type": "object",
						"properties": {"x": {"type": "number"}, "y": {"type": "number"}}
					},
					"data": {"type": "object"}
				}
			}
		},
		"edges": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "source", "target", "targetHandle"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"source": {"type": "string", "minLength": 1},
					"sourceHandle": {"type": "string"},
					"target": {"type": "string", "minLength": 1},
					"targetHandle": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

var documentValidator = mustCompileDocumentSchema()

func mustCompileDocumentSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(documentSchema))
	if err != nil {
		panic(fmt.Sprintf("flow: parse document schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("flow-document.json", doc); err != nil {
		panic(fmt.Sprintf("flow: add document schema: %v", err))
	}
	sch, err := c.Compile("flow-document.json")
	if err != nil {
		panic(fmt.Sprintf("flow: compile document schema: %v", err))
	}
	return sch
}

// ValidateDocument checks raw JSON against the flow document schema.
func ValidateDocument(data []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	if err := documentValidator.Validate(inst); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	return nil
}

// ExportDocument snapshots the runtime's graph as a document. Nodes are
// ordered by ID, edges in insertion order, so output is deterministic.
func (rt *Runtime) ExportDocument() *Document {
	g := rt.graph
	g.mu.RLock()
	defer g.mu.RUnlock()

	doc := &Document{Version: DocumentVersion}
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := g.nodes[id]
		doc.Nodes = append(doc.Nodes, DocumentNode{
			ID:       n.ID,
			Kind:     n.Kind,
			Position: n.Position,
			Data:     *n.Data.Clone(),
		})
	}
	for _, e := range g.edges {
		doc.Edges = append(doc.Edges, DocumentEdge{
			ID:           e.ID,
			Source:       e.Source,
			SourceHandle: e.SourceHandle,
			Target:       e.Target,
			TargetHandle: e.TargetHandle,
		})
	}
	return doc
}

// MarshalDocument encodes a document as indented JSON. Nil node and edge
// slices are written as empty arrays so the output always re-parses against
// the schema.
func MarshalDocument(doc *Document) ([]byte, error) {
	out := *doc
	if out.Nodes == nil {
		out.Nodes = []DocumentNode{}
	}
	if out.Edges == nil {
		out.Edges = []DocumentEdge{}
	}
	return json.MarshalIndent(&out, "", "  ")
}

// ParseDocument validates raw JSON against the schema and decodes it.
func ParseDocument(data []byte) (*Document, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// LoadDocument replaces the runtime's graph contents with the document's.
// A node arriving with status running is demoted to idle: no run can be in
// flight for a freshly loaded graph. All ports are re-resolved after load.
func (rt *Runtime) LoadDocument(doc *Document) error {
	fresh := NewGraph()
	for i := range doc.Nodes {
		dn := doc.Nodes[i]
		data := dn.Data.Clone()
		if data.Status == StatusRunning || data.Status == "" {
			data.Status = StatusIdle
		}
		n := &Node{ID: dn.ID, Kind: dn.Kind, Position: dn.Position, Data: data}
		if err := fresh.AddNode(n); err != nil {
			return fmt.Errorf("load document: %w", err)
		}
	}
	for i := range doc.Edges {
		de := doc.Edges[i]
		e := &Edge{
			ID:           de.ID,
			Source:       de.Source,
			SourceHandle: de.SourceHandle,
			Target:       de.Target,
			TargetHandle: de.TargetHandle,
		}
		if err := fresh.AddEdge(e); err != nil {
			return fmt.Errorf("load document: %w", err)
		}
	}

	rt.graph.mu.Lock()
	rt.graph.nodes = fresh.nodes
	rt.graph.edges = fresh.edges
	rt.graph.mu.Unlock()

	for _, id := range rt.graph.NodeIDs() {
		rt.graph.RecomputePorts(id)
	}
	return nil
}

// CloneDocument returns a deep copy of the document with fresh node and
// edge IDs, for instantiating templates. Edge endpoints are remapped to
// the new node IDs.
func CloneDocument(doc *Document) *Document {
	idMap := make(map[string]string, len(doc.Nodes))
	out := &Document{Version: doc.Version}
	for _, n := range doc.Nodes {
		fresh := uuid.New().String()
		idMap[n.ID] = fresh
		n.ID = fresh
		n.Data = *n.Data.Clone()
		out.Nodes = append(out.Nodes, n)
	}
	for _, e := range doc.Edges {
		mappedSource, okS := idMap[e.Source]
		mappedTarget, okT := idMap[e.Target]
		if !okS || !okT {
			continue // dangling edge in the source document, drop it
		}
		e.ID = uuid.New().String()
		e.Source = mappedSource
		e.Target = mappedTarget
		out.Edges = append(out.Edges, e)
	}
	return out
}
