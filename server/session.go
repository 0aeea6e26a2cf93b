// ABOUTME: Canvas session wrapping a flow runtime with undo/redo over serialized documents.
// ABOUTME: Edit operations snapshot the document before mutating; undo restores a prior snapshot.

package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/litai12/Tanva-sub008/flow"
)

const undoDepth = 50

// Session is one open canvas: a live flow runtime plus its undo history.
// Undo covers user edits (nodes, edges, fields); run results are not edits
// and are never rolled back.
type Session struct {
	mu         sync.Mutex
	ID         string
	Name       string
	Runtime    *flow.Runtime
	UndoStack  [][]byte
	RedoStack  [][]byte
	CreatedAt  time.Time
	LastAccess time.Time
}

// Document exports the session's current flow as serialized JSON.
func (sess *Session) Document() ([]byte, error) {
	return flow.MarshalDocument(sess.Runtime.ExportDocument())
}

// snapshot captures the current document for the undo stack. Must be called
// with sess.mu held, before the mutation.
func (sess *Session) snapshot() {
	raw, err := flow.MarshalDocument(sess.Runtime.ExportDocument())
	if err != nil {
		return
	}
	sess.UndoStack = append(sess.UndoStack, raw)
	if len(sess.UndoStack) > undoDepth {
		sess.UndoStack = sess.UndoStack[1:]
	}
	sess.RedoStack = nil
}

// AddNode creates a node and returns its id.
func (sess *Session) AddNode(kind flow.NodeKind, pos flow.Position) (string, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.snapshot()
	id, err := sess.Runtime.AddNode(kind, pos)
	if err != nil {
		sess.dropLastUndo()
		return "", err
	}
	return id, nil
}

// RemoveNode deletes a node and its edges.
func (sess *Session) RemoveNode(nodeID string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.snapshot()
	if err := sess.Runtime.RemoveNode(nodeID); err != nil {
		sess.dropLastUndo()
		return err
	}
	return nil
}

// Connect creates an edge and returns its id.
func (sess *Session) Connect(source, sourceHandle, target, targetHandle string) (string, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.snapshot()
	id, err := sess.Runtime.Connect(source, sourceHandle, target, targetHandle)
	if err != nil {
		sess.dropLastUndo()
		return "", err
	}
	return id, nil
}

// Disconnect removes an edge.
func (sess *Session) Disconnect(edgeID string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.snapshot()
	if err := sess.Runtime.Disconnect(edgeID); err != nil {
		sess.dropLastUndo()
		return err
	}
	return nil
}

// SetField writes a port field value.
func (sess *Session) SetField(nodeID, port, value string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.snapshot()
	if err := sess.Runtime.SetField(nodeID, port, value); err != nil {
		sess.dropLastUndo()
		return err
	}
	return nil
}

// SetOptions updates per-node generation options.
func (sess *Session) SetOptions(nodeID string, opts flow.NodeOptions) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.snapshot()
	if err := sess.Runtime.SetOptions(nodeID, opts); err != nil {
		sess.dropLastUndo()
		return err
	}
	return nil
}

// Load replaces the session's flow with the given document. The previous
// state stays undoable.
func (sess *Session) Load(doc *flow.Document) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.snapshot()
	if err := sess.Runtime.LoadDocument(doc); err != nil {
		sess.dropLastUndo()
		return err
	}
	return nil
}

// Undo restores the previous document state.
func (sess *Session) Undo() error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if len(sess.UndoStack) == 0 {
		return fmt.Errorf("nothing to undo")
	}

	current, err := flow.MarshalDocument(sess.Runtime.ExportDocument())
	if err != nil {
		return fmt.Errorf("capturing current state: %w", err)
	}

	prev := sess.UndoStack[len(sess.UndoStack)-1]
	doc, err := flow.ParseDocument(prev)
	if err != nil {
		return fmt.Errorf("failed to restore previous state: %w", err)
	}
	if err := sess.Runtime.LoadDocument(doc); err != nil {
		return fmt.Errorf("failed to restore previous state: %w", err)
	}

	sess.UndoStack = sess.UndoStack[:len(sess.UndoStack)-1]
	sess.RedoStack = append(sess.RedoStack, current)
	return nil
}

// Redo restores a previously undone state.
func (sess *Session) Redo() error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if len(sess.RedoStack) == 0 {
		return fmt.Errorf("nothing to redo")
	}

	current, err := flow.MarshalDocument(sess.Runtime.ExportDocument())
	if err != nil {
		return fmt.Errorf("capturing current state: %w", err)
	}

	next := sess.RedoStack[len(sess.RedoStack)-1]
	doc, err := flow.ParseDocument(next)
	if err != nil {
		return fmt.Errorf("failed to restore next state: %w", err)
	}
	if err := sess.Runtime.LoadDocument(doc); err != nil {
		return fmt.Errorf("failed to restore next state: %w", err)
	}

	sess.RedoStack = sess.RedoStack[:len(sess.RedoStack)-1]
	sess.UndoStack = append(sess.UndoStack, current)
	if len(sess.UndoStack) > undoDepth {
		sess.UndoStack = sess.UndoStack[1:]
	}
	return nil
}

func (sess *Session) dropLastUndo() {
	if n := len(sess.UndoStack); n > 0 {
		sess.UndoStack = sess.UndoStack[:n-1]
	}
}
