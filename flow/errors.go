// ABOUTME: Sentinel errors for graph mutations and run admission.
// ABOUTME: Callers match these with errors.Is to distinguish user errors from internal failures.
package flow

import "errors"

var (
	ErrEmptyID        = errors.New("id must not be empty")
	ErrNodeExists     = errors.New("node already exists")
	ErrNodeNotFound   = errors.New("node not found")
	ErrEdgeExists     = errors.New("edge already exists")
	ErrEdgeNotFound   = errors.New("edge not found")
	ErrUnknownPort    = errors.New("unknown input port")
	ErrPortConnected  = errors.New("port is driven by an edge")
	ErrAlreadyRunning = errors.New("node run already in progress")
	ErrNotRunnable    = errors.New("node kind has no run operation")
	ErrNoInput        = errors.New("no resolvable input for run")
	ErrStaleRun       = errors.New("run result discarded: node removed or reset")
)
