// ABOUTME: Kind handler interface, registry, and the collaborator contracts handlers call out to.
// ABOUTME: Each node kind supplies input validation, a credit cost, a timeout, and its external Run call.
package flow

import (
	"context"
	"time"
)

// ImageRequest is the input to an image generation call.
type ImageRequest struct {
	Prompt      string
	RefImage    string // optional reference image URL or data URL
	AspectRatio string
	N           int
}

// ImageResult is the outcome of an image generation call.
type ImageResult struct {
	Images []string // URLs or data URLs, one per requested image
	Text   string   // optional provider commentary
}

// VideoRequest is the input to a video generation call.
type VideoRequest struct {
	Prompt      string
	FirstFrame  string // optional first-frame image
	DurationSec int
}

// VideoResult is the outcome of a video generation call.
type VideoResult struct {
	URL string
}

// ImageGenerator produces images from a prompt. Providers may retry
// internally on empty results; the node state machine never retries.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

// VideoGenerator produces a video from a prompt and optional first frame.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, req VideoRequest) (*VideoResult, error)
}

// PromptOptimizer rewrites a prompt for better generation results.
type PromptOptimizer interface {
	OptimizePrompt(ctx context.Context, prompt string) (string, error)
}

// FrameExtractor pulls a single frame out of a video as an image URL.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoURL string, atSec float64) (string, error)
}

// ModelBuilder turns a 2D image into a 3D model asset URL.
type ModelBuilder interface {
	BuildModel(ctx context.Context, imageURL string) (string, error)
}

// Services bundles the external collaborators the kind handlers depend on.
// Any nil field disables the kinds that need it.
type Services struct {
	Images    ImageGenerator
	Videos    VideoGenerator
	Optimizer PromptOptimizer
	Frames    FrameExtractor
	Models    ModelBuilder
}

// RunInput is the materialized input snapshot a handler runs with. Data is
// a copy; derived port fields already hold resolved upstream values, so
// handlers read fields directly and never touch the graph.
type RunInput struct {
	NodeID string
	Data   NodeData
}

// RunResult carries the payload fields a successful run produced. Zero
// fields are left untouched when applied to the node.
type RunResult struct {
	Text     string
	Images   []string
	VideoURL string
	ModelURL string
	Prompts  []string

	// History entries to append to the shared media feed.
	History []HistoryItem
}

// HistoryItem is one media output for the cross-node history feed.
type HistoryItem struct {
	Kind   string // "image" or "video"
	URL    string
	Prompt string
}

// KindHandler implements one node kind's run behavior.
type KindHandler interface {
	// Kind returns the node kind this handler serves.
	Kind() NodeKind

	// CheckInput validates that a run has at least one resolvable input.
	// Returning an error fails fast without any status transition.
	CheckInput(d *NodeData) error

	// Cost is the credit debit for one run.
	Cost() int

	// Timeout is the wall-clock limit for one run's external call.
	Timeout() time.Duration

	// Run performs the external call. It must be side-effect free with
	// respect to the graph; the runtime applies the result.
	Run(ctx context.Context, in RunInput) (*RunResult, error)
}

// HandlerRegistry maps node kinds to their handlers.
type HandlerRegistry struct {
	handlers map[NodeKind]KindHandler
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[NodeKind]KindHandler)}
}

// Register adds a handler, replacing any previous handler for the kind.
func (r *HandlerRegistry) Register(h KindHandler) {
	r.handlers[h.Kind()] = h
}

// Get returns the handler for a kind, or nil if none is registered.
func (r *HandlerRegistry) Get(kind NodeKind) KindHandler {
	return r.handlers[kind]
}

// DefaultRegistry creates a registry with all built-in kind handlers wired
// to the given collaborators.
func DefaultRegistry(svc Services) *HandlerRegistry {
	reg := NewHandlerRegistry()
	reg.Register(&TextHandler{})
	reg.Register(&OptimizerHandler{Optimizer: svc.Optimizer})
	reg.Register(&ImageHandler{Images: svc.Images})
	reg.Register(&ImageGridHandler{Images: svc.Images})
	reg.Register(&VideoHandler{Videos: svc.Videos})
	reg.Register(&FrameHandler{Frames: svc.Frames})
	reg.Register(&Viewer3DHandler{Models: svc.Models})
	return reg
}
