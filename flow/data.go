// ABOUTME: Node data model for the flow graph: kinds, run status, and the per-node payload envelope.
// ABOUTME: Defines NodeKind, Status, NodeData, and the port bindings that map named ports to payload fields.
package flow

// NodeKind identifies which operation a node performs.
type NodeKind string

const (
	KindText      NodeKind = "text"
	KindOptimizer NodeKind = "optimizer"
	KindImage     NodeKind = "image"
	KindImageGrid NodeKind = "image_grid"
	KindVideo     NodeKind = "video"
	KindFrame     NodeKind = "frame"
	KindViewer3D  NodeKind = "viewer3d"
)

// KnownKinds returns all node kinds the runtime understands.
func KnownKinds() []NodeKind {
	return []NodeKind{
		KindText, KindOptimizer, KindImage, KindImageGrid,
		KindVideo, KindFrame, KindViewer3D,
	}
}

// Status is the lifecycle state of a node's most recent run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is a settled run outcome.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// NodeData is the payload envelope for a node. Only the fields belonging to
// the node's kind are meaningful; the rest stay at their zero value. Each
// connectable input port keeps a shadow Local* field holding the last local
// edit, so disconnecting an edge can restore it.
type NodeData struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`

	// Text node output / optimizer output.
	Text      string `json:"text,omitempty"`
	LocalText string `json:"localText,omitempty"`

	// Optimizer input text.
	SourceText      string `json:"sourceText,omitempty"`
	LocalSourceText string `json:"localSourceText,omitempty"`

	// Prompt input for the generator kinds (image, image_grid, video).
	Prompt      string `json:"prompt,omitempty"`
	LocalPrompt string `json:"localPrompt,omitempty"`

	// Reference image input (image, video, viewer3d).
	RefImage      string `json:"refImage,omitempty"`
	LocalRefImage string `json:"localRefImage,omitempty"`

	// Source video input (frame extraction).
	SourceVideo      string `json:"sourceVideo,omitempty"`
	LocalSourceVideo string `json:"localSourceVideo,omitempty"`

	// Run outputs.
	Images   []string `json:"images,omitempty"`
	VideoURL string   `json:"videoUrl,omitempty"`
	ModelURL string   `json:"modelUrl,omitempty"`
	Prompts  []string `json:"prompts,omitempty"`

	// Generation options.
	AspectRatio string `json:"aspectRatio,omitempty"`
	DurationSec int    `json:"durationSec,omitempty"`

	// UI sizing only; no execution semantics.
	BoxWidth  float64 `json:"boxWidth,omitempty"`
	BoxHeight float64 `json:"boxHeight,omitempty"`
}

// Clone returns a deep copy of the data with independent slices.
func (d *NodeData) Clone() *NodeData {
	c := *d
	if d.Images != nil {
		c.Images = make([]string, len(d.Images))
		copy(c.Images, d.Images)
	}
	if d.Prompts != nil {
		c.Prompts = make([]string, len(d.Prompts))
		copy(c.Prompts, d.Prompts)
	}
	return &c
}

// portBinding maps a named input port to its derived field and its local
// shadow field on NodeData.
type portBinding struct {
	name     string
	multi    bool // multi-edge text concatenation allowed
	value    func(d *NodeData) string
	set      func(d *NodeData, v string)
	local    func(d *NodeData) string
	setLocal func(d *NodeData, v string)
}

var textPort = portBinding{
	name:     PortText,
	multi:    true,
	value:    func(d *NodeData) string { return d.Text },
	set:      func(d *NodeData, v string) { d.Text = v },
	local:    func(d *NodeData) string { return d.LocalText },
	setLocal: func(d *NodeData, v string) { d.LocalText = v },
}

var sourceTextPort = portBinding{
	name:     PortText,
	multi:    true,
	value:    func(d *NodeData) string { return d.SourceText },
	set:      func(d *NodeData, v string) { d.SourceText = v },
	local:    func(d *NodeData) string { return d.LocalSourceText },
	setLocal: func(d *NodeData, v string) { d.LocalSourceText = v },
}

var promptPort = portBinding{
	name:     PortPrompt,
	multi:    true,
	value:    func(d *NodeData) string { return d.Prompt },
	set:      func(d *NodeData, v string) { d.Prompt = v },
	local:    func(d *NodeData) string { return d.LocalPrompt },
	setLocal: func(d *NodeData, v string) { d.LocalPrompt = v },
}

var imagePort = portBinding{
	name:     PortImage,
	value:    func(d *NodeData) string { return d.RefImage },
	set:      func(d *NodeData, v string) { d.RefImage = v },
	local:    func(d *NodeData) string { return d.LocalRefImage },
	setLocal: func(d *NodeData, v string) { d.LocalRefImage = v },
}

var videoPort = portBinding{
	name:     PortVideo,
	value:    func(d *NodeData) string { return d.SourceVideo },
	set:      func(d *NodeData, v string) { d.SourceVideo = v },
	local:    func(d *NodeData) string { return d.LocalSourceVideo },
	setLocal: func(d *NodeData, v string) { d.LocalSourceVideo = v },
}

// Named input ports.
const (
	PortText   = "text"
	PortPrompt = "prompt"
	PortImage  = "img"
	PortVideo  = "video"
)

// kindPorts lists the connectable input ports for each node kind.
var kindPorts = map[NodeKind][]portBinding{
	KindText:      {textPort},
	KindOptimizer: {sourceTextPort},
	KindImage:     {promptPort, imagePort},
	KindImageGrid: {promptPort},
	KindVideo:     {promptPort, imagePort},
	KindFrame:     {videoPort},
	KindViewer3D:  {imagePort},
}

// PortsFor returns the input port names a node kind accepts, in declaration order.
func PortsFor(kind NodeKind) []string {
	bindings := kindPorts[kind]
	names := make([]string, 0, len(bindings))
	for _, b := range bindings {
		names = append(names, b.name)
	}
	return names
}

// bindingFor returns the port binding for a kind and port name, if any.
func bindingFor(kind NodeKind, port string) (portBinding, bool) {
	for _, b := range kindPorts[kind] {
		if b.name == port {
			return b, true
		}
	}
	return portBinding{}, false
}
