// ABOUTME: Handler for the 3D viewer node, which lifts a 2D image into a 3D model asset.
// ABOUTME: The model URL is the node's output; downstream nodes treat it like any other resolved value.
package flow

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Viewer3DHandler builds a 3D model from the node's reference image.
type Viewer3DHandler struct {
	Models ModelBuilder
}

func (h *Viewer3DHandler) Kind() NodeKind { return KindViewer3D }

func (h *Viewer3DHandler) CheckInput(d *NodeData) error {
	if strings.TrimSpace(d.RefImage) == "" {
		return ErrNoInput
	}
	return nil
}

func (h *Viewer3DHandler) Cost() int { return 10 }

func (h *Viewer3DHandler) Timeout() time.Duration { return 3 * time.Minute }

func (h *Viewer3DHandler) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	if h.Models == nil {
		return nil, fmt.Errorf("viewer3d: no model builder configured")
	}
	url, err := h.Models.BuildModel(ctx, in.Data.RefImage)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	if url == "" {
		return nil, fmt.Errorf("build model: service returned no model url")
	}
	return &RunResult{ModelURL: url}, nil
}
