// ABOUTME: Handlers for the single-image generation node and the four-slot image grid node.
// ABOUTME: Grid slots are generated concurrently and settle independently; the run stays open until all settle.
package flow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// gridSlots is the number of images one image_grid run requests.
const gridSlots = 4

// ImageHandler generates a single image from the node's prompt and
// optional reference image.
type ImageHandler struct {
	Images ImageGenerator
}

func (h *ImageHandler) Kind() NodeKind { return KindImage }

func (h *ImageHandler) CheckInput(d *NodeData) error {
	if strings.TrimSpace(d.Prompt) == "" && strings.TrimSpace(d.RefImage) == "" {
		return ErrNoInput
	}
	return nil
}

func (h *ImageHandler) Cost() int { return 4 }

func (h *ImageHandler) Timeout() time.Duration { return 90 * time.Second }

func (h *ImageHandler) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	if h.Images == nil {
		return nil, fmt.Errorf("image: no image generator configured")
	}
	res, err := h.Images.GenerateImage(ctx, ImageRequest{
		Prompt:      in.Data.Prompt,
		RefImage:    in.Data.RefImage,
		AspectRatio: in.Data.AspectRatio,
		N:           1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	if len(res.Images) == 0 || res.Images[0] == "" {
		return nil, fmt.Errorf("generate image: provider returned no image")
	}
	return &RunResult{
		Text:   res.Text,
		Images: []string{res.Images[0]},
		History: []HistoryItem{
			{Kind: "image", URL: res.Images[0], Prompt: in.Data.Prompt},
		},
	}, nil
}

// ImageGridHandler generates four independent images for one prompt. Each
// slot transitions from empty to populated as its call settles; slots that
// fail stay empty. The run succeeds when at least one slot filled.
type ImageGridHandler struct {
	Images ImageGenerator
}

func (h *ImageGridHandler) Kind() NodeKind { return KindImageGrid }

func (h *ImageGridHandler) CheckInput(d *NodeData) error {
	if strings.TrimSpace(d.Prompt) == "" {
		return ErrNoInput
	}
	return nil
}

func (h *ImageGridHandler) Cost() int { return 12 }

func (h *ImageGridHandler) Timeout() time.Duration { return 120 * time.Second }

func (h *ImageGridHandler) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	if h.Images == nil {
		return nil, fmt.Errorf("image_grid: no image generator configured")
	}

	images := make([]string, gridSlots)
	errs := make([]error, gridSlots)

	var wg sync.WaitGroup
	for slot := 0; slot < gridSlots; slot++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			res, err := h.Images.GenerateImage(ctx, ImageRequest{
				Prompt:      in.Data.Prompt,
				AspectRatio: in.Data.AspectRatio,
				N:           1,
			})
			if err != nil {
				errs[slot] = err
				return
			}
			if len(res.Images) == 0 || res.Images[0] == "" {
				errs[slot] = fmt.Errorf("slot %d: provider returned no image", slot)
				return
			}
			images[slot] = res.Images[0]
		}(slot)
	}
	wg.Wait()

	filled := 0
	var history []HistoryItem
	for _, img := range images {
		if img != "" {
			filled++
			history = append(history, HistoryItem{Kind: "image", URL: img, Prompt: in.Data.Prompt})
		}
	}
	if filled == 0 {
		for _, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("generate image grid: all slots failed: %w", err)
			}
		}
		return nil, fmt.Errorf("generate image grid: all slots failed")
	}

	return &RunResult{Images: images, History: history}, nil
}
