// ABOUTME: Handlers for the video generation node and the frame extraction node.
// ABOUTME: Video runs are long task-polling calls; frame extraction reads an existing video URL.
package flow

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// VideoHandler generates a video from the node's prompt and optional
// first-frame image.
type VideoHandler struct {
	Videos VideoGenerator
}

func (h *VideoHandler) Kind() NodeKind { return KindVideo }

func (h *VideoHandler) CheckInput(d *NodeData) error {
	if strings.TrimSpace(d.Prompt) == "" && strings.TrimSpace(d.RefImage) == "" {
		return ErrNoInput
	}
	return nil
}

func (h *VideoHandler) Cost() int { return 20 }

func (h *VideoHandler) Timeout() time.Duration { return 5 * time.Minute }

func (h *VideoHandler) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	if h.Videos == nil {
		return nil, fmt.Errorf("video: no video generator configured")
	}
	duration := in.Data.DurationSec
	if duration <= 0 {
		duration = 5
	}
	res, err := h.Videos.GenerateVideo(ctx, VideoRequest{
		Prompt:      in.Data.Prompt,
		FirstFrame:  in.Data.RefImage,
		DurationSec: duration,
	})
	if err != nil {
		return nil, fmt.Errorf("generate video: %w", err)
	}
	if res.URL == "" {
		return nil, fmt.Errorf("generate video: provider returned no video url")
	}
	return &RunResult{
		VideoURL: res.URL,
		History: []HistoryItem{
			{Kind: "video", URL: res.URL, Prompt: in.Data.Prompt},
		},
	}, nil
}

// FrameHandler extracts a still frame from the node's source video.
type FrameHandler struct {
	Frames FrameExtractor
}

func (h *FrameHandler) Kind() NodeKind { return KindFrame }

func (h *FrameHandler) CheckInput(d *NodeData) error {
	if strings.TrimSpace(d.SourceVideo) == "" {
		return ErrNoInput
	}
	return nil
}

func (h *FrameHandler) Cost() int { return 1 }

func (h *FrameHandler) Timeout() time.Duration { return 60 * time.Second }

func (h *FrameHandler) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	if h.Frames == nil {
		return nil, fmt.Errorf("frame: no frame extractor configured")
	}
	url, err := h.Frames.ExtractFrame(ctx, in.Data.SourceVideo, 0)
	if err != nil {
		return nil, fmt.Errorf("extract frame: %w", err)
	}
	if url == "" {
		return nil, fmt.Errorf("extract frame: service returned no image")
	}
	return &RunResult{
		Images:  []string{url},
		History: []HistoryItem{{Kind: "image", URL: url}},
	}, nil
}
