// ABOUTME: Handlers for the text prompt node and the prompt optimizer node.
// ABOUTME: Text nodes are pure inputs with no run operation; the optimizer rewrites its input via an LLM call.
package flow

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TextHandler serves plain text prompt nodes. They hold user- or
// upstream-provided text and have no run operation.
type TextHandler struct{}

func (h *TextHandler) Kind() NodeKind { return KindText }

func (h *TextHandler) CheckInput(d *NodeData) error { return ErrNotRunnable }

func (h *TextHandler) Cost() int { return 0 }

func (h *TextHandler) Timeout() time.Duration { return 0 }

func (h *TextHandler) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	return nil, ErrNotRunnable
}

// OptimizerHandler rewrites the node's source text into a richer
// generation prompt. The optimized text becomes the node's output and is
// what downstream edges observe.
type OptimizerHandler struct {
	Optimizer PromptOptimizer
}

func (h *OptimizerHandler) Kind() NodeKind { return KindOptimizer }

func (h *OptimizerHandler) CheckInput(d *NodeData) error {
	if strings.TrimSpace(d.SourceText) == "" {
		return ErrNoInput
	}
	return nil
}

func (h *OptimizerHandler) Cost() int { return 1 }

func (h *OptimizerHandler) Timeout() time.Duration { return 45 * time.Second }

func (h *OptimizerHandler) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	if h.Optimizer == nil {
		return nil, fmt.Errorf("optimizer: no prompt optimizer configured")
	}
	optimized, err := h.Optimizer.OptimizePrompt(ctx, in.Data.SourceText)
	if err != nil {
		return nil, fmt.Errorf("optimize prompt: %w", err)
	}
	if strings.TrimSpace(optimized) == "" {
		return nil, fmt.Errorf("optimize prompt: provider returned empty text")
	}
	return &RunResult{
		Text:    optimized,
		Prompts: []string{in.Data.SourceText, optimized},
	}, nil
}
