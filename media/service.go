// ABOUTME: Service facade binding the media SDK to the flow runtime's collaborator contracts.
// ABOUTME: Routes requests across providers, applies the internal retry policy, and logs calls.

package media

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"github.com/litai12/Tanva-sub008/flow"
)

// Optimizer is the prompt rewriting capability adapters may expose.
type Optimizer interface {
	OptimizePrompt(ctx context.Context, prompt string) (string, error)
}

// ServiceConfig configures a Service. Client is required; the remaining
// collaborators disable their capability when nil.
type ServiceConfig struct {
	Client    *Client
	Optimizer Optimizer
	Storage   *StorageClient
	Models    *TripoAdapter

	// EditProvider names the registered image provider that accepts
	// reference images. Empty disables edit routing.
	EditProvider string

	Retry  RetryPolicy
	Logger *log.Logger
}

// Service implements the flow runtime's generation interfaces on top of the
// provider client. Retries for transient provider failures happen here,
// inside a single node run; the node state machine never retries.
type Service struct {
	client       *Client
	optimizer    Optimizer
	storage      *StorageClient
	models       *TripoAdapter
	editProvider string
	retry        RetryPolicy
	logger       *log.Logger
}

// NewService creates a Service from the given config.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.BaseDelay == 0 {
		retry = DefaultRetryPolicy()
	}
	return &Service{
		client:       cfg.Client,
		optimizer:    cfg.Optimizer,
		storage:      cfg.Storage,
		models:       cfg.Models,
		editProvider: cfg.EditProvider,
		retry:        retry,
		logger:       logger,
	}
}

// GenerateImage routes to the default image provider, or to the edit-capable
// provider when the request carries a reference image.
func (s *Service) GenerateImage(ctx context.Context, req flow.ImageRequest) (*flow.ImageResult, error) {
	mreq := ImageRequest{
		Prompt:      req.Prompt,
		RefImage:    req.RefImage,
		AspectRatio: req.AspectRatio,
		N:           req.N,
	}
	if req.RefImage != "" && s.editProvider != "" {
		mreq.Provider = s.editProvider
	}

	start := time.Now()
	var result *ImageResult
	err := Retry(ctx, s.retry, func() error {
		var callErr error
		result, callErr = s.client.GenerateImage(ctx, mreq)
		return callErr
	})
	if err != nil {
		s.logger.Printf("image generation failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}
	s.logger.Printf("image generation produced %d image(s) in %s", len(result.Images), time.Since(start).Round(time.Millisecond))

	return &flow.ImageResult{Images: result.Images, Text: result.Text}, nil
}

// GenerateVideo routes to the default video provider.
func (s *Service) GenerateVideo(ctx context.Context, req flow.VideoRequest) (*flow.VideoResult, error) {
	start := time.Now()
	var result *VideoResult
	err := Retry(ctx, s.retry, func() error {
		var callErr error
		result, callErr = s.client.GenerateVideo(ctx, VideoRequest{
			Prompt:      req.Prompt,
			FirstFrame:  req.FirstFrame,
			DurationSec: req.DurationSec,
		})
		return callErr
	})
	if err != nil {
		s.logger.Printf("video generation failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}
	s.logger.Printf("video generation finished in %s", time.Since(start).Round(time.Millisecond))

	return &flow.VideoResult{URL: result.URL}, nil
}

// OptimizePrompt rewrites a prompt through the configured optimizer.
func (s *Service) OptimizePrompt(ctx context.Context, prompt string) (string, error) {
	if s.optimizer == nil {
		return "", &ConfigurationError{SDKError: SDKError{
			Message: "no prompt optimizer configured",
		}}
	}
	var optimized string
	err := Retry(ctx, s.retry, func() error {
		var callErr error
		optimized, callErr = s.optimizer.OptimizePrompt(ctx, prompt)
		return callErr
	})
	return optimized, err
}

// ExtractFrame pulls a frame out of a hosted video via the storage service.
func (s *Service) ExtractFrame(ctx context.Context, videoURL string, atSec float64) (string, error) {
	if s.storage == nil {
		return "", &ConfigurationError{SDKError: SDKError{
			Message: "no storage service configured",
		}}
	}
	var url string
	err := Retry(ctx, s.retry, func() error {
		var callErr error
		url, callErr = s.storage.ExtractFrame(ctx, videoURL, atSec)
		return callErr
	})
	return url, err
}

// BuildModel turns an image into a 3D model asset. Inline payloads are
// uploaded first so the provider can fetch the image by URL.
func (s *Service) BuildModel(ctx context.Context, imageURL string) (string, error) {
	if s.models == nil {
		return "", &ConfigurationError{SDKError: SDKError{
			Message: "no model builder configured",
		}}
	}

	if strings.HasPrefix(imageURL, "data:") {
		hosted, err := s.Upload(ctx, imageURL, "model-source")
		if err != nil {
			return "", err
		}
		imageURL = hosted
	}

	var url string
	err := Retry(ctx, s.retry, func() error {
		var callErr error
		url, callErr = s.models.BuildModel(ctx, imageURL)
		return callErr
	})
	return url, err
}

// Upload stores an inline data-URL payload and returns its durable URL.
func (s *Service) Upload(ctx context.Context, dataURL, hint string) (string, error) {
	if s.storage == nil {
		return "", &ConfigurationError{SDKError: SDKError{
			Message: "no storage service configured",
		}}
	}
	var url string
	err := Retry(ctx, s.retry, func() error {
		var callErr error
		url, callErr = s.storage.Upload(ctx, dataURL, hint)
		return callErr
	})
	return url, err
}

// Interface assertions against the flow runtime contracts.
var (
	_ flow.ImageGenerator  = (*Service)(nil)
	_ flow.VideoGenerator  = (*Service)(nil)
	_ flow.PromptOptimizer = (*Service)(nil)
	_ flow.FrameExtractor  = (*Service)(nil)
	_ flow.ModelBuilder    = (*Service)(nil)
	_ flow.Uploader        = (*Service)(nil)
)
