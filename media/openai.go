// ABOUTME: OpenAI adapter for text-to-image generation and prompt optimization.
// ABOUTME: Uses the official openai-go SDK with base URL support for compatible gateways.

package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultImageModel     = "gpt-image-1"
	defaultOptimizerModel = "gpt-4o-mini"

	optimizerSystemPrompt = "You rewrite image and video generation prompts. " +
		"Expand the user's prompt into a single vivid, concrete description: subject, " +
		"style, lighting, composition. Reply with the rewritten prompt only, no preamble."
)

// OpenAIAdapter generates images and optimizes prompts through the OpenAI API.
// It handles text-to-image only; requests carrying a reference image belong to
// an editing-capable provider.
type OpenAIAdapter struct {
	client         openai.Client
	imageModel     string
	optimizerModel string
}

// OpenAIOption is a functional option for configuring an OpenAIAdapter.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	baseURL        string
	imageModel     string
	optimizerModel string
}

// WithOpenAIBaseURL points the adapter at an OpenAI-compatible gateway.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) { c.baseURL = url }
}

// WithOpenAIImageModel overrides the image generation model.
func WithOpenAIImageModel(model string) OpenAIOption {
	return func(c *openAIConfig) { c.imageModel = model }
}

// WithOpenAIOptimizerModel overrides the chat model used for prompt rewriting.
func WithOpenAIOptimizerModel(model string) OpenAIOption {
	return func(c *openAIConfig) { c.optimizerModel = model }
}

// NewOpenAIAdapter creates an adapter authenticated with the given API key.
func NewOpenAIAdapter(apiKey string, opts ...OpenAIOption) *OpenAIAdapter {
	cfg := openAIConfig{
		imageModel:     defaultImageModel,
		optimizerModel: defaultOptimizerModel,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	return &OpenAIAdapter{
		client:         openai.NewClient(reqOpts...),
		imageModel:     cfg.imageModel,
		optimizerModel: cfg.optimizerModel,
	}
}

func (a *OpenAIAdapter) Name() string { return "openai" }

// GenerateImage produces req.N images (default 1) from the prompt. Results
// come back as base64 payloads and are returned as data URLs; the caller is
// responsible for uploading them to durable storage.
func (a *OpenAIAdapter) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	if req.RefImage != "" {
		return nil, &InvalidRequestError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "openai adapter does not support reference images"},
			Provider: a.Name(),
		}}
	}

	model := req.Model
	if model == "" {
		model = a.imageModel
	}
	n := req.N
	if n <= 0 {
		n = 1
	}

	params := openai.ImageGenerateParams{
		Model:  openai.ImageModel(model),
		Prompt: req.Prompt,
		N:      openai.Int(int64(n)),
	}
	if size := sizeForAspectRatio(req.AspectRatio); size != "" {
		params.Size = size
	}

	resp, err := a.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, convertOpenAIError(err, a.Name())
	}

	var images []string
	for _, d := range resp.Data {
		switch {
		case d.B64JSON != "":
			images = append(images, "data:image/png;base64,"+d.B64JSON)
		case d.URL != "":
			images = append(images, d.URL)
		}
	}
	if len(images) == 0 {
		return nil, &EmptyResultError{SDKError: SDKError{
			Message: "openai returned no image data",
		}}
	}

	return &ImageResult{Images: images}, nil
}

// OptimizePrompt rewrites a generation prompt through a chat completion.
func (a *OpenAIAdapter) OptimizePrompt(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: a.optimizerModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(optimizerSystemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", convertOpenAIError(err, a.Name())
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &EmptyResultError{SDKError: SDKError{
			Message: "openai returned an empty optimization",
		}}
	}
	return resp.Choices[0].Message.Content, nil
}

func (a *OpenAIAdapter) Close() error { return nil }

// convertOpenAIError maps SDK errors into the shared error hierarchy so the
// retry policy and the node error surface treat all providers uniformly.
func convertOpenAIError(err error, provider string) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		message := apierr.Message
		if message == "" {
			message = fmt.Sprintf("%s returned status %d", provider, apierr.StatusCode)
		}
		return ErrorFromStatusCode(apierr.StatusCode, message, provider, apierr.Code, nil, nil)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &RequestTimeoutError{SDKError: SDKError{Message: "openai request timed out", Cause: err}}
	}
	return &NetworkError{SDKError: SDKError{Message: "openai request failed", Cause: err}}
}

// sizeForAspectRatio maps the canvas aspect ratios onto the sizes the image
// API accepts. Unknown ratios fall back to the provider default.
func sizeForAspectRatio(ratio string) openai.ImageGenerateParamsSize {
	switch ratio {
	case "1:1":
		return openai.ImageGenerateParamsSize1024x1024
	case "3:2", "16:9":
		return openai.ImageGenerateParamsSize1536x1024
	case "2:3", "9:16":
		return openai.ImageGenerateParamsSize1024x1536
	default:
		return ""
	}
}
