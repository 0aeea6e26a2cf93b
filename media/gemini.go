// ABOUTME: Gemini adapter for image generation and editing via the native generateContent API.
// ABOUTME: Handles reference-image requests by sending inline base64 parts alongside the prompt.

package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const defaultGeminiImageModel = "gemini-2.5-flash-image"

// GeminiAdapter implements ImageProvider against Google's Gemini API. Unlike
// the OpenAI adapter it accepts a reference image, which makes it the route
// for edit-style requests.
type GeminiAdapter struct {
	apiKey string
	model  string
	base   *BaseAdapter
}

// GeminiOption is a functional option for configuring a GeminiAdapter.
type GeminiOption func(*GeminiAdapter)

// WithGeminiBaseURL sets the base URL for the Gemini API.
// Default is "https://generativelanguage.googleapis.com".
func WithGeminiBaseURL(url string) GeminiOption {
	return func(a *GeminiAdapter) {
		a.base.BaseURL = url
	}
}

// WithGeminiModel overrides the image model.
func WithGeminiModel(model string) GeminiOption {
	return func(a *GeminiAdapter) {
		a.model = model
	}
}

// WithGeminiTimeout sets the timeout configuration for the adapter.
func WithGeminiTimeout(timeout AdapterTimeout) GeminiOption {
	return func(a *GeminiAdapter) {
		a.base.Timeout = timeout
		a.base.HTTPClient = &http.Client{
			Timeout: timeout.Request,
		}
	}
}

// NewGeminiAdapter creates a GeminiAdapter with the given API key and options.
// The BaseAdapter APIKey is left empty so DoRequest will not add a Bearer
// token; authentication is handled via query parameter instead.
func NewGeminiAdapter(apiKey string, opts ...GeminiOption) *GeminiAdapter {
	adapter := &GeminiAdapter{
		apiKey: apiKey,
		model:  defaultGeminiImageModel,
		base:   NewBaseAdapter("", "https://generativelanguage.googleapis.com", DefaultAdapterTimeout()),
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

// Name returns the provider name "gemini".
func (a *GeminiAdapter) Name() string {
	return "gemini"
}

// Close releases any resources held by the adapter.
func (a *GeminiAdapter) Close() error {
	return nil
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// GenerateImage produces an image from the prompt, conditioned on the
// reference image when one is provided.
func (a *GeminiAdapter) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	parts := []geminiPart{{Text: req.Prompt}}
	if req.RefImage != "" {
		mime, data, err := decodeDataURL(req.RefImage)
		if err != nil {
			return nil, &InvalidRequestError{ProviderError: ProviderError{
				SDKError: SDKError{Message: "reference image must be a data URL", Cause: err},
				Provider: a.Name(),
			}}
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{MimeType: mime, Data: data}})
	}

	body := geminiGenerateRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent?key=%s", model, a.apiKey)
	httpResp, err := a.base.DoRequest(ctx, http.MethodPost, path, body, nil)
	if err != nil {
		return nil, err
	}

	var parsed geminiGenerateResponse
	if err := a.base.DecodeJSON(httpResp, a.Name(), &parsed); err != nil {
		return nil, err
	}

	if parsed.PromptFeedback.BlockReason != "" {
		return nil, &ContentFilterError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "prompt blocked: " + parsed.PromptFeedback.BlockReason},
			Provider: a.Name(),
		}}
	}

	result := &ImageResult{}
	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			switch {
			case part.InlineData != nil && part.InlineData.Data != "":
				result.Images = append(result.Images,
					"data:"+part.InlineData.MimeType+";base64,"+part.InlineData.Data)
			case part.Text != "":
				result.Text = part.Text
			}
		}
	}
	if len(result.Images) == 0 {
		return nil, &EmptyResultError{SDKError: SDKError{
			Message: "gemini returned no image parts",
		}}
	}
	return result, nil
}

// decodeDataURL splits a data URL into its mime type and base64 payload. It
// validates the payload decodes cleanly before handing it to the provider.
func decodeDataURL(dataURL string) (mime, payload string, err error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", "", fmt.Errorf("missing data: prefix")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", fmt.Errorf("missing payload separator")
	}
	mime, _, _ = strings.Cut(meta, ";")
	if mime == "" {
		mime = "application/octet-stream"
	}
	if !strings.Contains(meta, "base64") {
		return "", "", fmt.Errorf("only base64 data URLs are supported")
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return "", "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	return mime, payload, nil
}
