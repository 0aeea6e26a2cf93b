// ABOUTME: Storage client for durable asset hosting and server-side frame extraction.
// ABOUTME: Uploads inline data-URL payloads and exchanges them for stable HTTPS URLs.

package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"
)

// StorageClient talks to the asset storage service. Generated media often
// arrives as inline base64 payloads; the storage service turns those into
// durable URLs that survive page reloads and provider link expiry.
type StorageClient struct {
	base *BaseAdapter
}

// StorageOption is a functional option for configuring a StorageClient.
type StorageOption func(*StorageClient)

// WithStorageTimeout sets the timeout configuration for the client.
func WithStorageTimeout(timeout AdapterTimeout) StorageOption {
	return func(c *StorageClient) {
		c.base.Timeout = timeout
		c.base.HTTPClient = &http.Client{
			Timeout: timeout.Request,
		}
	}
}

// NewStorageClient creates a StorageClient for the given service base URL.
func NewStorageClient(apiKey, baseURL string, opts ...StorageOption) *StorageClient {
	c := &StorageClient{
		base: NewBaseAdapter(apiKey, baseURL, AdapterTimeout{
			Request: time.Minute,
			Task:    time.Minute,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type storageUploadResponse struct {
	URL string `json:"url"`
}

// Upload posts an inline data-URL payload and returns the durable URL the
// service assigned. hint names the originating node and is stored as metadata.
func (c *StorageClient) Upload(ctx context.Context, dataURL, hint string) (string, error) {
	mimeType, payload, err := decodeDataURL(dataURL)
	if err != nil {
		return "", &InvalidRequestError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "upload requires a data URL", Cause: err},
			Provider: "storage",
		}}
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", &InvalidRequestError{ProviderError: ProviderError{
			SDKError: SDKError{Message: "invalid base64 payload", Cause: err},
			Provider: "storage",
		}}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileNameFor(mimeType))
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if _, err := part.Write(raw); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if hint != "" {
		if err := w.WriteField("hint", hint); err != nil {
			return "", fmt.Errorf("building upload form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.BaseURL+"/v1/assets", &buf)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())
	if c.base.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.base.APIKey)
	}

	httpResp, err := c.base.HTTPClient.Do(httpReq)
	if err != nil {
		return "", &NetworkError{SDKError: SDKError{Message: "uploading asset", Cause: err}}
	}

	var parsed storageUploadResponse
	if err := c.base.DecodeJSON(httpResp, "storage", &parsed); err != nil {
		return "", err
	}
	if parsed.URL == "" {
		return "", &SDKError{Message: "storage service returned no url"}
	}
	return parsed.URL, nil
}

type frameRequest struct {
	VideoURL string  `json:"video_url"`
	AtSec    float64 `json:"at_sec"`
}

// ExtractFrame asks the storage service to pull a single frame out of a
// hosted video and returns the frame's image URL.
func (c *StorageClient) ExtractFrame(ctx context.Context, videoURL string, atSec float64) (string, error) {
	httpResp, err := c.base.DoRequest(ctx, http.MethodPost, "/v1/frames", frameRequest{
		VideoURL: videoURL,
		AtSec:    atSec,
	}, nil)
	if err != nil {
		return "", err
	}

	var parsed storageUploadResponse
	if err := c.base.DecodeJSON(httpResp, "storage", &parsed); err != nil {
		return "", err
	}
	if parsed.URL == "" {
		return "", &EmptyResultError{SDKError: SDKError{
			Message: "frame extraction returned no url",
		}}
	}
	return parsed.URL, nil
}

// fileNameFor picks an upload filename extension from the mime type.
func fileNameFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "asset.png"
	case "image/jpeg":
		return "asset.jpg"
	case "image/webp":
		return "asset.webp"
	case "video/mp4":
		return "asset.mp4"
	default:
		return "asset.bin"
	}
}
