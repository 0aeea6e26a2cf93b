// ABOUTME: Shared HTTP adapter base for media provider adapters.
// ABOUTME: Handles request building, auth headers, error decoding, and retry-after parsing.

package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// AdapterTimeout bundles the timeout knobs for a provider adapter.
type AdapterTimeout struct {
	// Request bounds a single HTTP round trip.
	Request time.Duration

	// Task bounds an async generation task from submit to completion,
	// covering all poll round trips.
	Task time.Duration
}

// DefaultAdapterTimeout returns the standard timeouts: 2 minutes per request,
// 10 minutes per async task.
func DefaultAdapterTimeout() AdapterTimeout {
	return AdapterTimeout{
		Request: 2 * time.Minute,
		Task:    10 * time.Minute,
	}
}

// BaseAdapter provides common HTTP functionality shared across provider adapters.
// Provider-specific adapters embed BaseAdapter to reuse request building, header
// management, and error decoding.
type BaseAdapter struct {
	APIKey         string
	BaseURL        string
	DefaultHeaders map[string]string
	Timeout        AdapterTimeout
	HTTPClient     *http.Client
}

// NewBaseAdapter creates a BaseAdapter with the given API key, base URL, and timeout config.
// It initializes the HTTP client and default headers map.
func NewBaseAdapter(apiKey, baseURL string, timeout AdapterTimeout) *BaseAdapter {
	return &BaseAdapter{
		APIKey:         apiKey,
		BaseURL:        baseURL,
		DefaultHeaders: make(map[string]string),
		Timeout:        timeout,
		HTTPClient: &http.Client{
			Timeout: timeout.Request,
		},
	}
}

// DoRequest builds and executes an HTTP request against the provider's API.
// It JSON-encodes the body (if non-nil), sets authorization and content type headers,
// applies default headers, and then applies per-request header overrides.
// The request respects the provided context for timeout and cancellation.
func (b *BaseAdapter) DoRequest(ctx context.Context, method, path string, body any, headers map[string]string) (*http.Response, error) {
	url := b.BaseURL + path

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewBuffer(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if b.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.APIKey)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range b.DefaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := b.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{SDKError: SDKError{Message: "executing request", Cause: err}}
	}

	return resp, nil
}

// DecodeJSON reads and decodes a 2xx response body into out, closing the body.
// Non-2xx responses are converted into the structured error hierarchy.
func (b *BaseAdapter) DecodeJSON(resp *http.Response, provider string, out any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return &NetworkError{SDKError: SDKError{Message: "reading response body", Cause: err}}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp, provider, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &SDKError{Message: fmt.Sprintf("decoding %s response", provider), Cause: err}
	}
	return nil
}

// errorFromResponse maps a non-2xx provider response to a structured error.
// It pulls the message out of the common {"error": {"message": ...}} shapes
// and honors a Retry-After header when present.
func errorFromResponse(resp *http.Response, provider string, raw []byte) error {
	message := fmt.Sprintf("%s returned status %d", provider, resp.StatusCode)
	errorCode := ""

	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Code    any    `json:"code"`
			Type    string `json:"type"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &envelope) == nil {
		switch {
		case envelope.Error.Message != "":
			message = envelope.Error.Message
		case envelope.Message != "":
			message = envelope.Message
		}
		if envelope.Error.Type != "" {
			errorCode = envelope.Error.Type
		} else if s, ok := envelope.Error.Code.(string); ok {
			errorCode = s
		}
	}

	retryAfter := parseRetryAfter(resp.Header)
	return ErrorFromStatusCode(resp.StatusCode, message, provider, errorCode, json.RawMessage(raw), retryAfter)
}

// parseRetryAfter extracts a Retry-After header in seconds, or nil if absent.
func parseRetryAfter(headers http.Header) *float64 {
	v := headers.Get("Retry-After")
	if v == "" {
		return nil
	}
	seconds, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &seconds
}
