// ABOUTME: Tests for the OpenAI adapter: image generation and prompt optimization.
// ABOUTME: Points the official SDK at an httptest server via the base URL option.

package media

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func openAITestAdapter(t *testing.T, handler http.Handler) *OpenAIAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIAdapter("test-key", WithOpenAIBaseURL(srv.URL))
}

func TestOpenAIGenerateImageReturnsDataURLs(t *testing.T) {
	adapter := openAITestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/images/generations") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if body["prompt"] != "a red fox" {
			t.Errorf("unexpected prompt %v", body["prompt"])
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"created": 1700000000,
			"data": []map[string]string{
				{"b64_json": "aW1hZ2U="},
			},
		})
	}))

	res, err := adapter.GenerateImage(context.Background(), ImageRequest{Prompt: "a red fox"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(res.Images) != 1 {
		t.Fatalf("expected one image, got %d", len(res.Images))
	}
	if res.Images[0] != "data:image/png;base64,aW1hZ2U=" {
		t.Errorf("unexpected data url %q", res.Images[0])
	}
}

func TestOpenAIRejectsReferenceImages(t *testing.T) {
	adapter := NewOpenAIAdapter("test-key")

	_, err := adapter.GenerateImage(context.Background(), ImageRequest{
		Prompt:   "x",
		RefImage: tinyPNGDataURL,
	})
	var invalidErr *InvalidRequestError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidRequestError, got %v", err)
	}
}

func TestOpenAIEmptyImageDataIsEmptyResult(t *testing.T) {
	adapter := openAITestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"created": 1700000000,
			"data":    []any{},
		})
	}))

	_, err := adapter.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	var emptyErr *EmptyResultError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyResultError, got %v", err)
	}
}

func TestOpenAIOptimizePrompt(t *testing.T) {
	adapter := openAITestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": "a red fox in golden hour light, shallow depth of field",
				},
			}},
		})
	}))

	got, err := adapter.OptimizePrompt(context.Background(), "a fox")
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if !strings.Contains(got, "golden hour") {
		t.Errorf("unexpected optimization %q", got)
	}
}

func TestOpenAIEmptyOptimizationIsEmptyResult(t *testing.T) {
	adapter := openAITestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"choices": []any{},
		})
	}))

	_, err := adapter.OptimizePrompt(context.Background(), "a fox")
	var emptyErr *EmptyResultError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyResultError, got %v", err)
	}
}

func TestSizeForAspectRatio(t *testing.T) {
	if sizeForAspectRatio("1:1") == "" {
		t.Error("expected a size for 1:1")
	}
	if sizeForAspectRatio("16:9") != sizeForAspectRatio("3:2") {
		t.Error("landscape ratios should share a size")
	}
	if sizeForAspectRatio("weird") != "" {
		t.Error("unknown ratios fall back to provider default")
	}
}
