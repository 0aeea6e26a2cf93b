// ABOUTME: Tests for the Gemini image adapter against an httptest server.
// ABOUTME: Covers inline image output, reference-image requests, content blocks, and empty results.

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

func geminiTestAdapter(t *testing.T, handler http.Handler) *GeminiAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiAdapter("test-key", WithGeminiBaseURL(srv.URL))
}

func TestGeminiGenerateImageInlineData(t *testing.T) {
	adapter := geminiTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("expected query-parameter auth")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{
						{"text": "here is your cat"},
						{"inlineData": map[string]string{
							"mimeType": "image/png",
							"data":     "aGVsbG8=",
						}},
					},
				},
			}},
		})
	}))

	res, err := adapter.GenerateImage(context.Background(), ImageRequest{Prompt: "a cat"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(res.Images) != 1 {
		t.Fatalf("expected one image, got %d", len(res.Images))
	}
	if res.Images[0] != "data:image/png;base64,aGVsbG8=" {
		t.Errorf("unexpected data url %q", res.Images[0])
	}
	if res.Text != "here is your cat" {
		t.Errorf("expected commentary preserved, got %q", res.Text)
	}
}

func TestGeminiSendsReferenceImageAsInlinePart(t *testing.T) {
	adapter := geminiTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body geminiGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		parts := body.Contents[0].Parts
		if len(parts) != 2 {
			t.Fatalf("expected prompt and image parts, got %d", len(parts))
		}
		if parts[1].InlineData == nil || parts[1].InlineData.MimeType != "image/png" {
			t.Errorf("expected inline reference image, got %+v", parts[1])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{
						{"inlineData": map[string]string{"mimeType": "image/png", "data": "YWJj"}},
					},
				},
			}},
		})
	}))

	_, err := adapter.GenerateImage(context.Background(), ImageRequest{
		Prompt:   "add a hat",
		RefImage: tinyPNGDataURL,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
}

func TestGeminiRejectsNonDataURLReference(t *testing.T) {
	adapter := geminiTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid reference")
	}))

	_, err := adapter.GenerateImage(context.Background(), ImageRequest{
		Prompt:   "x",
		RefImage: "https://example.com/cat.png",
	})
	var invalidErr *InvalidRequestError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidRequestError, got %v", err)
	}
}

func TestGeminiBlockedPromptIsContentFilterError(t *testing.T) {
	adapter := geminiTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"promptFeedback": map[string]string{"blockReason": "SAFETY"},
		})
	}))

	_, err := adapter.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	var filterErr *ContentFilterError
	if !errors.As(err, &filterErr) {
		t.Fatalf("expected ContentFilterError, got %v", err)
	}
}

func TestGeminiEmptyCandidatesIsEmptyResult(t *testing.T) {
	adapter := geminiTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))

	_, err := adapter.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	var emptyErr *EmptyResultError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyResultError, got %v", err)
	}
}

func TestGeminiAPIErrorMapped(t *testing.T) {
	adapter := geminiTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "quota exceeded for quota metric"},
		})
	}))

	_, err := adapter.GenerateImage(context.Background(), ImageRequest{Prompt: "x"})
	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if !strings.Contains(rateErr.Message, "quota exceeded") {
		t.Errorf("expected provider message, got %q", rateErr.Message)
	}
}

func TestDecodeDataURL(t *testing.T) {
	mime, payload, err := decodeDataURL("data:image/jpeg;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mime != "image/jpeg" || payload != "aGVsbG8=" {
		t.Errorf("got %q %q", mime, payload)
	}

	if _, _, err := decodeDataURL("data:image/png;base64,!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, _, err := decodeDataURL("data:image/png,plain"); err == nil {
		t.Error("expected error for non-base64 data URL")
	}
}
