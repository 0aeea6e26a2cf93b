// ABOUTME: Tests for the storage client: data-URL uploads and frame extraction.
// ABOUTME: Verifies the multipart form shape the storage service expects.

package media

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// 1x1 transparent PNG
const tinyPNGDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func storageTestClient(t *testing.T, handler http.Handler) *StorageClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStorageClient("test-key", srv.URL)
}

func TestStorageUploadDataURL(t *testing.T) {
	client := storageTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/assets" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer file.Close()
		raw, _ := io.ReadAll(file)
		if len(raw) == 0 {
			t.Error("expected decoded payload bytes")
		}
		if header.Filename != "asset.png" {
			t.Errorf("expected png filename, got %q", header.Filename)
		}
		if got := r.FormValue("hint"); got != "node-1" {
			t.Errorf("expected hint field, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"url": "https://cdn.example/stored.png"})
	}))

	url, err := client.Upload(context.Background(), tinyPNGDataURL, "node-1")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://cdn.example/stored.png" {
		t.Errorf("unexpected url %q", url)
	}
}

func TestStorageUploadRejectsNonDataURL(t *testing.T) {
	client := storageTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid input")
	}))

	_, err := client.Upload(context.Background(), "https://already-hosted.example/a.png", "")
	var invalidErr *InvalidRequestError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidRequestError, got %v", err)
	}
}

func TestStorageExtractFrame(t *testing.T) {
	client := storageTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/frames" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body frameRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding frame request: %v", err)
		}
		if body.VideoURL != "https://cdn.example/clip.mp4" || body.AtSec != 0 {
			t.Errorf("unexpected frame request: %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"url": "https://cdn.example/frame.png"})
	}))

	url, err := client.ExtractFrame(context.Background(), "https://cdn.example/clip.mp4", 0)
	if err != nil {
		t.Fatalf("extract frame: %v", err)
	}
	if url != "https://cdn.example/frame.png" {
		t.Errorf("unexpected url %q", url)
	}
}

func TestStorageServerErrorMapped(t *testing.T) {
	client := storageTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "disk full"})
	}))

	_, err := client.Upload(context.Background(), tinyPNGDataURL, "")
	var srvErr *ServerError
	if !errors.As(err, &srvErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
}
