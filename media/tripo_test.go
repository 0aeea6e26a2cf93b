// ABOUTME: Tests for the Tripo image-to-3D adapter against an httptest server.
// ABOUTME: Covers poll-to-success, model URL fallback, and failed tasks.

package media

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func tripoTestAdapter(t *testing.T, handler http.Handler) *TripoAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTripoAdapter("test-key",
		WithTripoBaseURL(srv.URL),
		WithTripoPollInterval(time.Millisecond),
	)
}

func TestTripoBuildModelSuccess(t *testing.T) {
	var polls atomic.Int32
	adapter := tripoTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/openapi/task":
			var body tripoSubmitRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decoding submit body: %v", err)
			}
			if body.Type != "image_to_model" || body.File.URL != "https://cdn.example/cat.png" {
				t.Errorf("unexpected submit body: %+v", body)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"code": 0,
				"data": map[string]any{"task_id": "t9"},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/v2/openapi/task/t9":
			status := "running"
			output := map[string]string{}
			if polls.Add(1) >= 2 {
				status = "success"
				output["pbr_model"] = "https://cdn.tripo/model.glb"
			}
			json.NewEncoder(w).Encode(map[string]any{
				"code": 0,
				"data": map[string]any{
					"task_id": "t9",
					"status":  status,
					"output":  output,
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	url, err := adapter.BuildModel(context.Background(), "https://cdn.example/cat.png")
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	if url != "https://cdn.tripo/model.glb" {
		t.Errorf("unexpected model url %q", url)
	}
}

func TestTripoFallsBackToPlainModelURL(t *testing.T) {
	adapter := tripoTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{
				"code": 0,
				"data": map[string]any{"task_id": "t1"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{
				"task_id": "t1",
				"status":  "success",
				"output":  map[string]string{"model": "https://cdn.tripo/plain.glb"},
			},
		})
	}))

	url, err := adapter.BuildModel(context.Background(), "https://cdn.example/cat.png")
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	if url != "https://cdn.tripo/plain.glb" {
		t.Errorf("unexpected model url %q", url)
	}
}

func TestTripoFailedTask(t *testing.T) {
	adapter := tripoTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{
				"code": 0,
				"data": map[string]any{"task_id": "t1"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"task_id": "t1", "status": "failed"},
		})
	}))

	_, err := adapter.BuildModel(context.Background(), "https://cdn.example/cat.png")
	var taskErr *TaskFailedError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected TaskFailedError, got %v", err)
	}
}
