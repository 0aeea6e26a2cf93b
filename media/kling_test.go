// ABOUTME: Tests for the Kling video adapter against an httptest server.
// ABOUTME: Covers submit-then-poll success, provider task failure, and the poll budget.

package media

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func klingTestAdapter(t *testing.T, handler http.Handler) *KlingAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewKlingAdapter("test-key",
		WithKlingBaseURL(srv.URL),
		WithKlingPollInterval(time.Millisecond),
	)
}

func TestKlingSubmitThenPollSuccess(t *testing.T) {
	var polls atomic.Int32
	adapter := klingTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/videos/text2video":
			var body klingSubmitRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decoding submit body: %v", err)
			}
			if body.Prompt != "waves at dusk" || body.Duration != "5" {
				t.Errorf("unexpected submit body: %+v", body)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"code": 0,
				"data": map[string]any{"task_id": "task-42"},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/videos/text2video/task-42":
			status := "processing"
			var result map[string]any
			if polls.Add(1) >= 3 {
				status = "succeed"
				result = map[string]any{
					"videos": []map[string]string{{"url": "https://cdn.kling/clip.mp4"}},
				}
			}
			json.NewEncoder(w).Encode(map[string]any{
				"code": 0,
				"data": map[string]any{
					"task_id":     "task-42",
					"task_status": status,
					"task_result": result,
				},
			})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	res, err := adapter.GenerateVideo(context.Background(), VideoRequest{
		Prompt:      "waves at dusk",
		DurationSec: 5,
	})
	if err != nil {
		t.Fatalf("generate video: %v", err)
	}
	if res.URL != "https://cdn.kling/clip.mp4" {
		t.Errorf("unexpected url %q", res.URL)
	}
	if polls.Load() < 3 {
		t.Errorf("expected at least 3 polls, got %d", polls.Load())
	}
}

func TestKlingFirstFrameRoutesToImage2Video(t *testing.T) {
	adapter := klingTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path != "/v1/videos/image2video" {
			t.Errorf("expected image2video endpoint, got %s", r.URL.Path)
		}
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
				"task_id":     "t1",
				"task_status": "succeed",
				"task_result": map[string]any{
					"videos": []map[string]string{{"url": "https://cdn.kling/v.mp4"}},
				},
			},
		})
	}))

	_, err := adapter.GenerateVideo(context.Background(), VideoRequest{
		Prompt:     "animate this",
		FirstFrame: "https://cdn.example/frame.png",
	})
	if err != nil {
		t.Fatalf("generate video: %v", err)
	}
}

func TestKlingTaskFailureSurfacesReason(t *testing.T) {
	adapter := klingTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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
				"task_id":         "t1",
				"task_status":     "failed",
				"task_status_msg": "prompt rejected by moderation",
			},
		})
	}))

	_, err := adapter.GenerateVideo(context.Background(), VideoRequest{Prompt: "x"})
	var taskErr *TaskFailedError
	if !errors.As(err, &taskErr) {
		t.Fatalf("expected TaskFailedError, got %v", err)
	}
	if !strings.Contains(taskErr.Message, "prompt rejected") {
		t.Errorf("expected provider reason, got %q", taskErr.Message)
	}
	if taskErr.TaskID != "t1" {
		t.Errorf("expected task id carried, got %q", taskErr.TaskID)
	}
}

func TestKlingPollBudgetExpires(t *testing.T) {
	adapter := klingTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(map[string]any{
				"code": 0,
				"data": map[string]any{"task_id": "t1"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"task_id": "t1", "task_status": "processing"},
		})
	}))
	adapter.base.Timeout.Task = 20 * time.Millisecond

	_, err := adapter.GenerateVideo(context.Background(), VideoRequest{Prompt: "x"})
	var timeoutErr *RequestTimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected RequestTimeoutError when the poll budget runs out, got %v", err)
	}
}

func TestKlingSubmitErrorMapped(t *testing.T) {
	adapter := klingTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"message": "invalid api key",
		})
	}))

	_, err := adapter.GenerateVideo(context.Background(), VideoRequest{Prompt: "x"})
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if authErr.Provider != "kling" {
		t.Errorf("expected provider tagged, got %q", authErr.Provider)
	}
}
