// ABOUTME: Tripo adapter for image-to-3D model generation.
// ABOUTME: Submits an async conversion task and polls until the model asset URL is ready.

package media

import (
	"context"
	"net/http"
	"time"
)

// TripoAdapter turns a 2D image into a 3D model asset through the Tripo API.
// Like video generation this runs as an async task with polling.
type TripoAdapter struct {
	base         *BaseAdapter
	pollInterval time.Duration
}

// TripoOption is a functional option for configuring a TripoAdapter.
type TripoOption func(*TripoAdapter)

// WithTripoBaseURL sets the base URL for the Tripo API.
// Default is "https://api.tripo3d.ai".
func WithTripoBaseURL(url string) TripoOption {
	return func(a *TripoAdapter) {
		a.base.BaseURL = url
	}
}

// WithTripoTimeout sets the timeout configuration for the adapter.
func WithTripoTimeout(timeout AdapterTimeout) TripoOption {
	return func(a *TripoAdapter) {
		a.base.Timeout = timeout
		a.base.HTTPClient = &http.Client{
			Timeout: timeout.Request,
		}
	}
}

// WithTripoPollInterval overrides how often task status is checked.
func WithTripoPollInterval(d time.Duration) TripoOption {
	return func(a *TripoAdapter) {
		a.pollInterval = d
	}
}

// NewTripoAdapter creates a TripoAdapter with the given API key and options.
func NewTripoAdapter(apiKey string, opts ...TripoOption) *TripoAdapter {
	adapter := &TripoAdapter{
		base:         NewBaseAdapter(apiKey, "https://api.tripo3d.ai", DefaultAdapterTimeout()),
		pollInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

// Name returns the provider name "tripo".
func (a *TripoAdapter) Name() string {
	return "tripo"
}

// Close releases any resources held by the adapter.
func (a *TripoAdapter) Close() error {
	return nil
}

type tripoSubmitRequest struct {
	Type string        `json:"type"`
	File tripoFileSpec `json:"file"`
}

type tripoFileSpec struct {
	URL string `json:"url"`
}

type tripoTaskResponse struct {
	Code int `json:"code"`
	Data struct {
		TaskID   string `json:"task_id"`
		Status   string `json:"status"`
		Progress int    `json:"progress"`
		Output   struct {
			PBRModel string `json:"pbr_model"`
			Model    string `json:"model"`
		} `json:"output"`
	} `json:"data"`
	Message string `json:"message"`
}

// BuildModel submits an image_to_model task and blocks until the model asset
// is ready. imageURL must be a durable URL the provider can fetch.
func (a *TripoAdapter) BuildModel(ctx context.Context, imageURL string) (string, error) {
	body := tripoSubmitRequest{
		Type: "image_to_model",
		File: tripoFileSpec{URL: imageURL},
	}

	httpResp, err := a.base.DoRequest(ctx, http.MethodPost, "/v2/openapi/task", body, nil)
	if err != nil {
		return "", err
	}
	var submitted tripoTaskResponse
	if err := a.base.DecodeJSON(httpResp, a.Name(), &submitted); err != nil {
		return "", err
	}
	if submitted.Data.TaskID == "" {
		return "", &SDKError{Message: "tripo did not return a task id: " + submitted.Message}
	}

	return pollTask(ctx, a.pollInterval, a.base.Timeout.Task, func(ctx context.Context) (bool, string, error) {
		return a.checkTask(ctx, submitted.Data.TaskID)
	})
}

// checkTask fetches the task status once. Tripo reports queued, running,
// success, failed, or banned.
func (a *TripoAdapter) checkTask(ctx context.Context, taskID string) (bool, string, error) {
	httpResp, err := a.base.DoRequest(ctx, http.MethodGet, "/v2/openapi/task/"+taskID, nil, nil)
	if err != nil {
		return false, "", err
	}
	var status tripoTaskResponse
	if err := a.base.DecodeJSON(httpResp, a.Name(), &status); err != nil {
		return false, "", err
	}

	switch status.Data.Status {
	case "success":
		url := status.Data.Output.PBRModel
		if url == "" {
			url = status.Data.Output.Model
		}
		if url == "" {
			return false, "", &EmptyResultError{SDKError: SDKError{
				Message: "tripo task succeeded without a model url",
			}}
		}
		return true, url, nil
	case "failed", "banned", "cancelled":
		return false, "", &TaskFailedError{
			SDKError: SDKError{Message: "task " + status.Data.Status},
			Provider: a.Name(),
			TaskID:   taskID,
		}
	default:
		return false, "", nil
	}
}
