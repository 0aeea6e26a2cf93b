// ABOUTME: Kling adapter for text-to-video and image-to-video generation.
// ABOUTME: Submits an async task and polls its status until the video URL is ready.

package media

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const defaultKlingModel = "kling-v1-6"

// KlingAdapter implements VideoProvider against the Kling API. Video
// generation is asynchronous: submit returns a task id, and the adapter polls
// until the task succeeds, fails, or the task budget runs out.
type KlingAdapter struct {
	base         *BaseAdapter
	model        string
	pollInterval time.Duration
}

// KlingOption is a functional option for configuring a KlingAdapter.
type KlingOption func(*KlingAdapter)

// WithKlingBaseURL sets the base URL for the Kling API.
// Default is "https://api.klingai.com".
func WithKlingBaseURL(url string) KlingOption {
	return func(a *KlingAdapter) {
		a.base.BaseURL = url
	}
}

// WithKlingModel overrides the video model.
func WithKlingModel(model string) KlingOption {
	return func(a *KlingAdapter) {
		a.model = model
	}
}

// WithKlingTimeout sets the timeout configuration for the adapter.
func WithKlingTimeout(timeout AdapterTimeout) KlingOption {
	return func(a *KlingAdapter) {
		a.base.Timeout = timeout
		a.base.HTTPClient = &http.Client{
			Timeout: timeout.Request,
		}
	}
}

// WithKlingPollInterval overrides how often task status is checked.
func WithKlingPollInterval(d time.Duration) KlingOption {
	return func(a *KlingAdapter) {
		a.pollInterval = d
	}
}

// NewKlingAdapter creates a KlingAdapter with the given API key and options.
func NewKlingAdapter(apiKey string, opts ...KlingOption) *KlingAdapter {
	adapter := &KlingAdapter{
		base:         NewBaseAdapter(apiKey, "https://api.klingai.com", DefaultAdapterTimeout()),
		model:        defaultKlingModel,
		pollInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

// Name returns the provider name "kling".
func (a *KlingAdapter) Name() string {
	return "kling"
}

// Close releases any resources held by the adapter.
func (a *KlingAdapter) Close() error {
	return nil
}

type klingSubmitRequest struct {
	ModelName string `json:"model_name"`
	Prompt    string `json:"prompt"`
	Image     string `json:"image,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

type klingTaskResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		TaskID        string `json:"task_id"`
		TaskStatus    string `json:"task_status"`
		TaskStatusMsg string `json:"task_status_msg"`
		TaskResult    struct {
			Videos []struct {
				URL string `json:"url"`
			} `json:"videos"`
		} `json:"task_result"`
	} `json:"data"`
}

// GenerateVideo submits a video task and blocks until it completes. A request
// with a first frame goes to the image2video endpoint, otherwise text2video.
func (a *KlingAdapter) GenerateVideo(ctx context.Context, req VideoRequest) (*VideoResult, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	endpoint := "/v1/videos/text2video"
	if req.FirstFrame != "" {
		endpoint = "/v1/videos/image2video"
	}

	body := klingSubmitRequest{
		ModelName: model,
		Prompt:    req.Prompt,
		Image:     req.FirstFrame,
	}
	if req.DurationSec > 0 {
		body.Duration = strconv.Itoa(req.DurationSec)
	}

	httpResp, err := a.base.DoRequest(ctx, http.MethodPost, endpoint, body, nil)
	if err != nil {
		return nil, err
	}
	var submitted klingTaskResponse
	if err := a.base.DecodeJSON(httpResp, a.Name(), &submitted); err != nil {
		return nil, err
	}
	if submitted.Data.TaskID == "" {
		return nil, &SDKError{Message: "kling did not return a task id: " + submitted.Message}
	}

	statusPath := fmt.Sprintf("%s/%s", endpoint, submitted.Data.TaskID)
	url, err := pollTask(ctx, a.pollInterval, a.base.Timeout.Task, func(ctx context.Context) (bool, string, error) {
		return a.checkTask(ctx, statusPath, submitted.Data.TaskID)
	})
	if err != nil {
		return nil, err
	}
	return &VideoResult{URL: url}, nil
}

// checkTask fetches the task status once. Kling reports submitted, processing,
// succeed, or failed.
func (a *KlingAdapter) checkTask(ctx context.Context, path, taskID string) (bool, string, error) {
	httpResp, err := a.base.DoRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return false, "", err
	}
	var status klingTaskResponse
	if err := a.base.DecodeJSON(httpResp, a.Name(), &status); err != nil {
		return false, "", err
	}

	switch status.Data.TaskStatus {
	case "succeed":
		if len(status.Data.TaskResult.Videos) == 0 || status.Data.TaskResult.Videos[0].URL == "" {
			return false, "", &EmptyResultError{SDKError: SDKError{
				Message: "kling task succeeded without a video url",
			}}
		}
		return true, status.Data.TaskResult.Videos[0].URL, nil
	case "failed":
		msg := status.Data.TaskStatusMsg
		if msg == "" {
			msg = "no reason given"
		}
		return false, "", &TaskFailedError{
			SDKError: SDKError{Message: msg},
			Provider: a.Name(),
			TaskID:   taskID,
		}
	default:
		return false, "", nil
	}
}
