// ABOUTME: Tests for the media SDK error hierarchy: status mapping, retryability, and unwrapping.
// ABOUTME: Also pins the user-facing messages surfaced on failed nodes.

package media

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorFromStatusCodeMapping(t *testing.T) {
	cases := []struct {
		status    int
		wantType  string
		retryable bool
	}{
		{400, "*media.InvalidRequestError", false},
		{401, "*media.AuthenticationError", false},
		{403, "*media.AccessDeniedError", false},
		{404, "*media.NotFoundError", false},
		{408, "*media.RequestTimeoutError", true},
		{422, "*media.InvalidRequestError", false},
		{429, "*media.RateLimitError", true},
		{500, "*media.ServerError", true},
		{503, "*media.ServerError", true},
	}

	for _, tc := range cases {
		err := ErrorFromStatusCode(tc.status, "boom", "test", "", nil, nil)
		if err == nil {
			t.Fatalf("status %d: expected an error", tc.status)
		}

		type retryable interface{ IsRetryable() bool }
		r, ok := err.(retryable)
		if !ok {
			t.Fatalf("status %d: error does not expose IsRetryable", tc.status)
		}
		if r.IsRetryable() != tc.retryable {
			t.Errorf("status %d: expected retryable=%v", tc.status, tc.retryable)
		}
	}
}

func TestErrorFromStatusCodeUnknownIsRetryable(t *testing.T) {
	err := ErrorFromStatusCode(418, "teapot", "test", "", nil, nil)
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatal("expected a ProviderError for unknown status")
	}
	if !pe.IsRetryable() {
		t.Error("unknown status codes should default to retryable")
	}
}

func TestProviderErrorUnwrapsToSDKError(t *testing.T) {
	err := ErrorFromStatusCode(429, "slow down", "kling", "rate_limited", nil, nil)

	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatal("expected RateLimitError")
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatal("expected errors.As to reach the embedded ProviderError")
	}
	if pe.Provider != "kling" || pe.StatusCode != 429 || pe.ErrorCode != "rate_limited" {
		t.Errorf("provider metadata lost: %+v", pe)
	}
	var se *SDKError
	if !errors.As(err, &se) {
		t.Fatal("expected errors.As to reach the base SDKError")
	}
	if se.Message != "slow down" {
		t.Errorf("expected base message preserved, got %q", se.Message)
	}
}

func TestUserMessagesAreFriendly(t *testing.T) {
	type userFacing interface{ UserMessage() string }

	cases := []struct {
		err  error
		want string
	}{
		{ErrorFromStatusCode(401, "invalid x-api-key header", "openai", "", nil, nil), "credentials"},
		{ErrorFromStatusCode(429, "tokens exhausted", "openai", "", nil, nil), "rate limiting"},
		{ErrorFromStatusCode(500, "internal", "gemini", "", nil, nil), "internal error"},
		{&ContentFilterError{ProviderError: ProviderError{SDKError: SDKError{Message: "blocked"}}}, "content filter"},
		{&EmptyResultError{SDKError: SDKError{Message: "no output"}}, "no output"},
		{&ConfigurationError{SDKError: SDKError{Message: "no key"}}, "not configured"},
	}

	for _, tc := range cases {
		uf, ok := tc.err.(userFacing)
		if !ok {
			t.Fatalf("%T does not expose UserMessage", tc.err)
		}
		if !strings.Contains(uf.UserMessage(), tc.want) {
			t.Errorf("%T: expected user message to mention %q, got %q", tc.err, tc.want, uf.UserMessage())
		}
	}
}

func TestUserMessageHidesRawProviderDetail(t *testing.T) {
	err := ErrorFromStatusCode(401, "invalid api key sk-abc123", "openai", "", nil, nil)
	type userFacing interface{ UserMessage() string }
	uf := err.(userFacing)
	if strings.Contains(uf.UserMessage(), "sk-abc123") {
		t.Error("user message must not leak raw provider detail")
	}
	if !strings.Contains(err.Error(), "sk-abc123") {
		t.Error("developer-facing Error() should keep the raw detail")
	}
}

func TestTaskFailedErrorCarriesReason(t *testing.T) {
	err := &TaskFailedError{
		SDKError: SDKError{Message: "prompt rejected"},
		Provider: "kling",
		TaskID:   "task-1",
	}
	if err.IsRetryable() {
		t.Error("failed tasks are not retryable")
	}
	if !strings.Contains(err.UserMessage(), "prompt rejected") {
		t.Errorf("expected provider reason in user message, got %q", err.UserMessage())
	}
}
