// ABOUTME: Error hierarchy for the media provider SDK.
// ABOUTME: Structured error types for provider, network, and SDK-level failures with retryability and user-facing messages.

package media

import (
	"encoding/json"
)

// SDKError is the base error type for all errors in the media SDK.
// All other error types embed SDKError either directly or transitively.
type SDKError struct {
	Message string
	Cause   error
}

func (e *SDKError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *SDKError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns false for the base SDKError. Subtypes override this.
func (e *SDKError) IsRetryable() bool {
	return false
}

// UserMessage returns the text shown on a failed node. The base type exposes
// the raw message; subtypes override with friendlier phrasing.
func (e *SDKError) UserMessage() string {
	return e.Message
}

// ProviderError represents an error returned by a media provider's API.
// It carries provider-specific metadata including status code, error code, and raw response.
type ProviderError struct {
	SDKError
	Provider   string
	StatusCode int
	ErrorCode  string
	Retryable  bool
	RetryAfter *float64
	Raw        json.RawMessage
}

func (e *ProviderError) Error() string {
	return e.SDKError.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.SDKError.Unwrap()
}

// IsRetryable returns the Retryable flag set on the provider error.
func (e *ProviderError) IsRetryable() bool {
	return e.Retryable
}

// As enables errors.As to match SDKError from a ProviderError.
func (e *ProviderError) As(target any) bool {
	switch t := target.(type) {
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// AuthenticationError represents a 401 Unauthorized response. Not retryable.
type AuthenticationError struct {
	ProviderError
}

func (e *AuthenticationError) Error() string     { return e.ProviderError.Error() }
func (e *AuthenticationError) Unwrap() error     { return e.ProviderError.Unwrap() }
func (e *AuthenticationError) IsRetryable() bool { return false }
func (e *AuthenticationError) UserMessage() string {
	return "The provider rejected our credentials. Check the API key in settings."
}

func (e *AuthenticationError) As(target any) bool {
	switch t := target.(type) {
	case **ProviderError:
		*t = &e.ProviderError
		return true
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// AccessDeniedError represents a 403 Forbidden response. Not retryable.
type AccessDeniedError struct {
	ProviderError
}

func (e *AccessDeniedError) Error() string     { return e.ProviderError.Error() }
func (e *AccessDeniedError) Unwrap() error     { return e.ProviderError.Unwrap() }
func (e *AccessDeniedError) IsRetryable() bool { return false }
func (e *AccessDeniedError) UserMessage() string {
	return "The provider refused this request. Your account may not have access to this model."
}

func (e *AccessDeniedError) As(target any) bool {
	switch t := target.(type) {
	case **ProviderError:
		*t = &e.ProviderError
		return true
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// InvalidRequestError represents a 400 or 422 response. Not retryable.
type InvalidRequestError struct {
	ProviderError
}

func (e *InvalidRequestError) Error() string     { return e.ProviderError.Error() }
func (e *InvalidRequestError) Unwrap() error     { return e.ProviderError.Unwrap() }
func (e *InvalidRequestError) IsRetryable() bool { return false }
func (e *InvalidRequestError) UserMessage() string {
	return "The provider could not process this request. Try adjusting the prompt or inputs."
}

func (e *InvalidRequestError) As(target any) bool {
	switch t := target.(type) {
	case **ProviderError:
		*t = &e.ProviderError
		return true
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// NotFoundError represents a 404 Not Found response. Not retryable.
type NotFoundError struct {
	ProviderError
}

func (e *NotFoundError) Error() string     { return e.ProviderError.Error() }
func (e *NotFoundError) Unwrap() error     { return e.ProviderError.Unwrap() }
func (e *NotFoundError) IsRetryable() bool { return false }
func (e *NotFoundError) UserMessage() string {
	return "The requested model or resource was not found."
}

func (e *NotFoundError) As(target any) bool {
	switch t := target.(type) {
	case **ProviderError:
		*t = &e.ProviderError
		return true
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// RateLimitError represents a 429 Too Many Requests response. Retryable.
type RateLimitError struct {
	ProviderError
}

func (e *RateLimitError) Error() string     { return e.ProviderError.Error() }
func (e *RateLimitError) Unwrap() error     { return e.ProviderError.Unwrap() }
func (e *RateLimitError) IsRetryable() bool { return true }
func (e *RateLimitError) UserMessage() string {
	return "The provider is rate limiting us. Wait a moment and run again."
}

func (e *RateLimitError) As(target any) bool {
	switch t := target.(type) {
	case **ProviderError:
		*t = &e.ProviderError
		return true
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// ServerError represents a 5xx server error response. Retryable.
type ServerError struct {
	ProviderError
}

func (e *ServerError) Error() string     { return e.ProviderError.Error() }
func (e *ServerError) Unwrap() error     { return e.ProviderError.Unwrap() }
func (e *ServerError) IsRetryable() bool { return true }
func (e *ServerError) UserMessage() string {
	return "The provider had an internal error. Run again in a moment."
}

func (e *ServerError) As(target any) bool {
	switch t := target.(type) {
	case **ProviderError:
		*t = &e.ProviderError
		return true
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// ContentFilterError represents a content moderation rejection. Not retryable.
type ContentFilterError struct {
	ProviderError
}

func (e *ContentFilterError) Error() string     { return e.ProviderError.Error() }
func (e *ContentFilterError) Unwrap() error     { return e.ProviderError.Unwrap() }
func (e *ContentFilterError) IsRetryable() bool { return false }
func (e *ContentFilterError) UserMessage() string {
	return "The prompt was blocked by the provider's content filter. Rephrase and try again."
}

func (e *ContentFilterError) As(target any) bool {
	switch t := target.(type) {
	case **ProviderError:
		*t = &e.ProviderError
		return true
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// QuotaExceededError represents a provider-side quota exhaustion. Not retryable.
type QuotaExceededError struct {
	ProviderError
}

func (e *QuotaExceededError) Error() string     { return e.ProviderError.Error() }
func (e *QuotaExceededError) Unwrap() error     { return e.ProviderError.Unwrap() }
func (e *QuotaExceededError) IsRetryable() bool { return false }
func (e *QuotaExceededError) UserMessage() string {
	return "The provider quota for this account is exhausted."
}

func (e *QuotaExceededError) As(target any) bool {
	switch t := target.(type) {
	case **ProviderError:
		*t = &e.ProviderError
		return true
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// RequestTimeoutError represents a request timeout (408 or client-side). Retryable.
type RequestTimeoutError struct {
	SDKError
}

func (e *RequestTimeoutError) Error() string     { return e.SDKError.Error() }
func (e *RequestTimeoutError) Unwrap() error     { return e.SDKError.Unwrap() }
func (e *RequestTimeoutError) IsRetryable() bool { return true }
func (e *RequestTimeoutError) UserMessage() string {
	return "The generation timed out. Run again to retry."
}

func (e *RequestTimeoutError) As(target any) bool {
	switch t := target.(type) {
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// NetworkError represents a network-level failure (DNS, connection refused, etc.). Retryable.
type NetworkError struct {
	SDKError
}

func (e *NetworkError) Error() string     { return e.SDKError.Error() }
func (e *NetworkError) Unwrap() error     { return e.SDKError.Unwrap() }
func (e *NetworkError) IsRetryable() bool { return true }
func (e *NetworkError) UserMessage() string {
	return "Could not reach the provider. Check the network connection and run again."
}

func (e *NetworkError) As(target any) bool {
	switch t := target.(type) {
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// EmptyResultError represents a provider call that succeeded at the HTTP level
// but returned no usable asset. Retryable with a fixed short delay.
type EmptyResultError struct {
	SDKError
}

func (e *EmptyResultError) Error() string     { return e.SDKError.Error() }
func (e *EmptyResultError) Unwrap() error     { return e.SDKError.Unwrap() }
func (e *EmptyResultError) IsRetryable() bool { return true }
func (e *EmptyResultError) UserMessage() string {
	return "The provider returned no output. Run again to retry."
}

func (e *EmptyResultError) As(target any) bool {
	switch t := target.(type) {
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// TaskFailedError represents an async generation task the provider reported
// as failed. Not retryable; the failure reason comes from the provider.
type TaskFailedError struct {
	SDKError
	Provider string
	TaskID   string
}

func (e *TaskFailedError) Error() string     { return e.SDKError.Error() }
func (e *TaskFailedError) Unwrap() error     { return e.SDKError.Unwrap() }
func (e *TaskFailedError) IsRetryable() bool { return false }
func (e *TaskFailedError) UserMessage() string {
	return "The generation task failed on the provider side: " + e.Message
}

func (e *TaskFailedError) As(target any) bool {
	switch t := target.(type) {
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// ConfigurationError represents an SDK configuration problem (missing API key, etc.). Not retryable.
type ConfigurationError struct {
	SDKError
}

func (e *ConfigurationError) Error() string     { return e.SDKError.Error() }
func (e *ConfigurationError) Unwrap() error     { return e.SDKError.Unwrap() }
func (e *ConfigurationError) IsRetryable() bool { return false }
func (e *ConfigurationError) UserMessage() string {
	return "This provider is not configured. Add its API key in settings."
}

func (e *ConfigurationError) As(target any) bool {
	switch t := target.(type) {
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// ErrorFromStatusCode maps an HTTP status code to the appropriate error type.
// For unknown status codes, it returns a ProviderError with Retryable=true as a
// conservative default (unknown errors are assumed transient).
func ErrorFromStatusCode(statusCode int, message, provider, errorCode string, raw json.RawMessage, retryAfter *float64) error {
	base := ProviderError{
		SDKError:   SDKError{Message: message},
		Provider:   provider,
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Raw:        raw,
		RetryAfter: retryAfter,
	}

	switch {
	case statusCode == 400:
		base.Retryable = false
		return &InvalidRequestError{ProviderError: base}
	case statusCode == 401:
		base.Retryable = false
		return &AuthenticationError{ProviderError: base}
	case statusCode == 403:
		base.Retryable = false
		return &AccessDeniedError{ProviderError: base}
	case statusCode == 404:
		base.Retryable = false
		return &NotFoundError{ProviderError: base}
	case statusCode == 408:
		return &RequestTimeoutError{SDKError: SDKError{Message: message}}
	case statusCode == 422:
		base.Retryable = false
		return &InvalidRequestError{ProviderError: base}
	case statusCode == 429:
		base.Retryable = true
		return &RateLimitError{ProviderError: base}
	case statusCode >= 500 && statusCode <= 599:
		base.Retryable = true
		return &ServerError{ProviderError: base}
	default:
		base.Retryable = true
		return &base
	}
}
