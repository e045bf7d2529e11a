package cloud

import (
	"errors"
	"fmt"
	"time"
)

// Kind tags the variant of an Error. Kinds are string codes so they read
// well in logs and JSON.
type Kind string

const (
	// KindAuthentication covers 401/403: bad key or missing permission.
	KindAuthentication Kind = "AUTHENTICATION"
	// KindRateLimit is a 429 with an optional server-provided wait.
	KindRateLimit Kind = "RATE_LIMIT"
	// KindServer is any 5xx response.
	KindServer Kind = "SERVER_ERROR"
	// KindAPI is any other non-success response (malformed request etc).
	KindAPI Kind = "API_ERROR"
	// KindConfig is a local configuration or credential problem.
	KindConfig Kind = "CONFIGURATION"
	// KindNetwork is a transport failure before a response was received.
	KindNetwork Kind = "NETWORK"
)

// Error is the single error type returned by the cloud client. Fields other
// than Kind and Message are only meaningful for some kinds: Status for
// server/API errors, Wait and Attempt for rate limiting.
type Error struct {
	Kind    Kind
	Status  int
	Wait    time.Duration
	Attempt int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAuthentication:
		return "authentication failed: " + e.Message
	case KindRateLimit:
		return fmt.Sprintf("rate limit exceeded, retry in %s (attempt %d)", e.Wait, e.Attempt)
	case KindServer:
		return fmt.Sprintf("server error: %d - %s", e.Status, e.Message)
	case KindAPI:
		if e.Status != 0 {
			return fmt.Sprintf("API error: status %d: %s", e.Status, e.Message)
		}
		return "API error: " + e.Message
	case KindConfig:
		return "configuration error: " + e.Message
	case KindNetwork:
		return "network error: " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the request may succeed if sent again.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindServer, KindNetwork:
		return true
	}
	return false
}

// RetryAfter returns the server-requested wait for rate-limit errors.
func (e *Error) RetryAfter() (time.Duration, bool) {
	if e.Kind != KindRateLimit || e.Wait <= 0 {
		return 0, false
	}
	return e.Wait, true
}

// NewAuthenticationError reports a 401/403 response.
func NewAuthenticationError(msg string) *Error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

// NewRateLimitError reports a 429 response.
func NewRateLimitError(retryAfter time.Duration, attempt int) *Error {
	return &Error{Kind: KindRateLimit, Wait: retryAfter, Attempt: attempt}
}

// NewServerError reports a 5xx response.
func NewServerError(status int, msg string) *Error {
	return &Error{Kind: KindServer, Status: status, Message: msg}
}

// NewAPIError reports a non-retryable API failure.
func NewAPIError(status int, msg string) *Error {
	return &Error{Kind: KindAPI, Status: status, Message: msg}
}

// NewConfigError reports missing or invalid local configuration.
func NewConfigError(msg string) *Error {
	return &Error{Kind: KindConfig, Message: msg}
}

// NewNetworkError wraps a transport failure.
func NewNetworkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err's chain contains an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
