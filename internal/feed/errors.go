package feed

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure.
type Kind int

const (
	// KindNetworkFailed covers transport errors and timeouts.
	KindNetworkFailed Kind = iota
	// KindRateLimited is HTTP 429.
	KindRateLimited
	// KindServerFault is HTTP >= 500.
	KindServerFault
	// KindFetchFailed is any other non-200 status.
	KindFetchFailed
	// KindParseFailed means the body was not valid JSON. Not retryable:
	// re-fetching malformed content returns the same malformed content.
	KindParseFailed
)

func (k Kind) String() string {
	switch k {
	case KindNetworkFailed:
		return "network_failed"
	case KindRateLimited:
		return "rate_limited"
	case KindServerFault:
		return "server_fault"
	case KindFetchFailed:
		return "fetch_failed"
	case KindParseFailed:
		return "parse_failed"
	}
	return "unknown"
}

// Error is a classified fetch failure.
type Error struct {
	Kind   Kind
	Status int // HTTP status when the failure came from a response
	cause  error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("feed %s: HTTP %d", e.Kind, e.Status)
	}
	if e.cause != nil {
		return fmt.Sprintf("feed %s: %v", e.Kind, e.cause)
	}
	return "feed " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether err is a fetch failure worth another attempt.
// Everything except a parse failure is retryable.
func Retryable(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind != KindParseFailed
	}
	// Plain transport errors from the HTTP client count as network failures.
	return true
}

func statusError(status int) *Error {
	switch {
	case status == 429:
		return &Error{Kind: KindRateLimited, Status: status}
	case status >= 500:
		return &Error{Kind: KindServerFault, Status: status}
	default:
		return &Error{Kind: KindFetchFailed, Status: status}
	}
}
