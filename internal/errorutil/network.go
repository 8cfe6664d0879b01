package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	neturl "net/url"
	"strings"
)

// NetworkError represents a failed request to an upstream service with
// enough context to decide whether retrying is worthwhile.
type NetworkError struct {
	Operation  string // The operation that failed (e.g., "reverse geocoding")
	URL        string // The endpoint that was being accessed
	StatusCode int    // HTTP status code (if applicable)
	Underlying error  // The underlying error
	Retryable  bool   // Whether this error is retryable
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s failed for %s: HTTP %d", e.Operation, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s failed for %s: %v", e.Operation, e.URL, e.Underlying)
}

func (e *NetworkError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns whether the error suggests retrying might be worthwhile
func (e *NetworkError) IsRetryable() bool {
	return e.Retryable
}

// NewNetworkError wraps a transport-level failure. Cancellation is never
// retryable: it means a newer request superseded this one.
func NewNetworkError(operation, url string, err error) *NetworkError {
	return &NetworkError{
		Operation:  operation,
		URL:        url,
		Underlying: err,
		Retryable:  isRetryableError(err),
	}
}

// NewStatusError wraps a non-2xx response. Server errors and rate limits are
// retryable; client errors are not.
func NewStatusError(operation, url string, statusCode int) *NetworkError {
	return &NetworkError{
		Operation:  operation,
		URL:        url,
		StatusCode: statusCode,
		Retryable:  isRetryableStatus(statusCode),
	}
}

// Retryable reports whether err is a network error that may succeed on retry.
func Retryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Retryable
	}
	return false
}

// isRetryableError determines if an error is likely to be resolved by retrying
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	// Network timeout errors are usually retryable
	if isTimeoutError(err) {
		return true
	}

	// DNS errors might be temporary
	if isDNSError(err) {
		return true
	}

	// Connection refused might be temporary (service starting up)
	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset")
}

// isRetryableStatus reports whether an HTTP status suggests retrying
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// isTimeoutError checks if an error is a timeout error
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// isDNSError checks if an error is a DNS resolution error
func isDNSError(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return errors.As(urlErr.Err, &dnsErr)
	}

	return false
}
