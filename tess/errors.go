package tess

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies upstream failures so the dispatcher can tell a bad request
// from an outage or a credential problem.
type Kind int

const (
	KindUpstream Kind = iota
	KindAuth
	KindPermission
	KindNotFound
)

// APIError carries the upstream HTTP status and message for a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Kind       Kind
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tess: upstream returned %v", e.StatusCode)
	}
	return fmt.Sprintf("tess: upstream returned %v: %v", e.StatusCode, e.Message)
}

// TransientError wraps a connection-level failure; the execution monitor
// retries these, everything else is surfaced immediately.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("tess: transient network failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func newAPIError(statusCode int, message string) *APIError {
	kind := KindUpstream
	switch statusCode {
	case http.StatusUnauthorized:
		kind = KindAuth
	case http.StatusForbidden:
		kind = KindPermission
	case http.StatusNotFound:
		kind = KindNotFound
	}
	return &APIError{StatusCode: statusCode, Message: message, Kind: kind}
}

// IsAuth reports whether err is a credential rejection (401 or 403).
func IsAuth(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindAuth || apiErr.Kind == KindPermission
	}
	return false
}

// IsNotFound reports whether err maps to an unknown upstream resource.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindNotFound
	}
	return false
}

// IsTransient reports whether err is retryable by the execution monitor.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}
