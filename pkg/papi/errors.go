package papi

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the single error type surfaced by the request pipeline. HTTP
// failures carry method, URL and the last observed status code; non-HTTP
// failures (decode, validation, credential lookup) carry a message only.
type APIError struct {
	Method     string `json:"method,omitempty"      yaml:"method,omitempty"`
	URL        string `json:"url,omitempty"         yaml:"url,omitempty"`
	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Message    string `json:"message"               yaml:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	}

	if e.Method != "" || e.URL != "" {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
	}

	return e.Message
}

// NewHTTPError builds an APIError for a failed HTTP call.
func NewHTTPError(method, url string, statusCode int, message string) *APIError {
	return &APIError{Method: method, URL: url, StatusCode: statusCode, Message: message}
}

// NewDecodeError builds an APIError for a response that could not be
// decoded. Decode failures are fatal for the call and never retried.
func NewDecodeError(format string, args ...interface{}) *APIError {
	return &APIError{Message: fmt.Sprintf(format, args...)}
}

// Validation errors fail fast before any network call.
var (
	ErrParentRequired          = errors.New("parent reference is required for a non-root entity")
	ErrWorkflowContextRequired = errors.New("exactly one of workflow context id or context name must be supplied")
	ErrUnknownEntityType       = errors.New("entity has no recognized type")
	ErrEntityTypeMismatch      = errors.New("entity is not of the requested type")
)

// Decode errors for required structure that is missing.
var (
	ErrNoGenerations          = errors.New("no generations found for content object")
	ErrGenerationNoAttributes = errors.New("generation element has no original attribute")
)

// Configuration errors.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrAPIEndpointRequired = errors.New("API endpoint is required")
	ErrCredentialsRequired = errors.New("credentials or a credential provider are required")
)

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool {
	return errorHasStatus(err, http.StatusUnauthorized)
}

// IsForbidden reports whether err is an APIError with status 403.
func IsForbidden(err error) bool {
	return errorHasStatus(err, http.StatusForbidden)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	return errorHasStatus(err, http.StatusNotFound)
}

func errorHasStatus(err error, status int) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == status
	}

	return false
}
