package errors

import (
	stderrors "errors"
	"fmt"
)

// APIError is the structured failure for any completed HTTP exchange with a
// non-2xx status. It is constructed only by the request pipeline; transport
// faults (no response at all) are never wrapped into it and keep their
// original type.
type APIError struct {
	Message    string
	StatusCode int
	Code       string
	Details    any
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (status %d, code %s)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func NewAPIError(message string, statusCode int) *APIError {
	return &APIError{
		Message:    message,
		StatusCode: statusCode,
	}
}

// AsAPIError reports whether err originated from a completed exchange and, if
// so, returns its structured form. Callers use this to branch on status codes
// while letting transport faults fall through.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsStatus reports whether err is an APIError carrying the given HTTP status.
func IsStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == status
}
