package flickr

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when no API key is available. No request is
// ever sent without one.
var ErrNotConfigured = errors.New("flickr API key is not configured")

// errAbsent marks an unknown user in a findByUsername answer.
var errAbsent = errors.New("not found")

// codeNotFound is the findByUsername failure code for "user not found".
// photos.search uses the same code for a rejected query.
const codeNotFound = 1

// HTTPError is a transport level failure: the API answered with a non-200 status.
type HTTPError struct {
	Method     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: request failed with status %d", e.Method, e.StatusCode)
}

// APIError is a logical failure reported inside the JSON envelope.
type APIError struct {
	Method  string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("%s: API error %d: %s", e.Method, e.Code, msg)
}
