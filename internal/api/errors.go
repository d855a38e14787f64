package api

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport wraps dial, write and read failures.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedResponse wraps bodies that do not decode into, or do not
	// validate as, the expected response shape.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNoFiles is returned by Upload for an empty file list; no request
	// is made.
	ErrNoFiles = errors.New("no files to upload")
)

// ServerError is a response the backend produced deliberately: a non-2xx
// status, or a 2xx body carrying status "error".
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("server error: status %d: %s", e.StatusCode, e.Message)
}

// IsServerError reports whether err carries a *ServerError.
func IsServerError(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}
