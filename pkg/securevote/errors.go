package securevote

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoImage is returned when a submit is attempted with an empty image.
	ErrNoImage = errors.New("securevote: no image to submit")

	// ErrNoBaseURL is returned by NewClient when the base URL is empty.
	ErrNoBaseURL = errors.New("securevote: base URL required")
)

// ServerError reports a backend response that could not be interpreted.
type ServerError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Err is the underlying read or decode failure.
	Err error
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("securevote: server error %d: %v", e.StatusCode, e.Err)
}

// Unwrap returns the underlying error.
func (e *ServerError) Unwrap() error {
	return e.Err
}

// IsServerError reports whether err carries a ServerError.
func IsServerError(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}
