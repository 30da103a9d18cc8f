package download

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the remote resource does not exist.
var ErrNotFound = errors.New("resource not found")

// HTTPStatusError is returned for unexpected HTTP responses.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http request to %s returned status %d", e.URL, e.StatusCode)
}

// ChecksumFailedError is returned when downloaded content does not match the
// expected SHA-256.
type ChecksumFailedError struct {
	URL        string
	Expected   string
	Calculated string
}

func (e *ChecksumFailedError) Error() string {
	return fmt.Sprintf("checksum failed for '%s', expected: '%s', calculated: '%s'", e.URL, e.Expected, e.Calculated)
}
