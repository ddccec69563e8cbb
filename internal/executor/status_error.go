package executor

import (
	"fmt"
	"time"
)

// StatusError is a failed upstream call carrying the HTTP status the
// upstream answered with. Transport-level failures (no response at all) are
// not StatusErrors.
type StatusError struct {
	StatusCode int

	// RetryAfter is the upstream-requested wait from the Retry-After
	// header. Zero when the header was absent.
	RetryAfter time.Duration

	Err error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Err.Error())
	}
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}
