package todoist

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the remote record does not exist (HTTP 404).
	// Not retried; inbound event processing discards on this error.
	ErrNotFound = errors.New("remote task not found")

	// ErrRejected indicates a non-retryable remote refusal, e.g. bad
	// credentials or malformed content (4xx other than 404/429).
	ErrRejected = errors.New("remote request rejected")

	// ErrTransient indicates a retryable transport or server fault
	// (network error, timeout, 429, 5xx). Calls classified transient
	// are retried with backoff before being surfaced as ErrUnavailable.
	ErrTransient = errors.New("transient remote failure")

	// ErrUnavailable is returned after transient retries are exhausted.
	ErrUnavailable = errors.New("remote service unavailable")
)

// classifyStatus maps an HTTP response status to the error taxonomy.
// Returns nil for success statuses.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == 404:
		return fmt.Errorf("%w (status %d)", ErrNotFound, status)
	case status == 429 || status >= 500:
		return fmt.Errorf("%w (status %d)", ErrTransient, status)
	default:
		return fmt.Errorf("%w (status %d)", ErrRejected, status)
	}
}

// retryable reports whether a call failing with err may be retried.
// Only transient failures are candidates; NotFound and Rejected are
// terminal for the call.
func retryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
