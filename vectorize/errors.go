package vectorize

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy of the engine. Callers are expected to branch with
// errors.Is; everything else about a failure is carried in the message.
var (
	// ErrInvalidInput reports a bad image or configuration values outside
	// their documented ranges. Rejected before any processing starts.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProcessingFailure reports an internal algorithmic invariant that
	// could not be satisfied, such as degenerate geometry.
	ErrProcessingFailure = errors.New("processing failure")

	// ErrCancelled reports cooperative cancellation observed between
	// pipeline phases. No partial output is returned.
	ErrCancelled = errors.New("cancelled")

	// ErrResourceExceeded reports an input image too large for the
	// configured memory cap.
	ErrResourceExceeded = errors.New("resource limit exceeded")
)

// FieldError describes a single configuration violation.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ConfigError aggregates every violation found during validation so a
// caller can report the full set at once instead of fixing fields one at
// a time. It unwraps to ErrInvalidInput.
type ConfigError struct {
	Violations []FieldError
}

func (e *ConfigError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

func (e *ConfigError) Unwrap() error { return ErrInvalidInput }
