// Package errs defines the three error kinds surfaced by the encode path.
// Every error returned from planning, synthesis or a run wraps exactly one
// of the sentinels below so callers can branch with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel kinds.
var (
	// ErrValidation covers bad input before any process starts: missing
	// input, unwritable output, malformed time values, disallowed options,
	// empty mappings.
	ErrValidation = errors.New("validation error")

	// ErrRuntime is an external process that exited non-zero.
	ErrRuntime = errors.New("runtime failure")

	// ErrResource covers the debug log directory being missing or unwritable.
	ErrResource = errors.New("resource error")
)

// Validationf returns an error wrapping ErrValidation.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Runtimef returns an error wrapping ErrRuntime.
func Runtimef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrRuntime, fmt.Sprintf(format, args...))
}

// Resourcef returns an error wrapping ErrResource.
func Resourcef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrResource, fmt.Sprintf(format, args...))
}

// Kind returns the sentinel err wraps, or nil for foreign errors.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrRuntime, ErrResource} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
