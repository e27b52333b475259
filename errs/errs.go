// Package errs defines the error taxonomy shared across session construction:
// missing data or checkpoints, invalid configuration, and checkpoint/model
// state mismatches. All three are fatal to session construction and are
// surfaced to the caller unchanged.
package errs

import (
	"errors"
	"fmt"
)

// NotFoundError reports a missing data directory (zero matching files) or a
// missing checkpoint path that was explicitly configured.
type NotFoundError struct {
	Path string
	Msg  string
}

func (e *NotFoundError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Msg, e.Path)
	}
	return fmt.Sprintf("not found: %s", e.Path)
}

// NotFound creates a NotFoundError for the given path.
func NotFound(msg, path string) error {
	return &NotFoundError{Path: path, Msg: msg}
}

// ConfigurationError reports an unknown registry name, a missing or mistyped
// constructor parameter, a stream-weight count mismatch, or an unrecognized
// scaler shape.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// Configf creates a ConfigurationError with a formatted message.
func Configf(format string, args ...interface{}) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// StateMismatchError reports checkpoint state incompatible with the current
// model or optimizer shape. Partial or lenient loading is not supported.
type StateMismatchError struct {
	Msg string
}

func (e *StateMismatchError) Error() string {
	return "state mismatch: " + e.Msg
}

// StateMismatchf creates a StateMismatchError with a formatted message.
func StateMismatchf(format string, args ...interface{}) error {
	return &StateMismatchError{Msg: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// IsStateMismatch reports whether err is (or wraps) a StateMismatchError.
func IsStateMismatch(err error) bool {
	var e *StateMismatchError
	return errors.As(err, &e)
}
