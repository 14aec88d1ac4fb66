// Package apperrors defines the error types and exit codes shared by perflog.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess       = 0   // Normal completion, including runs where some samples were not persisted.
	ExitErrorGeneric  = 1   // Unexpected failure.
	ExitErrorConfig   = 4   // Invalid flags, environment or config file.
	ExitErrorCanceled = 130 // Interrupted by SIGINT/SIGTERM.
)

// ConfigError represents invalid user configuration. Sampling never starts
// when one is returned.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// StoreOp names the stage of a store write that failed.
type StoreOp string

const (
	OpOpen        StoreOp = "open"
	OpCreateTable StoreOp = "create table"
	OpInsert      StoreOp = "insert"
	OpQuery       StoreOp = "query"
	OpClose       StoreOp = "close"
)

// StoreError reports a failed database operation together with the file it
// was issued against.
type StoreError struct {
	Op    StoreOp
	Path  string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("database %s %s: %v", e.Op, e.Path, e.Cause)
}

// Unwrap returns the underlying driver error.
func (e *StoreError) Unwrap() error { return e.Cause }

// WrapError wraps err with a formatted context message. It returns nil when
// err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsContextError reports whether err is a context cancellation or deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCode maps an error returned by the application to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cfgErr ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return ExitErrorConfig
	case IsContextError(err):
		return ExitErrorCanceled
	default:
		return ExitErrorGeneric
	}
}
