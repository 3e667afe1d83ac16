// Package errors provides centralized error definitions for sprintdeps.
// It defines the sentinel errors shared across the analysis pipeline, a
// ConfigError type for configuration-level failures that must abort a run
// before any partial output, and small classification helpers the CLI uses
// to choose exit codes.
//
// Per-record failures (malformed records, broken references, cycles) are NOT
// errors in this package's sense: they are recorded as findings and never
// abort a corpus scan. Only configuration-level failures propagate as errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions so callers can import only this
// package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Corpus and scope sentinel errors
var (
	// ErrCorpusUnreadable indicates the corpus root cannot be opened or walked.
	ErrCorpusUnreadable = New("corpus root is not readable")
	// ErrUnknownScope indicates a scope name that is not defined in configuration.
	ErrUnknownScope = New("unknown scope")
	// ErrEmptyScope indicates a defined scope that selects no loaded issues.
	ErrEmptyScope = New("scope selects no issues")
)

// Record-level sentinel errors, used as causes inside parse findings.
var (
	// ErrRecordMalformed indicates a record that could not be parsed.
	ErrRecordMalformed = New("record is malformed")
	// ErrMissingFrontmatter indicates a record without a YAML frontmatter block.
	ErrMissingFrontmatter = New("record has no frontmatter block")
	// ErrDuplicateID indicates a second record declaring an already-loaded id.
	ErrDuplicateID = New("duplicate issue id")
)

// Analysis sentinel errors
var (
	// ErrCycleDetected indicates the declared-edge graph contains a cycle.
	// Surfaced through validate's exit status, never as an abort.
	ErrCycleDetected = New("dependency cycle detected")
	// ErrInvalidFormat indicates an unknown output format selector.
	ErrInvalidFormat = New("invalid output format")
)

// ConfigError represents a configuration-level failure: bad scope name,
// unreadable corpus root, invalid thresholds or weights. These are the only
// errors that abort an analysis run before partial output.
//
// Example:
//
//	err := errors.NewConfigError("scope is not defined", errors.ErrUnknownScope).
//		WithKey("scopes").WithValue("sprint-99")
type ConfigError struct {
	Key     string
	Value   string
	message string
	cause   error
}

// NewConfigError creates a new ConfigError.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{message: message, cause: cause}
}

// WithKey attaches the offending configuration key.
func (e *ConfigError) WithKey(key string) *ConfigError {
	e.Key = key
	return e
}

// WithValue attaches the offending value.
func (e *ConfigError) WithValue(value string) *ConfigError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ConfigError) Error() string {
	var parts []string
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}
	if e.Value != "" {
		parts = append(parts, fmt.Sprintf("value=%s", e.Value))
	}

	prefix := "config error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("config error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.cause
}

// Is reports whether this error matches the target.
func (e *ConfigError) Is(target error) bool {
	if _, ok := target.(*ConfigError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// IsConfig reports whether err is (or wraps) a ConfigError. The CLI maps
// these to exit code 2, distinct from analysis failures.
func IsConfig(err error) bool {
	if err == nil {
		return false
	}
	var cfgErr *ConfigError
	return As(err, &cfgErr)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
