package config

import (
	"fmt"
	"slices"
	"strings"

	sderrors "github.com/mhoffs/sprintdeps/internal/errors"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "scoring.file_weight")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values. A non-nil result is a
// ConfigError wrapping all failures: invalid configuration aborts a run
// before any partial output.
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, c.validateScoring()...)
	errs = append(errs, c.validateAnalysis()...)
	errs = append(errs, c.validateLogging()...)

	if len(errs) == 0 {
		return nil
	}
	return sderrors.NewConfigError("invalid configuration", errs)
}

func (c *Config) validateScoring() []ValidationError {
	var errs []ValidationError
	s := c.Scoring

	if s.FileWeight < 0 {
		errs = append(errs, ValidationError{
			Field:   "scoring.file_weight",
			Value:   s.FileWeight,
			Message: "must be >= 0",
		})
	}
	if s.SectionWeight < 0 {
		errs = append(errs, ValidationError{
			Field:   "scoring.section_weight",
			Value:   s.SectionWeight,
			Message: "must be >= 0",
		})
	}
	if s.FileWeight+s.SectionWeight <= 0 {
		errs = append(errs, ValidationError{
			Field:   "scoring.file_weight",
			Value:   s.FileWeight + s.SectionWeight,
			Message: "file_weight and section_weight must sum to a positive value",
		})
	}
	if s.DependencyThreshold <= 0 || s.DependencyThreshold > 1 {
		errs = append(errs, ValidationError{
			Field:   "scoring.dependency_threshold",
			Value:   s.DependencyThreshold,
			Message: "must be in (0, 1]",
		})
	}
	if s.HighConflictThreshold <= 0 || s.HighConflictThreshold > 1 {
		errs = append(errs, ValidationError{
			Field:   "scoring.high_conflict_threshold",
			Value:   s.HighConflictThreshold,
			Message: "must be in (0, 1]",
		})
	}
	if s.DependencyThreshold > 0 && s.HighConflictThreshold > 0 &&
		s.DependencyThreshold >= s.HighConflictThreshold {
		errs = append(errs, ValidationError{
			Field:   "scoring.dependency_threshold",
			Value:   s.DependencyThreshold,
			Message: "must be below high_conflict_threshold",
		})
	}

	return errs
}

func (c *Config) validateAnalysis() []ValidationError {
	var errs []ValidationError

	if c.Analysis.Workers < 0 {
		errs = append(errs, ValidationError{
			Field:   "analysis.workers",
			Value:   c.Analysis.Workers,
			Message: "must be >= 0 (0 means GOMAXPROCS)",
		})
	}

	return errs
}

func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errs
}
