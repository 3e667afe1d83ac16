package config

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/spf13/viper"

	sderrors "github.com/mhoffs/sprintdeps/internal/errors"
)

// Config represents the complete sprintdeps configuration
type Config struct {
	Corpus   CorpusConfig        `mapstructure:"corpus"`
	Scopes   map[string][]string `mapstructure:"scopes"`
	Scoring  ScoringConfig       `mapstructure:"scoring"`
	Analysis AnalysisConfig      `mapstructure:"analysis"`
	Logging  LoggingConfig       `mapstructure:"logging"`
}

// CorpusConfig controls where issue records are loaded from
type CorpusConfig struct {
	// Root is the directory tree containing issue records.
	// Overridable per invocation with --root.
	Root string `mapstructure:"root"`
}

// ScoringConfig controls the conflict scoring model.
//
// The 0.4/0.7 classification thresholds are contract values the rest of the
// pipeline depends on (proposal cut-off, HIGH/MEDIUM/LOW bands); they are
// exposed here for visibility but validation rejects non-monotonic settings.
type ScoringConfig struct {
	// FileWeight weights the file-overlap ratio in the conflict score (default: 0.3)
	FileWeight float64 `mapstructure:"file_weight"`
	// SectionWeight weights the section-overlap ratio (default: 0.7)
	SectionWeight float64 `mapstructure:"section_weight"`
	// DependencyThreshold is the minimum conflict score for a dependency
	// proposal; pairs below it with shared files are parallel-safe (default: 0.4)
	DependencyThreshold float64 `mapstructure:"dependency_threshold"`
	// HighConflictThreshold is the minimum score classified HIGH (default: 0.7)
	HighConflictThreshold float64 `mapstructure:"high_conflict_threshold"`
}

// AnalysisConfig controls pipeline execution
type AnalysisConfig struct {
	// Workers is the number of goroutines sharding record loading and pair
	// scoring. 0 means GOMAXPROCS.
	Workers int `mapstructure:"workers"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether structured logging is emitted (default: false)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
}

// Default returns a Config with the contract default values
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Root: "issues",
		},
		Scopes: map[string][]string{},
		Scoring: ScoringConfig{
			FileWeight:            0.3,
			SectionWeight:         0.7,
			DependencyThreshold:   0.4,
			HighConflictThreshold: 0.7,
		},
		Analysis: AnalysisConfig{
			Workers: 0, // GOMAXPROCS
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("corpus.root", defaults.Corpus.Root)

	viper.SetDefault("scoring.file_weight", defaults.Scoring.FileWeight)
	viper.SetDefault("scoring.section_weight", defaults.Scoring.SectionWeight)
	viper.SetDefault("scoring.dependency_threshold", defaults.Scoring.DependencyThreshold)
	viper.SetDefault("scoring.high_conflict_threshold", defaults.Scoring.HighConflictThreshold)

	viper.SetDefault("analysis.workers", defaults.Analysis.Workers)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, sderrors.NewConfigError("failed to unmarshal configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// EffectiveWorkers resolves the worker count for parallel phases.
func (a *AnalysisConfig) EffectiveWorkers() int {
	if a.Workers > 0 {
		return a.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// ResolveScope returns the id set named by scope, or nil when scope is empty
// (no filtering). An undefined scope name is a ConfigError: the run must
// abort before any partial output.
func (c *Config) ResolveScope(scope string) (map[string]bool, error) {
	if scope == "" {
		return nil, nil
	}

	ids, ok := c.Scopes[scope]
	if !ok {
		return nil, sderrors.NewConfigError("scope is not defined", sderrors.ErrUnknownScope).
			WithKey("scopes").
			WithValue(scope)
	}
	if len(ids) == 0 {
		return nil, sderrors.NewConfigError("scope selects no issues", sderrors.ErrEmptyScope).
			WithKey("scopes").
			WithValue(scope)
	}

	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ScopeNames returns the defined scope names in sorted order.
func (c *Config) ScopeNames() []string {
	names := make([]string, 0, len(c.Scopes))
	for name := range c.Scopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sprintdeps")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sprintdeps"
	}
	return filepath.Join(home, ".config", "sprintdeps")
}
