// Package cmd wires the CLI surface: analyze and validate over a corpus of
// issue records, with configuration resolved through viper.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mhoffs/sprintdeps/internal/config"
	"github.com/mhoffs/sprintdeps/internal/engine"
	sderrors "github.com/mhoffs/sprintdeps/internal/errors"
	"github.com/mhoffs/sprintdeps/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "sprintdeps",
	Short: "Issue dependency analysis for sprint planning",
	Long: `Sprintdeps analyzes a directory of issue records: it discovers
undeclared dependencies from file and section overlap, validates declared
dependency links for cycles, broken references and missing backlinks, and
reports which issues are safe to work on in parallel.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/sprintdeps/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.PersistentFlags().StringP("root", "r", "", "corpus root directory (overrides corpus.root)")
	rootCmd.PersistentFlags().StringP("scope", "s", "", "named scope restricting the analysis focus")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format: text, graph, structured")
	rootCmd.PersistentFlags().Bool("yaml", false, "emit YAML instead of JSON for structured output")
}

func initConfig() {
	// Defaults first so they hold even without a config file.
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/sprintdeps")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SPRINTDEPS")
	// SPRINTDEPS_SCORING_DEPENDENCY_THRESHOLD maps to scoring.dependency_threshold.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; defaults and env cover it.
	_ = viper.ReadInConfig()
}

// loadConfig resolves the validated configuration and its logger.
func loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logging.NopLogger()
	if cfg.Logging.Enabled {
		log = logging.NewStderrLogger(cfg.Logging.Level)
	}
	return cfg, log, nil
}

// engineFor builds an engine with the per-invocation root override applied.
func engineFor(cfg *config.Config, cmd *cobra.Command, log *logging.Logger) *engine.Engine {
	root := mustString(cmd, "root")
	if root == "" {
		root = cfg.Corpus.Root
	}
	return engine.New(cfg, root, log)
}

// silentError signals a failed run whose report was already written, so the
// caller only sets the exit code without printing a duplicate message.
type silentError struct{}

func (e *silentError) Error() string {
	return "critical findings reported"
}

// Silent marks the error as already rendered.
func (e *silentError) Silent() bool {
	return true
}

// ExitCode maps a command error to the process exit status: 0 on success or
// warnings only, 1 on critical findings or run failure, 2 on configuration
// mistakes that aborted the run before output.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case sderrors.IsConfig(err):
		return 2
	default:
		return 1
	}
}
