package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mhoffs/sprintdeps/internal/engine"
	"github.com/mhoffs/sprintdeps/internal/render"
	"github.com/mhoffs/sprintdeps/internal/watch"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Discover dependency proposals and validate the corpus",
	Long: `Analyze loads every issue record, scores file/section overlap between
active in-scope issues, proposes missing dependency edges with a resolved
direction, flags parallel-safe pairs, and runs the full set of consistency
checks. Critical findings set a non-zero exit status.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("emit-edges", false, "include target blocked_by/blocks sets for all proposals")
	analyzeCmd.Flags().BoolP("watch", "w", false, "re-run analysis when records change")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	format, err := render.ParseFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}
	yamlOut := mustBool(cmd, "yaml")

	opts := engine.AnalyzeOptions{
		Scope:     mustString(cmd, "scope"),
		WithGraph: format == render.FormatGraph || format == render.FormatStructured,
		EmitEdges: mustBool(cmd, "emit-edges"),
	}
	root := mustString(cmd, "root")
	if root == "" {
		root = cfg.Corpus.Root
	}
	eng := engine.New(cfg, root, log)

	runOnce := func() (bool, error) {
		report, err := eng.Analyze(opts)
		if err != nil {
			return false, err
		}
		if err := render.New(cmd.OutOrStdout()).Render(report, format, yamlOut); err != nil {
			return false, err
		}
		return report.HasCritical(), nil
	}

	if mustBool(cmd, "watch") {
		return watchLoop(cmd, root, runOnce)
	}

	critical, err := runOnce()
	if err != nil {
		return err
	}
	if critical {
		return &silentError{}
	}
	return nil
}

// watchLoop runs the pipeline once, then again after every debounced record
// change, until interrupted. Exit status reflects the shutdown, not the last
// run: watch mode is for iterating on records, not for CI gating.
func watchLoop(cmd *cobra.Command, root string, runOnce func() (bool, error)) error {
	if _, err := runOnce(); err != nil {
		return err
	}

	w, err := watch.New(root, func() {
		if _, err := runOnce(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "analysis failed: %v\n", err)
		}
	}, nil)
	if err != nil {
		return err
	}
	defer w.Stop()
	go w.Run()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustBool(cmd *cobra.Command, name string) bool {
	v, _ := cmd.Flags().GetBool(name)
	return v
}
