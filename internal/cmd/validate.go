package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mhoffs/sprintdeps/internal/render"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check declared dependency links for consistency",
	Long: `Validate runs the structural checks only: broken references, missing
backlinks, cycles, self-references, stale links to completed issues and
redundant edges. No dependency discovery. The command fails when any
CRITICAL finding is present, so automation can gate on it.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	format, err := render.ParseFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}
	if format == render.FormatGraph {
		// Validation carries no layering; fall back to the table view.
		format = render.FormatText
	}

	eng := engineFor(cfg, cmd, log)
	report, err := eng.Validate(mustString(cmd, "scope"))
	if err != nil {
		return err
	}

	if err := render.New(cmd.OutOrStdout()).Render(report, format, mustBool(cmd, "yaml")); err != nil {
		return err
	}
	if report.HasCritical() {
		return &silentError{}
	}
	return nil
}
