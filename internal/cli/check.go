package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/diffgate/internal/config"
	"github.com/sprite-ai/diffgate/internal/gate"
	"github.com/sprite-ai/diffgate/internal/progress"
	"github.com/sprite-ai/diffgate/internal/repo"
	"github.com/sprite-ai/diffgate/internal/report"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate the rules against the branch's changes",
	Long: `Resolve the change set against the base branch, evaluate the built-in
and user rules, run extension checks, write the JSON report and print a
summary to stdout.

Exit codes:
  0  gate passed
  1  gate failed (errors, or more warnings than allowed)
  2  configuration error, or the report could not be written`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	config.AddFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	w, err := report.GetWriter(cfg.Format)
	if err != nil {
		return &gate.ConfigError{Err: err}
	}

	ci := repo.DetectContext(os.Getenv, cfg.ForcedMode()).IsCI()
	pm := progress.New(cfg.Progress, ci)

	rep, err := gate.Check(cmd.Context(), gate.Options{
		Config:   cfg,
		Version:  version,
		Log:      logger,
		Progress: pm,
	})
	pm.Close()
	if rep == nil {
		return err
	}

	if werr := w.Write(cmd.OutOrStdout(), rep); werr != nil {
		logger.Error("rendering summary", "err", werr)
	}
	logger.Debug("report written", "path", cfg.Output)
	return err
}
