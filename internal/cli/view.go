package cli

import (
	"github.com/spf13/cobra"

	"github.com/sprite-ai/diffgate/internal/config"
	"github.com/sprite-ai/diffgate/internal/report"
	"github.com/sprite-ai/diffgate/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view [report.json]",
	Short: "Browse a report in the terminal",
	Long: `Open a JSON report written by 'diffgate check' in an interactive
browser. Defaults to ` + config.DefaultOutput + `.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func runView(cmd *cobra.Command, args []string) error {
	path := config.DefaultOutput
	if len(args) == 1 {
		path = args[0]
	}
	rep, err := report.ReadFile(path)
	if err != nil {
		return err
	}
	return tui.Run(rep)
}
