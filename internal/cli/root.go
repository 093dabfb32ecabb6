// Package cli wires diffgate's commands.
package cli

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/diffgate/internal/config"
	"github.com/sprite-ai/diffgate/internal/gate"
	"github.com/sprite-ai/diffgate/internal/logging"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "diffgate",
	Short: "Diff-aware rule gate for pre-merge checks",
	Long: `diffgate evaluates declarative rules against the changes a branch
introduces relative to its base branch and reports findings by severity.
Findings on added lines carry the line number in the new file.

Run it locally before pushing or as a CI step before merge.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file (default: "+config.FileName+" in the repository)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the run options for cmd and builds the stderr logger.
// The config file is looked up in the --repo directory, or the working
// directory when no repository is named.
func loadConfig(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	searchDir := "."
	if f := cmd.Flags().Lookup("repo"); f != nil && f.Value.String() != "" {
		searchDir = f.Value.String()
	}
	cfg, err := config.Load(cmd, configFile, searchDir)
	if err != nil {
		return nil, nil, &gate.ConfigError{Err: err}
	}
	return cfg, logging.New(os.Stderr, cfg.LogLevel), nil
}
