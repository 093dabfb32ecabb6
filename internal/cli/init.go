package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/diffgate/internal/config"
	"github.com/sprite-ai/diffgate/internal/rules"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter rule file",
	Long: `Write a small, valid user rule file to start from.

The format follows the file extension: .yml and .yaml write YAML, anything
else writes JSON.

Examples:
  # Create .diffgate/rules.json
  diffgate init

  # YAML, overwriting an existing file
  diffgate init --path .diffgate/rules.yaml --force

  # Guided setup
  diffgate init --interactive`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringP("path", "p", config.DefaultRulesFile, "where to write the rule file")
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
	initCmd.Flags().BoolP("interactive", "i", false, "interactive setup wizard")
}

func runInit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	force, _ := cmd.Flags().GetBool("force")
	interactive, _ := cmd.Flags().GetBool("interactive")

	opts := rules.StarterOptions{}
	if interactive {
		var err error
		opts, path, err = runInteractiveSetup(path)
		if err != nil {
			return err
		}
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists. Use --force to overwrite", path)
		}
	}

	data, err := rules.Starter(opts).Marshal(filepath.Ext(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	fmt.Fprintln(cmd.OutOrStdout(), "Run 'diffgate rules' to see what will be checked.")
	return nil
}

func runInteractiveSetup(defaultPath string) (rules.StarterOptions, string, error) {
	var opts rules.StarterOptions

	fmt.Println("diffgate rule file setup")
	fmt.Println()

	branchPrompt := promptui.Prompt{
		Label:   "Allowed branch patterns (comma separated)",
		Default: strings.Join(rules.DefaultBranchPatterns, ","),
	}
	branches, err := branchPrompt.Run()
	if err != nil {
		return opts, "", fmt.Errorf("branch patterns input cancelled: %w", err)
	}
	for _, p := range strings.Split(branches, ",") {
		if p = strings.TrimSpace(p); p != "" {
			opts.BranchPatterns = append(opts.BranchPatterns, p)
		}
	}

	linesPrompt := promptui.Prompt{
		Label:   "Maximum changed lines per branch",
		Default: "800",
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("enter a positive number")
			}
			return nil
		},
	}
	lines, err := linesPrompt.Run()
	if err != nil {
		return opts, "", fmt.Errorf("line limit input cancelled: %w", err)
	}
	opts.MaxDiffLines, _ = strconv.Atoi(lines)

	strictness := []struct {
		Label       string
		Description string
		Strict      bool
	}{
		{"Standard (recommended)", "Only errors fail the gate", false},
		{"Strict", "Any warning fails the gate", true},
	}
	strictPrompt := promptui.Select{
		Label: "How strict should the gate be?",
		Items: strictness,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
			Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
			Selected: "\U00002705 {{ .Label | green }}",
		},
	}
	idx, _, err := strictPrompt.Run()
	if err != nil {
		return opts, "", fmt.Errorf("strictness selection cancelled: %w", err)
	}
	opts.Strict = strictness[idx].Strict

	pathPrompt := promptui.Prompt{
		Label:   "Rule file path",
		Default: defaultPath,
	}
	path, err := pathPrompt.Run()
	if err != nil {
		return opts, "", fmt.Errorf("path input cancelled: %w", err)
	}
	if path == "" {
		path = defaultPath
	}

	fmt.Println()
	return opts, path, nil
}
