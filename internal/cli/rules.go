package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/diffgate/internal/analysis"
	"github.com/sprite-ai/diffgate/internal/config"
	"github.com/sprite-ai/diffgate/internal/gate"
	"github.com/sprite-ai/diffgate/internal/repo"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the loaded rules and whether they apply to the target branch",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

func init() {
	config.AddFlags(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	root, err := rulesRoot(cfg.RepoDir)
	if err != nil {
		return &gate.ConfigError{Err: err}
	}
	set, err := gate.LoadRules(cfg, root, logger)
	if err != nil {
		return &gate.ConfigError{Err: err}
	}

	target := cfg.Target()
	out := cmd.OutOrStdout()
	renderer := lipgloss.NewRenderer(out)
	header := renderer.NewStyle().Bold(true).Padding(0, 1)
	cell := renderer.NewStyle().Padding(0, 1)
	dim := cell.Foreground(lipgloss.Color("#6272A4"))

	rows := make([][]string, 0, len(set.Rules))
	skipped := make(map[int]bool)
	for i, r := range set.Rules {
		status := "yes"
		switch {
		case !r.IsEnabled():
			status = "disabled"
		case !analysis.Applies(r, target):
			status = "no"
		}
		if status != "yes" {
			skipped[i] = true
		}
		rows = append(rows, []string{r.ID, r.Type, r.Level().String(), status, set.Origins[i]})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dim).
		Headers("ID", "TYPE", "SEVERITY", "APPLIES", "SOURCE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case skipped[row]:
				return dim
			default:
				return cell
			}
		})

	fmt.Fprintf(out, "Target branch: %s\n", target)
	fmt.Fprintln(out, t.Render())
	fmt.Fprintf(out, "%d rule(s); fail_on_errors=%t", len(set.Rules), set.Settings.FailsOnErrors())
	if limit, ok := set.Settings.WarningLimit(); ok {
		fmt.Fprintf(out, " max_warnings=%d", limit)
	}
	if len(set.Settings.ExcludeFiles) > 0 {
		fmt.Fprintf(out, " exclude_files=%s", strings.Join(set.Settings.ExcludeFiles, ","))
	}
	fmt.Fprintln(out)
	return nil
}

// rulesRoot is the directory rule paths resolve against: the repository
// root when dir is inside one, dir itself otherwise.
func rulesRoot(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if g, err := repo.Open(dir); err == nil {
		return g.Root(), nil
	}
	return filepath.Abs(dir)
}
