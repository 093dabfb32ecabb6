package report

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/diffgate/internal/model"
)

// TextWriter renders a terminal summary. Colors are used only when w is a
// color-capable terminal.
type TextWriter struct{}

type textStyles struct {
	title, dim, pass, fail lipgloss.Style
	severity               map[model.Severity]lipgloss.Style
}

func newTextStyles(r *lipgloss.Renderer) textStyles {
	return textStyles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#BD93F9")),
		dim:   r.NewStyle().Foreground(lipgloss.Color("#6272A4")),
		pass:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#50FA7B")),
		fail:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5555")),
		severity: map[model.Severity]lipgloss.Style{
			model.SeverityError:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5555")),
			model.SeverityWarning: r.NewStyle().Foreground(lipgloss.Color("#F1FA8C")),
			model.SeverityInfo:    r.NewStyle().Foreground(lipgloss.Color("#8BE9FD")),
		},
	}
}

func (t *TextWriter) Write(w io.Writer, r *model.Report) error {
	renderer := lipgloss.NewRenderer(w)
	st := newTextStyles(renderer)
	ew := &errWriter{w: w}

	ew.println(st.title.Render("diffgate report"))
	ew.printf("Branch: %s -> %s (base %s, %s mode)\n", r.CurrentBranch, r.TargetBranch, baseLabel(r), r.Mode)
	ew.printf("Changes: %d added, %d modified, %d deleted, %d untracked\n",
		r.Changes.Added, r.Changes.Modified, r.Changes.Deleted, r.Changes.Untracked)
	ew.println(st.dim.Render(strings.Repeat("─", 60)))

	all := r.Findings.All()
	if len(all) == 0 {
		ew.println("No issues found.")
	}
	for _, sev := range []model.Severity{model.SeverityError, model.SeverityWarning, model.SeverityInfo} {
		var group []model.Finding
		for _, f := range all {
			if f.Severity == sev {
				group = append(group, f)
			}
		}
		if len(group) == 0 {
			continue
		}
		label := st.severity[sev].Render(strings.ToUpper(sev.String()))
		ew.printf("\n%s (%d)\n", label, len(group))
		for _, f := range group {
			ew.printf("  [%s] %s  %s\n", f.RuleID, location(f), f.Message)
			if f.Detail == "" {
				continue
			}
			detail := f.Detail
			if f.Line > 0 {
				detail = Highlight(renderer, f.File, detail)
			}
			for _, line := range strings.Split(detail, "\n") {
				ew.printf("      %s\n", line)
			}
		}
	}

	ew.println("\n" + st.dim.Render(strings.Repeat("─", 60)))
	result := st.pass.Render(verdict(r))
	if !r.Summary.Passed {
		result = st.fail.Render(verdict(r))
	}
	ew.printf("%s  %d error(s), %d warning(s), %d info\n",
		result, r.Summary.Errors, r.Summary.Warnings, r.Summary.Info)
	return ew.err
}

func baseLabel(r *model.Report) string {
	if r.BaseRef != "" && r.BaseRef != r.BaseBranch {
		return r.BaseRef
	}
	return r.BaseBranch
}
