package report

import (
	"io"
	"strings"

	"github.com/sprite-ai/diffgate/internal/model"
)

// MarkdownWriter renders a report suitable for a pull request comment.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, r *model.Report) error {
	ew := &errWriter{w: w}

	ew.printf("## diffgate: %s\n\n", verdict(r))
	ew.printf("**Branch:** `%s` → `%s` (base `%s`, %s mode)\n\n", r.CurrentBranch, r.TargetBranch, baseLabel(r), r.Mode)
	ew.printf("**Changes:** %d added, %d modified, %d deleted, %d untracked\n\n",
		r.Changes.Added, r.Changes.Modified, r.Changes.Deleted, r.Changes.Untracked)
	ew.printf("**Findings:** %d error(s), %d warning(s), %d info\n\n",
		r.Summary.Errors, r.Summary.Warnings, r.Summary.Info)

	all := r.Findings.All()
	if len(all) == 0 {
		ew.println("No issues found.")
		return ew.err
	}

	ew.println("| Severity | Rule | Location | Message | Detail |")
	ew.println("|----------|------|----------|---------|--------|")
	for _, f := range all {
		ew.printf("| %s | %s | `%s` | %s | %s |\n",
			f.Severity, mdCell(f.RuleID), location(f), mdCell(f.Message), mdCell(f.Detail))
	}
	return ew.err
}

// mdCell keeps text inside a single table cell.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", "<br>")
}
