package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/report"
)

func (m Model) renderDetail(width, height int) string {
	f, ok := m.Selected()
	if !ok {
		return detailStyle.Width(width - 2).Height(height - 2).Render(m.renderSummary())
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(f.RuleName))
	b.WriteString("\n")

	field := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	field("rule", ruleStyle.Render(f.RuleID))
	field("severity", severityStyle(f.Severity).Render(f.Severity.String()))
	field("location", location(f))
	field("message", f.Message)

	if f.Detail != "" {
		b.WriteString("\n")
		detail := f.Detail
		if f.Line > 0 {
			detail = report.Highlight(lipgloss.DefaultRenderer(), f.File, detail)
		}
		b.WriteString(detail)
	}

	return detailStyle.Width(width - 2).Height(height - 2).Render(b.String())
}

func (m Model) renderSummary() string {
	s := m.report.Summary
	c := m.report.Changes
	var b strings.Builder
	b.WriteString(headerStyle.Render("Summary"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("base"), m.report.BaseBranch)
	fmt.Fprintf(&b, "%s%s\n", labelStyle.Render("branch"), m.report.CurrentBranch)
	fmt.Fprintf(&b, "%s%d added, %d modified, %d deleted, %d untracked\n",
		labelStyle.Render("changes"), c.Added, c.Modified, c.Deleted, c.Untracked)
	fmt.Fprintf(&b, "%s%d errors, %d warnings, %d info\n",
		labelStyle.Render("findings"), s.Errors, s.Warnings, s.Info)
	return b.String()
}

func severityMarker(s model.Severity) string {
	switch s {
	case model.SeverityError:
		return errorStyle.Render("E")
	case model.SeverityWarning:
		return warningStyle.Render("W")
	default:
		return infoStyle.Render("I")
	}
}

func severityStyle(s model.Severity) lipgloss.Style {
	switch s {
	case model.SeverityError:
		return errorStyle
	case model.SeverityWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

func location(f model.Finding) string {
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	return f.File
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
