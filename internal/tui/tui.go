// Package tui implements the Bubble Tea report browser.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sprite-ai/diffgate/internal/model"
)

// filter selects which severities the list shows.
type filter int

const (
	filterAll filter = iota
	filterErrors
	filterWarnings
	filterInfo
)

func (f filter) String() string {
	switch f {
	case filterErrors:
		return "errors"
	case filterWarnings:
		return "warnings"
	case filterInfo:
		return "info"
	default:
		return "all"
	}
}

func (f filter) next() filter {
	return (f + 1) % 4
}

func (f filter) match(s model.Severity) bool {
	switch f {
	case filterErrors:
		return s == model.SeverityError
	case filterWarnings:
		return s == model.SeverityWarning
	case filterInfo:
		return s == model.SeverityInfo
	default:
		return true
	}
}

// Model is the top-level Bubble Tea model for browsing a report.
type Model struct {
	report *model.Report
	all    []model.Finding

	// UI state
	width  int
	height int

	// Finding list
	filter   filter
	findings []model.Finding // all, narrowed by filter
	index    int             // currently selected finding

	// List viewport
	scrollOffset int
	viewHeight   int

	// Help
	showHelp bool
}

// New creates a new TUI model from a finished report.
func New(r *model.Report) Model {
	m := Model{
		report: r,
		all:    r.Findings.All(),
	}
	m.applyFilter()
	return m
}

func (m *Model) applyFilter() {
	m.findings = make([]model.Finding, 0, len(m.all))
	for _, f := range m.all {
		if m.filter.match(f.Severity) {
			m.findings = append(m.findings, f)
		}
	}
	m.index = 0
	m.scrollOffset = 0
}

// Selected returns the finding under the cursor.
func (m Model) Selected() (model.Finding, bool) {
	if len(m.findings) == 0 {
		return model.Finding{}, false
	}
	return m.findings[m.index], true
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewHeight = m.height - 4 // status bar + borders
		m.clampScroll()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Down):
			if m.index < len(m.findings)-1 {
				m.index++
			}

		case key.Matches(msg, keys.Up):
			if m.index > 0 {
				m.index--
			}

		case key.Matches(msg, keys.NextFile):
			m.index = m.nextFile(m.index)

		case key.Matches(msg, keys.PrevFile):
			m.index = m.prevFile(m.index)

		case key.Matches(msg, keys.Filter):
			m.filter = m.filter.next()
			m.applyFilter()

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		}
		m.clampScroll()
	}

	return m, nil
}

// nextFile returns the index of the first finding whose file differs from
// the current one, or i when the current file is last.
func (m Model) nextFile(i int) int {
	if len(m.findings) == 0 {
		return 0
	}
	cur := m.findings[i].File
	for j := i + 1; j < len(m.findings); j++ {
		if m.findings[j].File != cur {
			return j
		}
	}
	return i
}

// prevFile moves to the first finding of the previous file.
func (m Model) prevFile(i int) int {
	if len(m.findings) == 0 {
		return 0
	}
	cur := m.findings[i].File
	j := i - 1
	for j >= 0 && m.findings[j].File == cur {
		j--
	}
	if j < 0 {
		return 0
	}
	prev := m.findings[j].File
	for j > 0 && m.findings[j-1].File == prev {
		j--
	}
	return j
}

func (m *Model) clampScroll() {
	if m.viewHeight <= 0 {
		return
	}
	if m.index < m.scrollOffset {
		m.scrollOffset = m.index
	}
	if m.index >= m.scrollOffset+m.viewHeight {
		m.scrollOffset = m.index - m.viewHeight + 1
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	// Layout: finding list on left, detail on right
	listWidth := m.listWidth()
	detailWidth := m.width - listWidth - 1 // -1 for gap

	list := m.renderList(listWidth, m.height-2)
	detail := m.renderDetail(detailWidth, m.height-2)

	main := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) listWidth() int {
	w := m.width * 2 / 5
	if w < 24 {
		w = 24
	}
	if w > 60 {
		w = 60
	}
	return w
}

func (m Model) renderList(width, height int) string {
	var b strings.Builder
	inner := width - 4 // border + padding

	if len(m.findings) == 0 {
		b.WriteString(helpBarStyle.Render("No findings"))
	}

	end := m.scrollOffset + height - 2
	if end > len(m.findings) {
		end = len(m.findings)
	}
	for i := m.scrollOffset; i < end; i++ {
		f := m.findings[i]
		label := truncate(location(f), inner-2)
		line := severityMarker(f.Severity) + " " + label
		if i == m.index {
			line = listItemSelectedStyle.Width(inner).Render(line)
		} else {
			line = listItemStyle.Render(line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	return listStyle.Width(width - 2).Height(height - 2).Render(b.String())
}

func (m Model) renderStatusBar() string {
	pos := "0/0"
	if len(m.findings) > 0 {
		pos = fmt.Sprintf("%d/%d", m.index+1, len(m.findings))
	}

	verdict := errorStyle.Render("FAILED")
	if m.report.Summary.Passed {
		verdict = passedStyle.Render("PASSED")
	}

	left := fmt.Sprintf("%s  %s  %s %s  %s",
		verdict,
		pos,
		statusKeyStyle.Render("filter:"),
		m.filter,
		m.report.CurrentBranch,
	)
	right := statusKeyStyle.Render("?") + " help  " + statusKeyStyle.Render("q") + " quit"

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("diffgate report: Keyboard Shortcuts"))
	b.WriteString("\n\n")

	helpItems := []struct{ key, desc string }{
		{"↑/k", "Previous finding"},
		{"↓/j", "Next finding"},
		{"n/Tab", "Next file"},
		{"N/S-Tab", "Previous file"},
		{"f", "Cycle severity filter"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}

	for _, item := range helpItems {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Width(12).Render(item.key),
			item.desc,
		))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}

// Run launches the TUI for the given report.
func Run(r *model.Report) error {
	m := New(r)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
