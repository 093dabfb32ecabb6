// Package progress draws rule-evaluation progress on interactive terminals.
package progress

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Task tracks one unit of work with a known size.
type Task interface {
	Increment(n int)
	Describe(description string)
	Complete()
}

// Manager hands out tasks.
type Manager interface {
	StartTask(description string, total int) Task
	IsInteractive() bool
	Close()
}

// New returns a bar-drawing manager when enabled and stderr is a terminal
// outside CI, and a no-op manager otherwise.
func New(enabled, ci bool) Manager {
	if enabled && !ci && IsInteractive(os.Stderr) {
		return NewBarManager(os.Stderr)
	}
	return NoOp{}
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// BarManager renders tasks as progress bars.
type BarManager struct {
	writer io.Writer
	tasks  []*progressbar.ProgressBar
}

// NewBarManager draws bars to w.
func NewBarManager(w io.Writer) *BarManager {
	return &BarManager{writer: w}
}

// StartTask implements Manager.
func (m *BarManager) StartTask(description string, total int) Task {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(m.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(18),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	m.tasks = append(m.tasks, bar)
	return &barTask{bar: bar}
}

// IsInteractive implements Manager.
func (m *BarManager) IsInteractive() bool { return true }

// Close finishes every bar still drawing.
func (m *BarManager) Close() {
	for _, bar := range m.tasks {
		_ = bar.Finish()
	}
	m.tasks = nil
}

type barTask struct {
	bar *progressbar.ProgressBar
}

func (t *barTask) Increment(n int)             { _ = t.bar.Add(n) }
func (t *barTask) Describe(description string) { t.bar.Describe(description) }
func (t *barTask) Complete()                   { _ = t.bar.Finish() }

// NoOp discards all progress.
type NoOp struct{}

// StartTask implements Manager.
func (NoOp) StartTask(string, int) Task { return noOpTask{} }

// IsInteractive implements Manager.
func (NoOp) IsInteractive() bool { return false }

// Close implements Manager.
func (NoOp) Close() {}

type noOpTask struct{}

func (noOpTask) Increment(int)   {}
func (noOpTask) Describe(string) {}
func (noOpTask) Complete()       {}
