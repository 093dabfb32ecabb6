// Package model defines the core data types shared across diffgate.
package model

import (
	"fmt"
	"strings"
)

// Severity ranks a finding. The zero value is SeverityInfo.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity accepts the severity names used in rule files.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	default:
		return SeverityInfo, fmt.Errorf("unknown severity %q", s)
	}
}

// Level returns the severity named by s. Unknown or empty names are
// warnings, for rule files and extension output alike.
func Level(s string) Severity {
	v, err := ParseSeverity(s)
	if err != nil {
		return SeverityWarning
	}
	return v
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Subjects for findings that are not about a single file.
const (
	SubjectDiff   = "<diff>"
	SubjectBranch = "<branch>"
)

// Finding is one rule match.
type Finding struct {
	Severity Severity `json:"severity"`
	RuleID   string   `json:"rule_id"`
	RuleName string   `json:"rule_name"`
	Message  string   `json:"message"`
	Detail   string   `json:"detail,omitempty"`
	File     string   `json:"file"`
	Line     int      `json:"line"` // 1-based line in the new file, 0 if file-level
}

func (f Finding) String() string {
	loc := f.File
	if f.Line > 0 {
		loc = fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	return fmt.Sprintf("[%s] %s: %s", f.RuleID, loc, f.Message)
}

// ExecutionMode names where a run happens.
type ExecutionMode string

const (
	ModeLocal ExecutionMode = "local"
	ModeCI    ExecutionMode = "ci"
)

// Findings partitions findings by severity.
type Findings struct {
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
	Info     []Finding `json:"info"`
}

// All returns every finding, errors first.
func (f Findings) All() []Finding {
	all := make([]Finding, 0, len(f.Errors)+len(f.Warnings)+len(f.Info))
	all = append(all, f.Errors...)
	all = append(all, f.Warnings...)
	all = append(all, f.Info...)
	return all
}

// Summary holds severity counts and the verdict.
type Summary struct {
	Errors   int  `json:"errors"`
	Warnings int  `json:"warnings"`
	Info     int  `json:"info"`
	Passed   bool `json:"passed"`
}

// ChangeStats describes the size of the evaluated change set.
type ChangeStats struct {
	Added     int `json:"added"`
	Modified  int `json:"modified"`
	Deleted   int `json:"deleted"`
	Untracked int `json:"untracked"`
}

// Report is the top-level output of a run.
type Report struct {
	Tool          string        `json:"tool"`
	Version       string        `json:"version"`
	Timestamp     string        `json:"timestamp"`
	Mode          ExecutionMode `json:"mode"`
	CurrentBranch string        `json:"current_branch"`
	BaseBranch    string        `json:"base_branch"`
	BaseRef       string        `json:"base_ref"`
	TargetBranch  string        `json:"target_branch"`
	HeadCommit    string        `json:"head_commit"`
	Changes       ChangeStats   `json:"changes"`
	Findings      Findings      `json:"findings"`
	Summary       Summary       `json:"summary"`
}
