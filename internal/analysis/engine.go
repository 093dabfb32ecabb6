package analysis

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/sprite-ai/diffgate/internal/changeset"
	"github.com/sprite-ai/diffgate/internal/diff"
	"github.com/sprite-ai/diffgate/internal/logging"
	"github.com/sprite-ai/diffgate/internal/match"
	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/progress"
	"github.com/sprite-ai/diffgate/internal/repo"
	"github.com/sprite-ai/diffgate/internal/rules"
)

// LineSource supplies diff-derived content. *diff.Mapper implements it.
type LineSource interface {
	AddedLines(path string) ([]diff.AddedLine, error)
	DiffSet() (*diff.DiffSet, error)
	LineCount(path string) (int, error)
}

// Input is everything an evaluator may look at. It is read-only during a
// run.
type Input struct {
	Root         string
	Ctx          repo.ExecutionContext
	ChangeSet    *changeset.ChangeSet
	Lines        LineSource
	TargetBranch string
	SourceBranch string
	Log          *log.Logger
}

func (in *Input) logger() *log.Logger {
	if in.Log == nil {
		return logging.Discard()
	}
	return in.Log
}

func (in *Input) exists(path string) bool {
	info, err := os.Stat(filepath.Join(in.Root, path))
	return err == nil && !info.IsDir()
}

// Evaluator runs one rule. An error discards every finding it returned.
type Evaluator func(in *Input, r rules.Rule) ([]model.Finding, error)

// Evaluators maps rule types to their implementation.
var Evaluators = map[string]Evaluator{
	rules.TypeFilePattern:   evalFilePattern,
	rules.TypeCodePattern:   evalCodePattern,
	rules.TypeFileSize:      evalFileSize,
	rules.TypeDiffSize:      evalDiffSize,
	rules.TypeBranchNaming:  evalBranchNaming,
	rules.TypeDependentFile: evalDependentFile,
}

// Engine dispatches rules to evaluators one at a time.
type Engine struct {
	Log        *log.Logger
	Progress   progress.Manager
	Evaluators map[string]Evaluator
}

// NewEngine returns an engine with the standard evaluators.
func NewEngine(logger *log.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{Log: logger, Progress: progress.NoOp{}, Evaluators: Evaluators}
}

// Applies reports whether a rule is gated in for the target branch. A rule
// without target branches always applies.
func Applies(r rules.Rule, target string) bool {
	if len(r.TargetBranches) == 0 {
		return true
	}
	return match.BranchMatches(target, r.TargetBranches)
}

// Run evaluates every rule in order and records findings into res.
func (e *Engine) Run(in *Input, set *rules.Set, res *Results) {
	if in.Log == nil {
		in.Log = e.Log
	}
	task := e.Progress.StartTask("rules", len(set.Rules))
	defer task.Complete()

	for _, r := range set.Rules {
		task.Describe(r.ID)
		e.runRule(in, r, res)
		task.Increment(1)
	}
}

func (e *Engine) runRule(in *Input, r rules.Rule, res *Results) {
	logger := e.Log.With("rule", r.ID, "type", r.Type)

	if !r.IsEnabled() {
		logger.Debug("skipping disabled rule")
		return
	}
	if !Applies(r, in.TargetBranch) {
		logger.Debug("skipping rule for target branch", "target", in.TargetBranch)
		return
	}
	eval, ok := e.Evaluators[r.Type]
	if !ok {
		logger.Warn("unknown rule type, skipping")
		return
	}

	findings, err := safeEval(eval, in, r)
	if err != nil {
		logger.Error("rule evaluation failed", "err", err)
		return
	}
	for _, f := range findings {
		res.Add(f)
	}
	logger.Debug("rule evaluated", "findings", len(findings))
}

func safeEval(eval Evaluator, in *Input, r rules.Rule) (findings []model.Finding, err error) {
	defer func() {
		if p := recover(); p != nil {
			findings = nil
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return eval(in, r)
}

func newFinding(r rules.Rule, file string, line int, detail string) model.Finding {
	msg := r.Message
	if msg == "" {
		msg = r.DisplayName()
	}
	return model.Finding{
		Severity: r.Level(),
		RuleID:   r.ID,
		RuleName: r.DisplayName(),
		Message:  msg,
		Detail:   detail,
		File:     file,
		Line:     line,
	}
}

// fileFilter compiles a rule's file_patterns. Nil means every file; an empty
// list or a bare "**" selects everything.
func fileFilter(patterns []string) (match.GlobSet, error) {
	for _, p := range patterns {
		if p == "**" {
			return nil, nil
		}
	}
	return match.CompileGlobs(patterns)
}
