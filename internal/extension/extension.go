// Package extension runs custom checks as separate executables. A check gets
// the run's context as JSON on stdin and answers with a JSON array of results
// on stdout.
package extension

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sprite-ai/diffgate/internal/changeset"
	"github.com/sprite-ai/diffgate/internal/logging"
	"github.com/sprite-ai/diffgate/internal/model"
)

// maxStderr bounds how much of a failing check's stderr ends up in a finding.
const maxStderr = 2048

// Sink receives results. *analysis.Results implements it.
type Sink interface {
	AddResult(severity model.Severity, ruleID, ruleName, message, detail, file string, line int)
}

// Vars are exported to every check's environment.
type Vars struct {
	BaseBranch   string
	TargetBranch string
	RulesFile    string
	Output       string
	Mode         model.ExecutionMode
}

func (v Vars) environ() []string {
	return append(os.Environ(),
		"DIFFGATE_BASE_BRANCH="+v.BaseBranch,
		"DIFFGATE_TARGET_BRANCH="+v.TargetBranch,
		"DIFFGATE_RULES_FILE="+v.RulesFile,
		"DIFFGATE_OUTPUT="+v.Output,
		"DIFFGATE_CONTEXT="+string(v.Mode),
	)
}

// ChangeSet is the wire form of a change set.
type ChangeSet struct {
	Added     []string `json:"added"`
	Modified  []string `json:"modified"`
	Deleted   []string `json:"deleted"`
	Untracked []string `json:"untracked"`
}

// Input is written to a check's stdin.
type Input struct {
	BaseBranch   string    `json:"base_branch"`
	TargetBranch string    `json:"target_branch"`
	SourceBranch string    `json:"source_branch"`
	CI           bool      `json:"ci"`
	ChangeSet    ChangeSet `json:"changeset"`
}

// NewChangeSet converts a resolved change set, never emitting null lists.
func NewChangeSet(cs *changeset.ChangeSet) ChangeSet {
	nonNil := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	if cs == nil {
		cs = &changeset.ChangeSet{}
	}
	return ChangeSet{
		Added:     nonNil(cs.Added),
		Modified:  nonNil(cs.Modified),
		Deleted:   nonNil(cs.Deleted),
		Untracked: nonNil(cs.Untracked),
	}
}

// Result is one entry of a check's output. Severity is a name as in rule
// files; unknown or missing names are warnings.
type Result struct {
	Severity string `json:"severity"`
	RuleID   string `json:"rule_id"`
	RuleName string `json:"rule_name"`
	Message  string `json:"message"`
	Detail   string `json:"detail"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Runner executes checks from the repository root.
type Runner struct {
	Root string
	Vars Vars
	Log  *log.Logger
}

// Discover lists the executable files directly inside dir in lexical order.
// A missing directory holds no checks.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading checks dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// RunAll runs every check in order.
func (r *Runner) RunAll(ctx context.Context, paths []string, in Input, sink Sink) {
	for _, p := range paths {
		r.Run(ctx, p, in, sink)
	}
}

// Run executes one check and forwards its results to sink. Any failure is
// reported as a single error finding named after the check.
func (r *Runner) Run(ctx context.Context, path string, in Input, sink Sink) {
	logger := r.Log
	if logger == nil {
		logger = logging.Discard()
	}
	name := filepath.Base(path)
	logger = logger.With("extension", name)

	results, err := r.exec(ctx, path, in)
	if err != nil {
		logger.Error("extension failed", "err", err)
		sink.AddResult(model.SeverityError, "extension:"+name, name,
			fmt.Sprintf("Extension %s failed", name), err.Error(), path, 0)
		return
	}
	for _, res := range results {
		if res.RuleID == "" {
			res.RuleID = "extension:" + name
		}
		if res.RuleName == "" {
			res.RuleName = name
		}
		if _, err := model.ParseSeverity(res.Severity); err != nil {
			logger.Warn("unknown severity, reporting as warning", "severity", res.Severity, "rule", res.RuleID)
		}
		sink.AddResult(model.Level(res.Severity), res.RuleID, res.RuleName, res.Message, res.Detail, res.File, res.Line)
	}
	logger.Debug("extension finished", "results", len(results))
}

func (r *Runner) exec(ctx context.Context, path string, in Input) ([]Result, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding input: %w", err)
	}
	if !filepath.IsAbs(path) && r.Root != "" {
		path = filepath.Join(r.Root, path)
	}

	cmd := exec.CommandContext(ctx, path)
	cmd.Dir = r.Root
	cmd.Env = r.Vars.environ()
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[len(msg)-maxStderr:]
		}
		if msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, nil
	}
	var results []Result
	if err := json.Unmarshal(out, &results); err != nil {
		return nil, fmt.Errorf("decoding output: %w", err)
	}
	return results, nil
}
