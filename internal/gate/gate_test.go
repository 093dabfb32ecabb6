package gate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/sprite-ai/diffgate/internal/config"
	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/report"
	"github.com/sprite-ai/diffgate/internal/testutil"
)

const userRules = `{
  "rules": [
    {"id": "no-logs", "name": "No log files", "severity": "error", "type": "file_pattern", "message": "log file", "patterns": ["*.log"]},
    {"id": "no-debug", "severity": "warning", "type": "code_pattern", "message": "debug print", "patterns": ["fmt\\.Println"], "file_patterns": ["*.go"]},
    {"id": "branches", "severity": "error", "type": "branch_naming", "message": "bad branch", "allowed_patterns": ["feature/*"]}
  ],
  "settings": {"max_warnings": 5}
}`

func setup(t *testing.T) (*testutil.GitRepo, *config.Config) {
	t.Helper()
	r := testutil.NewGitRepo(t)
	r.Write(".diffgate/rules.json", userRules)
	r.Write("main.go", "package main\n\nfunc main() {}\n")
	r.CommitAll("init")
	r.Git("checkout", "--quiet", "-b", "feature/gate")

	cfg := config.Default()
	cfg.RepoDir = r.Dir
	cfg.NoBuiltin = true
	cfg.NoFetch = true
	cfg.Mode = "local"
	cfg.Output = filepath.Join(t.TempDir(), "report.json")
	return r, cfg
}

func TestCheckPasses(t *testing.T) {
	_, cfg := setup(t)
	rep, err := Check(context.Background(), Options{Config: cfg, Version: "test", Getenv: testutil.Env(nil)})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !rep.Summary.Passed || len(rep.Findings.All()) != 0 {
		t.Errorf("expected clean pass, got %+v", rep.Findings)
	}
	if rep.CurrentBranch != "feature/gate" || rep.BaseRef != "main" || rep.Mode != model.ModeLocal {
		t.Errorf("metadata = %+v", rep)
	}
	if _, err := os.Stat(cfg.Output); err != nil {
		t.Errorf("report not written: %v", err)
	}
}

func TestCheckFails(t *testing.T) {
	r, cfg := setup(t)
	r.Write("main.go", "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n")
	r.Write("debug.log", "noise\n")

	var streamed []string
	rep, err := Check(context.Background(), Options{
		Config:    cfg,
		Getenv:    testutil.Env(nil),
		OnFinding: func(f model.Finding) { streamed = append(streamed, f.RuleID) },
	})
	var failed *GateFailedError
	if !errors.As(err, &failed) || failed.ExitCode() != ExitFailed {
		t.Fatalf("expected GateFailedError, got %v", err)
	}
	if rep == nil || rep.Summary.Errors != 1 || rep.Summary.Warnings != 1 {
		t.Fatalf("summary = %+v", rep.Summary)
	}
	w := rep.Findings.Warnings[0]
	if w.File != "main.go" || w.Line != 6 {
		t.Errorf("warning location = %s:%d, want main.go:6", w.File, w.Line)
	}
	if !reflect.DeepEqual(streamed, []string{"no-logs", "no-debug"}) {
		t.Errorf("streamed = %v", streamed)
	}

	written, err := report.ReadFile(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	if written.Summary.Passed {
		t.Error("written report should record the failure")
	}
}

func TestRunIsDeterministic(t *testing.T) {
	r, cfg := setup(t)
	r.Write("b.log", "")
	r.Write("a.log", "")
	opts := Options{Config: cfg, Getenv: testutil.Env(nil)}
	first, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Findings, second.Findings) {
		t.Errorf("findings differ:\n%+v\n%+v", first.Findings, second.Findings)
	}
}

func TestUnresolvableBaseStillChecksBranch(t *testing.T) {
	r, cfg := setup(t)
	r.Git("checkout", "--quiet", "-b", "wip")
	cfg.BaseBranch = "does-not-exist"

	rep, err := Run(context.Background(), Options{Config: cfg, Getenv: testutil.Env(nil)})
	if err != nil {
		t.Fatalf("unresolved base must not be fatal: %v", err)
	}
	if len(rep.Findings.Errors) != 1 || rep.Findings.Errors[0].RuleID != "branches" {
		t.Errorf("expected only the branch finding, got %+v", rep.Findings)
	}
}

func TestConfigErrors(t *testing.T) {
	_, cfg := setup(t)
	cfg.RulesFile = "missing.json"
	_, err := Check(context.Background(), Options{Config: cfg, Getenv: testutil.Env(nil)})
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.ExitCode() != ExitError {
		t.Errorf("expected ConfigError, got %v", err)
	}

	cfg = config.Default()
	cfg.RepoDir = t.TempDir()
	if _, err := Run(context.Background(), Options{Config: cfg}); !errors.As(err, &ce) {
		t.Errorf("expected ConfigError outside a repository, got %v", err)
	}
}

func TestSerializationError(t *testing.T) {
	_, cfg := setup(t)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.Output = filepath.Join(blocker, "report.json")
	_, err := Check(context.Background(), Options{Config: cfg, Getenv: testutil.Env(nil)})
	var se *SerializationError
	if !errors.As(err, &se) || se.ExitCode() != ExitError {
		t.Errorf("expected SerializationError, got %v", err)
	}
}

func TestExtensionFindingsJoinReport(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	r, cfg := setup(t)
	script := "#!/bin/sh\necho '[{\"severity\":\"warning\",\"rule_id\":\"custom\",\"message\":\"from '\"$DIFFGATE_CONTEXT\"'\"}]'\n"
	r.Write(".diffgate/checks/10-custom", script)
	if err := os.Chmod(filepath.Join(r.Dir, ".diffgate/checks/10-custom"), 0o755); err != nil {
		t.Fatal(err)
	}
	r.Write(".diffgate/checks/20-broken", "#!/bin/sh\nexit 1\n")
	if err := os.Chmod(filepath.Join(r.Dir, ".diffgate/checks/20-broken"), 0o755); err != nil {
		t.Fatal(err)
	}

	rep, err := Run(context.Background(), Options{Config: cfg, Getenv: testutil.Env(nil)})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Findings.Warnings) != 1 || rep.Findings.Warnings[0].Message != "from local" {
		t.Errorf("warnings = %+v", rep.Findings.Warnings)
	}
	if len(rep.Findings.Errors) != 1 || rep.Findings.Errors[0].RuleName != "20-broken" {
		t.Errorf("errors = %+v", rep.Findings.Errors)
	}
}

func useRules(t *testing.T, cfg *config.Config, doc string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.SetRulesFile(path)
}

func TestLongLineFileDoesNotHideFindings(t *testing.T) {
	r, cfg := setup(t)
	useRules(t, cfg, `{"rules": [
  {"id": "keys", "severity": "error", "type": "code_pattern", "message": "hardcoded key", "patterns": ["apiKey\\s*="]},
  {"id": "size", "severity": "warning", "type": "diff_size", "message": "too big", "max_lines": 1, "count_type": "added"}
]}`)
	r.Write("app.go", "package main\n\nvar apiKey = \"sk-live-123\"\n")
	r.Write("bundle.min.js", strings.Repeat("a", 11<<20))

	rep, err := Run(context.Background(), Options{Config: cfg, Getenv: testutil.Env(nil)})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Findings.Errors) != 1 {
		t.Fatalf("errors = %+v", rep.Findings.Errors)
	}
	if e := rep.Findings.Errors[0]; e.RuleID != "keys" || e.File != "app.go" || e.Line != 3 {
		t.Errorf("key finding = %+v", e)
	}
	if len(rep.Findings.Warnings) != 1 || !strings.Contains(rep.Findings.Warnings[0].Detail, "4 lines added") {
		t.Errorf("size warnings = %+v", rep.Findings.Warnings)
	}
}

func TestDiffSizeIgnoresUserDiffPrefixes(t *testing.T) {
	r, cfg := setup(t)
	useRules(t, cfg, `{"rules": [
  {"id": "size", "severity": "warning", "type": "diff_size", "message": "too big", "max_lines": 2, "count_type": "added"}
]}`)
	r.Git("config", "diff.noprefix", "true")
	r.Git("config", "diff.mnemonicPrefix", "true")
	r.Write("main.go", "package main\n\nfunc main() {}\n\nvar a = 1\nvar b = 2\n")

	rep, err := Run(context.Background(), Options{Config: cfg, Getenv: testutil.Env(nil)})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Findings.Warnings) != 1 || !strings.Contains(rep.Findings.Warnings[0].Detail, "3 lines added") {
		t.Fatalf("warnings = %+v", rep.Findings.Warnings)
	}
	if len(rep.Findings.Info) != 1 || rep.Findings.Info[0].Detail != "main.go (+3 -0)" {
		t.Errorf("breakdown = %+v", rep.Findings.Info)
	}
}

func TestNoExtensionsSkipsChecks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	r, cfg := setup(t)
	marker := filepath.Join(t.TempDir(), "ran")
	r.Write(".diffgate/checks/10-touch", "#!/bin/sh\ntouch "+marker+"\necho '[]'\n")
	if err := os.Chmod(filepath.Join(r.Dir, ".diffgate/checks/10-touch"), 0o755); err != nil {
		t.Fatal(err)
	}

	rep, err := Run(context.Background(), Options{Config: cfg, Getenv: testutil.Env(nil), NoExtensions: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Findings.All()) != 0 {
		t.Errorf("findings = %+v", rep.Findings)
	}
	if _, err := os.Stat(marker); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("extension ran despite NoExtensions: %v", err)
	}
}
