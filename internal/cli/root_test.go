package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sprite-ai/diffgate/internal/gate"
	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/report"
	"github.com/sprite-ai/diffgate/internal/rules"
	"github.com/sprite-ai/diffgate/internal/testutil"
)

// execute runs the root command with args and returns stdout. Flags are
// reset afterwards since the commands are package-level.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, want := range []string{"check", "rules", "init", "view", "serve", "version"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}

func TestVersionOutput(t *testing.T) {
	// version vars are set via ldflags; in tests they have their defaults
	if version != "dev" {
		t.Errorf("expected default version %q, got %q", "dev", version)
	}
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "diffgate dev") {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestInitWritesStarter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")

	out, err := execute(t, "init", "--path", path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Created "+path) {
		t.Errorf("unexpected output %q", out)
	}
	doc, err := rules.Load(path)
	if err != nil {
		t.Fatalf("starter does not load: %v", err)
	}
	if len(doc.Rules) == 0 {
		t.Error("starter has no rules")
	}

	if _, err := execute(t, "init", "--path", path); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("expected refusal to overwrite, got %v", err)
	}
	if _, err := execute(t, "init", "--path", path, "--force"); err != nil {
		t.Errorf("--force: %v", err)
	}
}

const cliRules = `{
  "rules": [
    {"id": "no-logs", "severity": "error", "type": "file_pattern", "message": "log file", "patterns": ["*.log"]},
    {"id": "release-only", "severity": "info", "type": "file_pattern", "message": "x", "patterns": ["*"], "target_branches": ["release/*"]},
    {"id": "off", "severity": "info", "type": "file_pattern", "message": "x", "patterns": ["*"], "enabled": false}
  ]
}`

func newCLIRepo(t *testing.T) *testutil.GitRepo {
	t.Helper()
	r := testutil.NewGitRepo(t)
	r.Write(".diffgate/rules.json", cliRules)
	r.Write("main.go", "package main\n")
	r.CommitAll("init")
	r.Git("checkout", "--quiet", "-b", "feature/cli")
	return r
}

func TestCheckCommand(t *testing.T) {
	r := newCLIRepo(t)
	output := filepath.Join(t.TempDir(), "report.json")

	common := []string{"check", "--repo", r.Dir, "--mode", "local", "--no-builtin", "--no-fetch",
		"--progress=false", "--log-level", "error", "-o", output, "-f", "json"}

	out, err := execute(t, common...)
	if err != nil {
		t.Fatalf("clean check: %v\n%s", err, out)
	}
	var rep model.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("stdout is not a JSON report: %v\n%s", err, out)
	}
	if !rep.Summary.Passed {
		t.Errorf("expected pass, got %+v", rep.Summary)
	}

	r.Write("debug.log", "noise\n")
	out, err = execute(t, common...)
	var failed *gate.GateFailedError
	if !errors.As(err, &failed) || failed.ExitCode() != gate.ExitFailed {
		t.Fatalf("expected gate failure, got %v", err)
	}
	if !strings.Contains(out, "debug.log") {
		t.Errorf("summary should name the offending file:\n%s", out)
	}
	written, err := report.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if written.Summary.Errors != 1 {
		t.Errorf("written report errors = %d", written.Summary.Errors)
	}
}

func TestCheckCommandConfigError(t *testing.T) {
	_, err := execute(t, "check", "--repo", t.TempDir(), "--format", "xml", "--progress=false")
	var ce *gate.ConfigError
	if !errors.As(err, &ce) || ce.ExitCode() != gate.ExitError {
		t.Errorf("expected ConfigError, got %v", err)
	}
}

func TestRulesCommand(t *testing.T) {
	r := newCLIRepo(t)

	out, err := execute(t, "rules", "--repo", r.Dir, "--no-builtin", "--log-level", "error")
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	for _, want := range []string{"Target branch: main", "no-logs", "release-only", "disabled", "3 rule(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestViewMissingReport(t *testing.T) {
	_, err := execute(t, "view", filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Error("expected error for a missing report")
	}
}
