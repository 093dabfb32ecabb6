package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func newCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	AddFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(newCmd(t), "", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseBranch != "main" || cfg.Output != DefaultOutput || cfg.Mode != "auto" || !cfg.Progress {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Target() != "main" {
		t.Errorf("Target = %q, want base branch", cfg.Target())
	}
	if cfg.RulesFileExplicit() {
		t.Error("default rules file should not count as explicit")
	}
}

func TestLayering(t *testing.T) {
	dir := t.TempDir()
	yaml := "base_branch: develop\noutput: from-file.json\nformat: markdown\nno_fetch: true\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DIFFGATE_OUTPUT", "from-env.json")
	t.Setenv("DIFFGATE_TARGET_BRANCH", "release/1.0")

	cfg, err := Load(newCmd(t, "--format", "json"), "", dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseBranch != "develop" {
		t.Errorf("BaseBranch = %q, want file value", cfg.BaseBranch)
	}
	if cfg.Output != "from-env.json" {
		t.Errorf("Output = %q, env should beat file", cfg.Output)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, flag should beat file", cfg.Format)
	}
	if !cfg.NoFetch {
		t.Error("NoFetch should come from file")
	}
	if cfg.Target() != "release/1.0" {
		t.Errorf("Target = %q", cfg.Target())
	}
}

func TestExplicitRulesFile(t *testing.T) {
	cfg, err := Load(newCmd(t, "--rules", "custom.yaml"), "", "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RulesFile != "custom.yaml" || !cfg.RulesFileExplicit() {
		t.Errorf("rules file = %q explicit=%v", cfg.RulesFile, cfg.RulesFileExplicit())
	}
}

func TestInvalid(t *testing.T) {
	if _, err := Load(newCmd(t, "--mode", "sometimes"), "", ""); err == nil {
		t.Error("expected error for bad mode")
	}
	if _, err := Load(newCmd(t), filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestForcedModeAndSetRulesFile(t *testing.T) {
	cfg := Default()
	if cfg.ForcedMode() != "" {
		t.Errorf("auto should not force a mode, got %q", cfg.ForcedMode())
	}
	cfg.Mode = "ci"
	if cfg.ForcedMode() != "ci" {
		t.Errorf("ForcedMode = %q, want ci", cfg.ForcedMode())
	}

	cfg.SetRulesFile(DefaultRulesFile)
	if !cfg.RulesFileExplicit() {
		t.Error("SetRulesFile should mark the file explicit even at the default path")
	}
}
