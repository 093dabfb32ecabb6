package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sprite-ai/diffgate/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "rules.json", `{
  "rules": [
    {"id": "r1", "name": "No logs", "severity": "warning", "type": "file_pattern", "patterns": ["*.log"]},
    {"id": "r2", "severity": "error", "type": "diff_size", "max_lines": 10, "count_type": "added", "enabled": false}
  ],
  "settings": {"fail_on_errors": false, "max_warnings": 3, "exclude_files": ["docs/*"]}
}`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Source != path {
		t.Errorf("Source = %q", doc.Source)
	}
	if len(doc.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(doc.Rules))
	}
	if doc.Rules[0].Level() != model.SeverityWarning {
		t.Errorf("r1 level = %v", doc.Rules[0].Level())
	}
	if doc.Rules[1].IsEnabled() {
		t.Error("r2 should be disabled")
	}
	if doc.Rules[1].DisplayName() != "r2" {
		t.Errorf("DisplayName = %q, want id fallback", doc.Rules[1].DisplayName())
	}
	if doc.Settings.FailsOnErrors() {
		t.Error("fail_on_errors should be false")
	}
	if lim, ok := doc.Settings.WarningLimit(); !ok || lim != 3 {
		t.Errorf("WarningLimit = %d, %v", lim, ok)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "rules.yaml", `
rules:
  - id: branch
    name: Branch names
    severity: error
    type: branch_naming
    target_branches: [main, "release/*"]
    allowed_patterns: ["feature/*", "fix/*"]
settings:
  exclude_files: ["*.min.js"]
`)
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	r := doc.Rules[0]
	if r.Type != TypeBranchNaming || len(r.AllowedPatterns) != 2 || r.TargetBranches[1] != "release/*" {
		t.Errorf("unexpected rule: %+v", r)
	}
	if !doc.Settings.FailsOnErrors() {
		t.Error("fail_on_errors should default to true")
	}
	if _, ok := doc.Settings.WarningLimit(); ok {
		t.Error("max_warnings should default to unbounded")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := writeFile(t, "bad.json", `{"rules": [`)
	if _, err := Load(bad); err == nil {
		t.Error("expected error for malformed json")
	}
}

func TestBuiltin(t *testing.T) {
	doc, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin failed: %v", err)
	}
	if doc.Source != BuiltinSource {
		t.Errorf("Source = %q", doc.Source)
	}
	if len(doc.Rules) == 0 {
		t.Fatal("builtin rule set is empty")
	}
	if w := Merge(doc).Validate(); len(w) != 0 {
		t.Errorf("builtin rules should validate cleanly, got %v", w)
	}
}

func TestMerge(t *testing.T) {
	no := false
	five := 5
	builtin := &Document{
		Source:   "builtin",
		Rules:    []Rule{{ID: "b1"}, {ID: "b2"}},
		Settings: Settings{ExcludeFiles: []string{"vendor/*"}},
	}
	user := &Document{
		Source:   "user",
		Rules:    []Rule{{ID: "u1"}},
		Settings: Settings{FailOnErrors: &no, MaxWarnings: &five, ExcludeFiles: []string{"vendor/*", "gen/*"}},
	}
	set := Merge(builtin, nil, user)

	var ids []string
	for _, r := range set.Rules {
		ids = append(ids, r.ID)
	}
	if strings.Join(ids, ",") != "b1,b2,u1" {
		t.Errorf("rule order = %v, builtin rules must come first", ids)
	}
	if set.Origins[2] != "user" {
		t.Errorf("origin of u1 = %q", set.Origins[2])
	}
	if set.Settings.FailsOnErrors() {
		t.Error("user fail_on_errors should override")
	}
	if lim, _ := set.Settings.WarningLimit(); lim != 5 {
		t.Errorf("max_warnings = %d", lim)
	}
	if strings.Join(set.Settings.ExcludeFiles, ",") != "vendor/*,gen/*" {
		t.Errorf("exclude_files = %v", set.Settings.ExcludeFiles)
	}
}

func TestValidate(t *testing.T) {
	set := Merge(&Document{Rules: []Rule{
		{ID: "ok", Severity: "error", Type: TypeFilePattern, Patterns: []string{"*.exe"}},
		{ID: "ok", Severity: "error", Type: TypeFilePattern, Patterns: []string{"*.dll"}},
		{Severity: "error", Type: TypeFilePattern, Patterns: []string{"*"}},
		{ID: "sev", Severity: "fatal", Type: TypeFilePattern, Patterns: []string{"*"}},
		{ID: "typ", Severity: "info", Type: "mystery"},
		{ID: "re", Severity: "info", Type: TypeCodePattern, Patterns: []string{"("}},
		{ID: "count", Severity: "info", Type: TypeDiffSize, MaxLines: 5, CountType: "words"},
	}})
	warnings := set.Validate()
	joined := strings.Join(warnings, "\n")
	for _, want := range []string{"duplicate id", "missing id", "unknown severity", "unknown type", "compiling pattern", "unknown count_type"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected a warning containing %q, got:\n%s", want, joined)
		}
	}
	if set.Rules[3].Level() != model.SeverityWarning {
		t.Error("unknown severity should evaluate as warning")
	}
}
