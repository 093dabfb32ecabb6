package model

import (
	"encoding/json"
	"testing"
)

func TestSeverityString(t *testing.T) {
	tests := []struct {
		sev  Severity
		want string
	}{
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{Severity(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.sev.String(); got != tt.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tt.sev, got, tt.want)
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"error", SeverityError, false},
		{"ERROR", SeverityError, false},
		{"warning", SeverityWarning, false},
		{"warn", SeverityWarning, false},
		{" info ", SeverityInfo, false},
		{"critical", SeverityInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseSeverity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSeverity(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseSeverity(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLevel(t *testing.T) {
	tests := map[string]Severity{
		"error":    SeverityError,
		"Info":     SeverityInfo,
		"warn":     SeverityWarning,
		"critical": SeverityWarning,
		"":         SeverityWarning,
	}
	for in, want := range tests {
		if got := Level(in); got != want {
			t.Errorf("Level(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestFindingJSONSeverityIsText(t *testing.T) {
	data, err := json.Marshal(Finding{Severity: SeverityWarning, RuleID: "r1", File: "a.go", Line: 3})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["severity"] != "warning" {
		t.Errorf("severity = %v, want \"warning\"", raw["severity"])
	}
}

func TestFindingsAllOrder(t *testing.T) {
	f := Findings{
		Errors:   []Finding{{RuleID: "e"}},
		Warnings: []Finding{{RuleID: "w"}},
		Info:     []Finding{{RuleID: "i"}},
	}
	all := f.All()
	if len(all) != 3 || all[0].RuleID != "e" || all[1].RuleID != "w" || all[2].RuleID != "i" {
		t.Errorf("All() = %v, want errors, warnings, info", all)
	}
}
