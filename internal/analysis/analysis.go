// Package analysis evaluates rules against a change set and collects the
// findings they produce.
package analysis

import (
	"fmt"
	"strings"

	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/rules"
)

// Results accumulates findings for one run. It is not safe for concurrent
// use; evaluation is sequential.
type Results struct {
	findings model.Findings
	order    []model.Finding

	// OnFinding, when set, is called after each finding is recorded.
	OnFinding func(model.Finding)
}

// Add records a finding. A severity outside the known levels is recorded as
// a warning, matching how rules treat unknown names.
func (r *Results) Add(f model.Finding) {
	switch f.Severity {
	case model.SeverityError:
		r.findings.Errors = append(r.findings.Errors, f)
	case model.SeverityInfo:
		r.findings.Info = append(r.findings.Info, f)
	default:
		f.Severity = model.SeverityWarning
		r.findings.Warnings = append(r.findings.Warnings, f)
	}
	r.order = append(r.order, f)
	if r.OnFinding != nil {
		r.OnFinding(f)
	}
}

// AddResult is the entry point shared by evaluators and extensions.
func (r *Results) AddResult(severity model.Severity, ruleID, ruleName, message, detail, file string, line int) {
	r.Add(model.Finding{
		Severity: severity,
		RuleID:   ruleID,
		RuleName: ruleName,
		Message:  message,
		Detail:   detail,
		File:     file,
		Line:     line,
	})
}

// Findings returns the findings partitioned by severity.
func (r *Results) Findings() model.Findings {
	return r.findings
}

// All returns findings in the order they were recorded.
func (r *Results) All() []model.Finding {
	return r.order
}

// Len returns the number of findings.
func (r *Results) Len() int {
	return len(r.order)
}

// Counts returns the number of findings per severity.
func (r *Results) Counts() (errors, warnings, info int) {
	return len(r.findings.Errors), len(r.findings.Warnings), len(r.findings.Info)
}

// Passed applies the verdict: errors fail the run when fail_on_errors is on,
// and so does exceeding max_warnings.
func (r *Results) Passed(s rules.Settings) bool {
	errs, warns, _ := r.Counts()
	if errs > 0 && s.FailsOnErrors() {
		return false
	}
	if limit, ok := s.WarningLimit(); ok && warns > limit {
		return false
	}
	return true
}

// Summary returns counts and the verdict.
func (r *Results) Summary(s rules.Settings) model.Summary {
	errs, warns, info := r.Counts()
	return model.Summary{
		Errors:   errs,
		Warnings: warns,
		Info:     info,
		Passed:   r.Passed(s),
	}
}

// String returns a one-line summary of findings.
func (r *Results) String() string {
	if len(r.order) == 0 {
		return "No issues found"
	}
	errs, warns, info := r.Counts()
	var parts []string
	for _, c := range []struct {
		n    int
		name string
	}{{errs, "error"}, {warns, "warning"}, {info, "info"}} {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, c.name))
		}
	}
	return strings.Join(parts, ", ")
}
