package rules

import (
	"fmt"
	"slices"

	"github.com/sprite-ai/diffgate/internal/match"
	"github.com/sprite-ai/diffgate/internal/model"
)

// Validate reports problems that will make rules misbehave. None of them
// stop a run; a broken rule is skipped or yields nothing at evaluation time.
func (s *Set) Validate() []string {
	var warnings []string
	seen := make(map[string]bool)
	for i, r := range s.Rules {
		where := fmt.Sprintf("rule %d", i+1)
		if i < len(s.Origins) && s.Origins[i] != "" {
			where = fmt.Sprintf("%s rule %d", s.Origins[i], i+1)
		}
		if r.ID == "" {
			warnings = append(warnings, where+": missing id")
		} else {
			if seen[r.ID] {
				warnings = append(warnings, fmt.Sprintf("%s: duplicate id %q", where, r.ID))
			}
			seen[r.ID] = true
			where = fmt.Sprintf("%s (%s)", where, r.ID)
		}
		if r.Type == "" {
			warnings = append(warnings, where+": missing type")
		} else if !slices.Contains(KnownTypes, r.Type) {
			warnings = append(warnings, fmt.Sprintf("%s: unknown type %q", where, r.Type))
		}
		if _, err := model.ParseSeverity(r.Severity); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v, treated as warning", where, err))
		}
		for _, p := range r.TargetBranches {
			if _, err := match.CompileGlob(p); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: target branch %v", where, err))
			}
		}
		warnings = append(warnings, typeWarnings(where, r)...)
	}
	for _, p := range s.Settings.ExcludeFiles {
		if _, err := match.CompileGlob(p); err != nil {
			warnings = append(warnings, fmt.Sprintf("settings.exclude_files: %v", err))
		}
	}
	if lim, ok := s.Settings.WarningLimit(); ok && lim < 0 {
		warnings = append(warnings, "settings.max_warnings is negative; any warning fails the run")
	}
	return warnings
}

func typeWarnings(where string, r Rule) []string {
	var w []string
	switch r.Type {
	case TypeFilePattern:
		if len(r.Patterns) == 0 {
			w = append(w, where+": no patterns")
		}
	case TypeCodePattern:
		if len(r.Patterns) == 0 {
			w = append(w, where+": no patterns")
		}
		if _, err := match.CompileContents(r.Patterns); err != nil {
			w = append(w, fmt.Sprintf("%s: %v", where, err))
		}
	case TypeFileSize:
		if r.MaxSizeKB <= 0 {
			w = append(w, where+": max_size_kb must be positive")
		}
	case TypeDiffSize:
		if r.MaxLines <= 0 {
			w = append(w, where+": max_lines must be positive")
		}
		switch r.CountType {
		case "", CountAdded, CountRemoved, CountTotal:
		default:
			w = append(w, fmt.Sprintf("%s: unknown count_type %q", where, r.CountType))
		}
	case TypeBranchNaming:
		if len(r.AllowedPatterns) == 0 {
			w = append(w, where+": no allowed_patterns")
		}
	case TypeDependentFile:
		if len(r.SourcePatterns) == 0 || len(r.DependentFiles) == 0 {
			w = append(w, where+": needs source_patterns and dependent_files")
		}
	}
	return w
}
