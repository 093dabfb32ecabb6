package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/sprite-ai/diffgate/internal/match"
	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/rules"
)

// maxExcerpt bounds the detail text of a code finding, in characters.
const maxExcerpt = 100

// evalCodePattern searches the added lines of every selected file. A line
// containing an exclude substring is skipped before any pattern is tried. A
// file whose lines cannot be produced is logged and skipped so the rest of
// the change set is still searched.
func evalCodePattern(in *Input, r rules.Rule) ([]model.Finding, error) {
	patterns, err := match.CompileContents(r.Patterns)
	if err != nil {
		return nil, err
	}
	filter, err := fileFilter(r.FilePatterns)
	if err != nil {
		return nil, err
	}

	var findings []model.Finding
	for _, path := range in.ChangeSet.Changed() {
		if len(filter) > 0 && !filter.MatchAny(path) {
			continue
		}
		if !in.exists(path) {
			continue
		}
		lines, err := in.Lines.AddedLines(path)
		if err != nil {
			in.logger().Warn("skipping unreadable file", "rule", r.ID, "path", path, "err", err)
			continue
		}
		for _, line := range lines {
			if match.ContainsAny(line.Content, r.ExcludePatterns) {
				continue
			}
			for _, re := range patterns {
				if re.MatchString(line.Content) {
					findings = append(findings, newFinding(r, path, line.Line, excerpt(line.Content)))
				}
			}
		}
	}
	return findings, nil
}

// excerpt trims s and cuts it to maxExcerpt characters.
func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= maxExcerpt {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxExcerpt-3]) + "..."
}
