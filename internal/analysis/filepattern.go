package analysis

import (
	"fmt"

	"github.com/sprite-ai/diffgate/internal/match"
	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/rules"
)

// evalFilePattern flags every changed path matching a pattern, once per
// matching pattern.
func evalFilePattern(in *Input, r rules.Rule) ([]model.Finding, error) {
	globs, err := match.CompileGlobs(r.Patterns)
	if err != nil {
		return nil, err
	}
	var findings []model.Finding
	for _, path := range in.ChangeSet.Changed() {
		for _, g := range globs {
			if g.Match(path) {
				findings = append(findings, newFinding(r, path, 0, fmt.Sprintf("matches %q", g.String())))
			}
		}
	}
	return findings, nil
}
