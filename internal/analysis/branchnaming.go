package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sprite-ai/diffgate/internal/match"
	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/rules"
)

// evalBranchNaming checks the source branch against allowed_patterns. The
// target-branch gate is applied again here so a rule for another target
// never looks at the branch name.
func evalBranchNaming(in *Input, r rules.Rule) ([]model.Finding, error) {
	if !Applies(r, in.TargetBranch) {
		return nil, nil
	}
	if len(r.AllowedPatterns) == 0 {
		return nil, errors.New("no allowed_patterns")
	}
	if in.SourceBranch == "" {
		return nil, errors.New("source branch unknown")
	}
	if match.BranchMatches(in.SourceBranch, r.AllowedPatterns) {
		return nil, nil
	}
	detail := fmt.Sprintf("branch %q does not match any allowed pattern: %s",
		in.SourceBranch, strings.Join(r.AllowedPatterns, ", "))
	return []model.Finding{newFinding(r, model.SubjectBranch, 0, detail)}, nil
}
