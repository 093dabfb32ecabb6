package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sprite-ai/diffgate/internal/match"
	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/rules"
)

// evalDependentFile requires one of dependent_files to change whenever a
// trigger file does. Deleted paths count as changed on both sides.
func evalDependentFile(in *Input, r rules.Rule) ([]model.Finding, error) {
	if len(r.SourcePatterns) == 0 || len(r.DependentFiles) == 0 {
		return nil, errors.New("needs source_patterns and dependent_files")
	}
	sources, err := match.CompileGlobs(r.SourcePatterns)
	if err != nil {
		return nil, err
	}
	dependents, err := match.CompileGlobs(r.DependentFiles)
	if err != nil {
		return nil, err
	}

	touched := append(in.ChangeSet.Changed(), in.ChangeSet.Deleted...)
	sort.Strings(touched)

	var triggers []string
	for _, p := range touched {
		if sources.MatchAny(p) && inFolders(p, r.SourceFolders) {
			triggers = append(triggers, p)
		}
	}
	if len(triggers) == 0 {
		return nil, nil
	}
	for _, p := range touched {
		if dependents.MatchAny(p) {
			return nil, nil
		}
	}

	detail := fmt.Sprintf("changed: %s; expected a change to one of: %s",
		strings.Join(triggers, ", "), strings.Join(r.DependentFiles, ", "))
	return []model.Finding{newFinding(r, triggers[0], 0, detail)}, nil
}

// inFolders reports whether path lies under any folder. No folders means no
// restriction.
func inFolders(path string, folders []string) bool {
	if len(folders) == 0 {
		return true
	}
	for _, f := range folders {
		if strings.HasPrefix(path, f) {
			return true
		}
	}
	return false
}
