package analysis

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sprite-ai/diffgate/internal/match"
	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/rules"
)

// evalFileSize flags changed files larger than max_size_kb. Sizes are whole
// KiB, rounded down.
func evalFileSize(in *Input, r rules.Rule) ([]model.Finding, error) {
	if r.MaxSizeKB <= 0 {
		return nil, fmt.Errorf("max_size_kb must be positive, got %d", r.MaxSizeKB)
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
		if match.ContainsAny(path, r.ExcludePatterns) {
			continue
		}
		info, err := os.Stat(filepath.Join(in.Root, path))
		if err != nil || info.IsDir() {
			continue
		}
		kb := info.Size() / 1024
		if kb > r.MaxSizeKB {
			findings = append(findings, newFinding(r, path, 0,
				fmt.Sprintf("size %d KB exceeds limit of %d KB", kb, r.MaxSizeKB)))
		}
	}
	return findings, nil
}
