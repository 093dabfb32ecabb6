package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/rules"
)

// topFiles is how many files the breakdown finding lists.
const topFiles = 10

type fileVolume struct {
	path    string
	added   int
	removed int
}

func (v fileVolume) count(countType string) int {
	switch countType {
	case rules.CountAdded:
		return v.added
	case rules.CountRemoved:
		return v.removed
	default:
		return v.added + v.removed
	}
}

// evalDiffSize measures the whole change set. Untracked files count as fully
// added, outside CI only.
func evalDiffSize(in *Input, r rules.Rule) ([]model.Finding, error) {
	countType := r.CountType
	if countType == "" {
		countType = rules.CountTotal
	}
	switch countType {
	case rules.CountAdded, rules.CountRemoved, rules.CountTotal:
	default:
		return nil, fmt.Errorf("unknown count_type %q", r.CountType)
	}
	if r.MaxLines <= 0 {
		return nil, fmt.Errorf("max_lines must be positive, got %d", r.MaxLines)
	}

	volumes, err := changeVolumes(in)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, v := range volumes {
		total += v.count(countType)
	}
	if total <= r.MaxLines {
		return nil, nil
	}

	sort.SliceStable(volumes, func(i, j int) bool {
		ci, cj := volumes[i].count(countType), volumes[j].count(countType)
		if ci != cj {
			return ci > cj
		}
		return volumes[i].path < volumes[j].path
	})
	if len(volumes) > topFiles {
		volumes = volumes[:topFiles]
	}
	var b strings.Builder
	for i, v := range volumes {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (+%d -%d)", v.path, v.added, v.removed)
	}

	primary := newFinding(r, model.SubjectDiff, 0,
		fmt.Sprintf("%d lines %s exceeds limit of %d", total, countType, r.MaxLines))
	breakdown := newFinding(r, model.SubjectDiff, 0, b.String())
	breakdown.Severity = model.SeverityInfo
	breakdown.Message = fmt.Sprintf("Largest changes (top %d by %s lines)", len(volumes), countType)
	return []model.Finding{primary, breakdown}, nil
}

// changeVolumes returns added and removed line counts for each path in the
// change set.
func changeVolumes(in *Input) ([]fileVolume, error) {
	inSet := make(map[string]bool)
	for _, p := range in.ChangeSet.Changed() {
		inSet[p] = true
	}
	for _, p := range in.ChangeSet.Deleted {
		inSet[p] = true
	}
	if len(inSet) == 0 {
		return nil, nil
	}

	ds, err := in.Lines.DiffSet()
	if err != nil {
		return nil, err
	}
	files, added, deleted := ds.Stats()
	in.logger().Debug("measured diff", "files", files, "added", added, "deleted", deleted)

	var volumes []fileVolume
	seen := make(map[string]bool)
	for _, f := range ds.Files {
		name := f.Name()
		if !inSet[name] || seen[name] {
			continue
		}
		seen[name] = true
		volumes = append(volumes, fileVolume{path: name, added: f.AddedLines, removed: f.DeletedLines})
	}

	if !in.Ctx.IsCI() {
		for _, p := range in.ChangeSet.Untracked {
			if seen[p] {
				continue
			}
			n, err := in.Lines.LineCount(p)
			if err != nil {
				in.logger().Warn("not counting unreadable file", "path", p, "err", err)
				continue
			}
			volumes = append(volumes, fileVolume{path: p, added: n})
		}
	}
	return volumes, nil
}
