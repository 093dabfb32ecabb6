// Package changeset decides which paths a run evaluates.
package changeset

import (
	"sort"

	"github.com/sprite-ai/diffgate/internal/match"
	"github.com/sprite-ai/diffgate/internal/model"
)

// ChangeSet partitions the paths of one run. A path appears in at most one
// partition; untracked files are kept apart from Added even though both are
// new content.
type ChangeSet struct {
	// Base is the reference the set was computed against.
	Base string

	Added     []string
	Modified  []string
	Deleted   []string
	Untracked []string
}

// Changed returns every path that still exists after the change, sorted.
func (c *ChangeSet) Changed() []string {
	out := make([]string, 0, len(c.Added)+len(c.Modified)+len(c.Untracked))
	out = append(out, c.Added...)
	out = append(out, c.Modified...)
	out = append(out, c.Untracked...)
	sort.Strings(out)
	return out
}

// IsUntracked reports whether path is in the untracked partition.
func (c *ChangeSet) IsUntracked(path string) bool {
	i := sort.SearchStrings(c.Untracked, path)
	return i < len(c.Untracked) && c.Untracked[i] == path
}

// Empty reports whether nothing changed.
func (c *ChangeSet) Empty() bool {
	return len(c.Added)+len(c.Modified)+len(c.Deleted)+len(c.Untracked) == 0
}

// Filter returns a copy without the paths matched by exclude.
func (c *ChangeSet) Filter(exclude match.GlobSet) *ChangeSet {
	if len(exclude) == 0 {
		return c
	}
	keep := func(paths []string) []string {
		var out []string
		for _, p := range paths {
			if !exclude.MatchAny(p) {
				out = append(out, p)
			}
		}
		return out
	}
	return &ChangeSet{
		Base:      c.Base,
		Added:     keep(c.Added),
		Modified:  keep(c.Modified),
		Deleted:   keep(c.Deleted),
		Untracked: keep(c.Untracked),
	}
}

// Stats counts each partition.
func (c *ChangeSet) Stats() model.ChangeStats {
	return model.ChangeStats{
		Added:     len(c.Added),
		Modified:  len(c.Modified),
		Deleted:   len(c.Deleted),
		Untracked: len(c.Untracked),
	}
}
