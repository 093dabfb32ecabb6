// Package diff turns git diffs into structured files and recovers the
// new-file line numbers of added content.
package diff

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// File represents a single file in a diff with its parsed fragments.
type File struct {
	OldName      string
	NewName      string
	IsDeleted    bool
	Fragments    []*gitdiff.TextFragment
	AddedLines   int
	DeletedLines int
}

// Name returns the path the file has after the change.
func (f *File) Name() string {
	if f.IsDeleted || f.NewName == "" {
		return f.OldName
	}
	return f.NewName
}

// Added walks the fragments and returns every added line with its position
// in the new file. Each hunk header sets the counter to its new-file start;
// added and context lines advance it, deleted lines do not.
func (f *File) Added() []AddedLine {
	var lines []AddedLine
	name := f.Name()
	for _, frag := range f.Fragments {
		lineNum := int(frag.NewPosition)
		for _, line := range frag.Lines {
			switch line.Op {
			case gitdiff.OpAdd:
				lines = append(lines, AddedLine{
					Path:    name,
					Line:    lineNum,
					Content: trimEOL(line.Line),
				})
				lineNum++
			case gitdiff.OpContext:
				lineNum++
			}
		}
	}
	return lines
}

// DiffSet holds the parsed diff for all files.
type DiffSet struct {
	Files []*File
}

// Stats returns aggregate statistics.
func (ds *DiffSet) Stats() (files, added, deleted int) {
	files = len(ds.Files)
	for _, f := range ds.Files {
		added += f.AddedLines
		deleted += f.DeletedLines
	}
	return
}

// Parse reads a unified diff string and returns a DiffSet.
func Parse(raw string) (*DiffSet, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	ds := &DiffSet{}
	for _, f := range parsed {
		df := &File{
			OldName:   f.OldName,
			NewName:   f.NewName,
			IsDeleted: f.IsDelete,
			Fragments: f.TextFragments,
		}
		for _, frag := range f.TextFragments {
			df.AddedLines += int(frag.LinesAdded)
			df.DeletedLines += int(frag.LinesDeleted)
		}
		ds.Files = append(ds.Files, df)
	}

	return ds, nil
}

func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
