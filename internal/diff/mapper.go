package diff

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sprite-ai/diffgate/internal/repo"
)

// AddedLine is content introduced by the change set.
type AddedLine struct {
	Path    string
	Line    int // 1-based, in the current file
	Content string
}

// sniffLen is how much of a file is checked for NUL bytes, the same window
// git uses to call a file binary.
const sniffLen = 8000

// Mapper produces AddedLines per file against one base reference.
type Mapper struct {
	repo      repo.Repo
	ctx       repo.ExecutionContext
	base      string
	untracked map[string]bool

	baseTree map[string]bool
	full     *DiffSet
}

// NewMapper builds a mapper for base. Untracked paths are read whole.
func NewMapper(r repo.Repo, ctx repo.ExecutionContext, base string, untracked []string) *Mapper {
	m := &Mapper{
		repo:      r,
		ctx:       ctx,
		base:      base,
		untracked: make(map[string]bool, len(untracked)),
	}
	for _, p := range untracked {
		m.untracked[p] = true
	}
	return m
}

// AddedLines returns the added lines of path in new-file order. A file that
// is identical to the base yields an empty slice.
func (m *Mapper) AddedLines(path string) ([]AddedLine, error) {
	if m.untracked[path] {
		return m.wholeFile(path)
	}

	inBase, err := m.inBaseTree(path)
	if err != nil {
		return nil, err
	}
	if !inBase {
		return m.wholeFile(path)
	}

	raw, err := m.repo.Diff(m.spec(path))
	if err != nil {
		return nil, err
	}
	ds, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	var lines []AddedLine
	for _, f := range ds.Files {
		lines = append(lines, f.Added()...)
	}
	return lines, nil
}

// DiffSet returns the parsed diff of the whole change set against the base.
// It is computed once per mapper.
func (m *Mapper) DiffSet() (*DiffSet, error) {
	if m.full != nil {
		return m.full, nil
	}
	raw, err := m.repo.Diff(m.spec(""))
	if err != nil {
		return nil, err
	}
	ds, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	m.full = ds
	return ds, nil
}

// LineCount returns the number of lines in a working-tree file.
func (m *Mapper) LineCount(path string) (int, error) {
	lines, err := ReadLines(filepath.Join(m.repo.Root(), path))
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}

// spec compares committed history only in CI, and the live working tree
// otherwise.
func (m *Mapper) spec(path string) repo.DiffSpec {
	if m.ctx.IsCI() {
		return repo.DiffSpec{From: m.base, MergeBase: true, Path: path}
	}
	return repo.DiffSpec{From: m.base, Path: path}
}

func (m *Mapper) inBaseTree(path string) (bool, error) {
	if m.baseTree == nil {
		tree, err := m.repo.TreeFiles(m.base)
		if err != nil {
			return false, err
		}
		m.baseTree = tree
	}
	return m.baseTree[path], nil
}

func (m *Mapper) wholeFile(path string) ([]AddedLine, error) {
	contents, err := ReadLines(filepath.Join(m.repo.Root(), path))
	if err != nil {
		return nil, err
	}
	lines := make([]AddedLine, len(contents))
	for i, c := range contents {
		lines[i] = AddedLine{Path: path, Line: i + 1, Content: c}
	}
	return lines, nil
}

// ReadLines reads a file as lines without their terminators. Lines have no
// length limit. A binary file, one with a NUL byte near its start, has no
// lines.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 64*1024)
	head, err := r.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return nil, nil
	}

	var lines []string
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			lines = append(lines, strings.TrimSuffix(line, "\r"))
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
}
