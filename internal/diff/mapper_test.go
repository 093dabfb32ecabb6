package diff

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/repo"
	"github.com/sprite-ai/diffgate/internal/testutil"
)

func openRepo(t *testing.T, r *testutil.GitRepo) *repo.Git {
	t.Helper()
	g, err := repo.Open(r.Dir)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestMapperUntrackedFileStartsAtOne(t *testing.T) {
	r := testutil.NewGitRepo(t)
	r.Write("base.txt", "x\n")
	r.CommitAll("init")
	r.Write("new.txt", "alpha\nbeta\ngamma\n")

	m := NewMapper(openRepo(t, r), repo.ExecutionContext{}, "main", []string{"new.txt"})
	lines, err := m.AddedLines("new.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, l := range lines {
		if l.Line != i+1 {
			t.Errorf("line %d numbered %d", i, l.Line)
		}
	}
	if lines[2].Content != "gamma" {
		t.Errorf("content = %q, want gamma", lines[2].Content)
	}
}

func TestMapperTrackedFileUsesHunks(t *testing.T) {
	r := testutil.NewGitRepo(t)
	r.Write("a.txt", "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n")
	r.CommitAll("init")
	r.Write("a.txt", "1\n2\n3\n4\n5\nNEW\n6\n7\n8\n9\n10\n")

	m := NewMapper(openRepo(t, r), repo.ExecutionContext{}, "main", nil)
	lines, err := m.AddedLines("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0].Line != 6 || lines[0].Content != "NEW" {
		t.Errorf("AddedLines = %+v, want one line 6 NEW", lines)
	}

	if _, err := m.AddedLines("missing.txt"); err == nil {
		t.Error("expected error for a path absent from base and disk")
	}
}

func TestMapperNewCommittedFileInCI(t *testing.T) {
	r := testutil.NewGitRepo(t)
	r.Write("a.txt", "base\n")
	r.CommitAll("init")
	r.Git("checkout", "--quiet", "-b", "feature")
	r.Write("b.txt", "one\ntwo\n")
	r.CommitAll("add b")

	ctx := repo.ExecutionContext{Mode: model.ModeCI}
	m := NewMapper(openRepo(t, r), ctx, "main", nil)
	lines, err := m.AddedLines("b.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0].Line != 1 || lines[1].Line != 2 {
		t.Errorf("AddedLines = %+v", lines)
	}

	same, err := m.AddedLines("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(same) != 0 {
		t.Errorf("identical file should yield no lines, got %+v", same)
	}

	ds, err := m.DiffSet()
	if err != nil {
		t.Fatal(err)
	}
	if _, added, _ := ds.Stats(); added != 2 {
		t.Errorf("DiffSet added = %d, want 2", added)
	}
}

func TestReadLinesLongLine(t *testing.T) {
	r := testutil.NewGitRepo(t)
	long := strings.Repeat("x", 11<<20)
	r.Write("bundle.min.js", long+"\r\ntail")

	lines, err := ReadLines(filepath.Join(r.Dir, "bundle.min.js"))
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if len(lines[0]) != len(long) {
		t.Errorf("first line has %d bytes, want %d", len(lines[0]), len(long))
	}
	if lines[1] != "tail" {
		t.Errorf("unterminated last line = %q, want tail", lines[1])
	}
}

func TestReadLinesBinary(t *testing.T) {
	r := testutil.NewGitRepo(t)
	r.Write("logo.png", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\n")

	lines, err := ReadLines(filepath.Join(r.Dir, "logo.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("binary file should have no lines, got %d", len(lines))
	}
}

func TestMapperUntrackedLongLineFile(t *testing.T) {
	r := testutil.NewGitRepo(t)
	r.Write("base.txt", "x\n")
	r.CommitAll("init")
	r.Write("bundle.min.js", strings.Repeat("y", 11<<20)+"\n")

	m := NewMapper(openRepo(t, r), repo.ExecutionContext{}, "main", []string{"bundle.min.js"})
	lines, err := m.AddedLines("bundle.min.js")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0].Line != 1 {
		t.Errorf("AddedLines returned %d lines, want one at line 1", len(lines))
	}
	n, err := m.LineCount("bundle.min.js")
	if err != nil || n != 1 {
		t.Errorf("LineCount = %d, %v; want 1", n, err)
	}
}
