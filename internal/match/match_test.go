package match

import "testing"

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.go", "main.go", true},
		{"*.go", "pkg/main.go", true}, // * crosses separators
		{"**/*.go", "pkg/sub/main.go", true},
		{"**/*.go", "main.go", false},
		{"vendor/**", "vendor/lib/a.go", true},
		{"vendor/*", "vendor/lib/a.go", true},
		{"*.min.js", "dist/app.min.js", true},
		{"*.min.js", "dist/app.js", false},
		{"file?.txt", "file1.txt", true},
		{"file?.txt", "file12.txt", false},
		{"[abc].md", "b.md", true},
		{"[!abc].md", "b.md", false},
		{"[!abc].md", "d.md", true},
		{"a+b(c).txt", "a+b(c).txt", true},
		{"unterminated[", "unterminated[", true},
		{"docs/*.md", "docs/readme.md", true},
		{"docs/*.md", "src/readme.md", false},
	}
	for _, tt := range tests {
		g, err := CompileGlob(tt.pattern)
		if err != nil {
			t.Fatalf("CompileGlob(%q): %v", tt.pattern, err)
		}
		if got := g.Match(tt.path); got != tt.want {
			t.Errorf("Glob(%q).Match(%q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

func TestGlobSetMatchAny(t *testing.T) {
	set, err := CompileGlobs([]string{"*.lock", "dist/**"})
	if err != nil {
		t.Fatal(err)
	}
	if !set.MatchAny("go.lock") {
		t.Error("expected go.lock to match")
	}
	if !set.MatchAny("dist/a/b.js") {
		t.Error("expected dist/a/b.js to match")
	}
	if set.MatchAny("src/main.go") {
		t.Error("src/main.go should not match")
	}
	var empty GlobSet
	if empty.MatchAny("anything") {
		t.Error("empty set should match nothing")
	}
}

func TestBranchMatches(t *testing.T) {
	tests := []struct {
		branch   string
		patterns []string
		want     bool
	}{
		{"main", []string{"main"}, true},
		{"release/1.2", []string{"main", "release/*"}, true},
		{"feature/login", []string{"feature/*", "fix/*"}, true},
		{"hotfix", []string{"feature/*", "fix/*"}, false},
		{"main", nil, false},
	}
	for _, tt := range tests {
		if got := BranchMatches(tt.branch, tt.patterns); got != tt.want {
			t.Errorf("BranchMatches(%q, %v) = %v, want %v", tt.branch, tt.patterns, got, tt.want)
		}
	}
}

func TestContentRegexIsSubstringMatch(t *testing.T) {
	re, err := CompileContent(`console\.log\(`)
	if err != nil {
		t.Fatal(err)
	}
	if !re.MatchString(`    console.log("x")`) {
		t.Error("expected unanchored match inside the line")
	}

	posix, err := CompileContent(`TODO[[:space:]]*:`)
	if err != nil {
		t.Fatal(err)
	}
	if !posix.MatchString("// TODO : fix") {
		t.Error("expected POSIX class to match")
	}
}

func TestCompileContentsRejectsBadPattern(t *testing.T) {
	if _, err := CompileContents([]string{"ok", "(unclosed"}); err == nil {
		t.Error("expected error for malformed regex")
	}
}

func TestContainsAny(t *testing.T) {
	if !ContainsAny("// nolint: ok", []string{"nolint"}) {
		t.Error("expected substring match")
	}
	if ContainsAny("// NOLINT", []string{"nolint"}) {
		t.Error("match must be case-sensitive")
	}
	if ContainsAny("anything", []string{""}) {
		t.Error("empty substring must be ignored")
	}
}
