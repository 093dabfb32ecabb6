// Package match holds the pattern primitives shared by the rule evaluators:
// shell-style globs for paths and branch names, content regexes, and
// substring excludes.
package match

import (
	"fmt"
	"regexp"
	"strings"
)

// Glob is a compiled shell-style pattern. `*` and `**` both match any run of
// characters, path separators included; `?` matches one character; `[...]`
// is a character class (`[!...]` negates).
type Glob struct {
	pattern string
	re      *regexp.Regexp
}

// CompileGlob turns a glob pattern into a reusable matcher.
func CompileGlob(pattern string) (*Glob, error) {
	var b strings.Builder
	b.WriteString(`^`)

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '*':
			for i+1 < len(runes) && runes[i+1] == '*' {
				i++
			}
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			end := classEnd(runes, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := runes[i+1 : end]
			b.WriteByte('[')
			if len(class) > 0 && class[0] == '!' {
				b.WriteByte('^')
				class = class[1:]
			}
			for _, cc := range class {
				if cc == '\\' || cc == '[' || cc == ']' {
					b.WriteByte('\\')
				}
				b.WriteRune(cc)
			}
			b.WriteByte(']')
			i = end
		case '\\':
			if i+1 < len(runes) {
				i++
				b.WriteString(regexp.QuoteMeta(string(runes[i])))
			} else {
				b.WriteString(`\\`)
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString(`$`)

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compiling glob %q: %w", pattern, err)
	}
	return &Glob{pattern: pattern, re: re}, nil
}

// classEnd returns the index of the `]` closing the class opened at start,
// or -1. A `]` right after `[` or `[!` is a literal member.
func classEnd(runes []rune, start int) int {
	j := start + 1
	if j < len(runes) && runes[j] == '!' {
		j++
	}
	if j < len(runes) && runes[j] == ']' {
		j++
	}
	for ; j < len(runes); j++ {
		if runes[j] == ']' {
			return j
		}
	}
	return -1
}

// Match reports whether s matches the whole pattern.
func (g *Glob) Match(s string) bool {
	return g.re.MatchString(s)
}

// String returns the source pattern.
func (g *Glob) String() string {
	return g.pattern
}

// GlobSet is an OR-combined list of globs.
type GlobSet []*Glob

// CompileGlobs compiles every pattern, failing on the first bad one.
func CompileGlobs(patterns []string) (GlobSet, error) {
	set := make(GlobSet, 0, len(patterns))
	for _, p := range patterns {
		g, err := CompileGlob(p)
		if err != nil {
			return nil, err
		}
		set = append(set, g)
	}
	return set, nil
}

// MatchAny reports whether s matches at least one glob in the set.
func (s GlobSet) MatchAny(str string) bool {
	for _, g := range s {
		if g.Match(str) {
			return true
		}
	}
	return false
}

// MatchGlob reports whether s matches pattern. Patterns that fail to compile
// never match.
func MatchGlob(pattern, s string) bool {
	g, err := CompileGlob(pattern)
	if err != nil {
		return false
	}
	return g.Match(s)
}

// BranchMatches reports whether branch equals, or glob-matches, any pattern.
func BranchMatches(branch string, patterns []string) bool {
	for _, p := range patterns {
		if p == branch || MatchGlob(p, branch) {
			return true
		}
	}
	return false
}
