package match

import (
	"fmt"
	"regexp"
	"strings"
)

// CompileContent compiles an extended regular expression used to search
// within a single line of text.
func CompileContent(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}
	return re, nil
}

// CompileContents compiles every pattern, failing on the first bad one.
func CompileContents(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := CompileContent(p)
		if err != nil {
			return nil, err
		}
		res = append(res, re)
	}
	return res, nil
}

// ContainsAny reports whether s contains any of the substrings. Matching is
// case-sensitive; empty substrings are ignored.
func ContainsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
