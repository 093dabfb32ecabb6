package rules

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// StarterOptions shape the rule file written by `diffgate init`.
type StarterOptions struct {
	// BranchPatterns are the allowed source branch globs.
	BranchPatterns []string
	// MaxDiffLines caps the total changed lines; 0 uses 800.
	MaxDiffLines int
	// Strict fails the gate on any warning.
	Strict bool
}

// DefaultBranchPatterns is the branch naming scheme a starter file allows.
var DefaultBranchPatterns = []string{"feature/*", "fix/*", "chore/*", "release/*"}

// Starter returns a small, valid user rule document to start from.
func Starter(opts StarterOptions) *Document {
	if len(opts.BranchPatterns) == 0 {
		opts.BranchPatterns = DefaultBranchPatterns
	}
	if opts.MaxDiffLines <= 0 {
		opts.MaxDiffLines = 800
	}
	off := false

	doc := &Document{
		Rules: []Rule{
			{
				ID:              "branch-naming",
				Name:            "Branch naming",
				Severity:        "error",
				Type:            TypeBranchNaming,
				Message:         "Branch name does not follow the naming scheme",
				AllowedPatterns: opts.BranchPatterns,
			},
			{
				ID:           "debug-statements",
				Name:         "Debug statements",
				Severity:     "warning",
				Type:         TypeCodePattern,
				Message:      "Debug statement left in code",
				Patterns:     []string{`console\.log\(`, `\bdebugger\b`, `fmt\.Println\(`},
				FilePatterns: []string{"*.js", "*.ts", "*.go"},
			},
			{
				ID:        "diff-size",
				Name:      "Diff size",
				Severity:  "warning",
				Type:      TypeDiffSize,
				Message:   "Change is large; consider splitting it",
				MaxLines:  opts.MaxDiffLines,
				CountType: CountTotal,
			},
			{
				ID:             "changelog",
				Name:           "Changelog updated",
				Severity:       "info",
				Type:           TypeDependentFile,
				Message:        "Source changed without a changelog entry",
				Enabled:        &off,
				SourcePatterns: []string{"*"},
				SourceFolders:  []string{"src/"},
				DependentFiles: []string{"CHANGELOG.md"},
			},
		},
	}
	if opts.Strict {
		zero := 0
		doc.Settings.MaxWarnings = &zero
	}
	return doc
}

// Marshal encodes the document as YAML or JSON, chosen by the file
// extension the same way Parse chooses a decoder.
func (d *Document) Marshal(ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".yml", ".yaml":
		out, err := yaml.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		return out, nil
	default:
		out, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return append(out, '\n'), nil
	}
}
