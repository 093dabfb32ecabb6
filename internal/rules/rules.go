// Package rules loads the declarative rule documents a run evaluates.
package rules

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/diffgate/internal/model"
)

// Rule types.
const (
	TypeFilePattern   = "file_pattern"
	TypeCodePattern   = "code_pattern"
	TypeFileSize      = "file_size"
	TypeDiffSize      = "diff_size"
	TypeBranchNaming  = "branch_naming"
	TypeDependentFile = "dependent_file"
)

// KnownTypes lists every rule type an evaluator exists for.
var KnownTypes = []string{
	TypeFilePattern,
	TypeCodePattern,
	TypeFileSize,
	TypeDiffSize,
	TypeBranchNaming,
	TypeDependentFile,
}

// Count types for diff_size rules.
const (
	CountAdded   = "added"
	CountRemoved = "removed"
	CountTotal   = "total"
)

// Rule is one declarative check. Fields below Message only matter to the
// rule types that read them.
type Rule struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	Severity       string   `json:"severity" yaml:"severity"`
	Type           string   `json:"type" yaml:"type"`
	Message        string   `json:"message" yaml:"message"`
	TargetBranches []string `json:"target_branches,omitempty" yaml:"target_branches,omitempty"`
	Enabled        *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// file_pattern, code_pattern
	Patterns []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	// code_pattern, file_size
	FilePatterns    []string `json:"file_patterns,omitempty" yaml:"file_patterns,omitempty"`
	ExcludePatterns []string `json:"exclude_patterns,omitempty" yaml:"exclude_patterns,omitempty"`
	// file_size
	MaxSizeKB int64 `json:"max_size_kb,omitempty" yaml:"max_size_kb,omitempty"`
	// diff_size
	MaxLines  int    `json:"max_lines,omitempty" yaml:"max_lines,omitempty"`
	CountType string `json:"count_type,omitempty" yaml:"count_type,omitempty"`
	// branch_naming
	AllowedPatterns []string `json:"allowed_patterns,omitempty" yaml:"allowed_patterns,omitempty"`
	// dependent_file
	SourcePatterns []string `json:"source_patterns,omitempty" yaml:"source_patterns,omitempty"`
	SourceFolders  []string `json:"source_folders,omitempty" yaml:"source_folders,omitempty"`
	DependentFiles []string `json:"dependent_files,omitempty" yaml:"dependent_files,omitempty"`
}

// Level returns the parsed severity. Unknown names count as warnings.
func (r Rule) Level() model.Severity {
	return model.Level(r.Severity)
}

// IsEnabled reports whether the rule runs. Rules are enabled unless they say
// otherwise.
func (r Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// DisplayName falls back to the id when the rule has no name.
func (r Rule) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// Settings are the run-wide knobs of a rule document.
type Settings struct {
	FailOnErrors *bool    `json:"fail_on_errors,omitempty" yaml:"fail_on_errors,omitempty"`
	MaxWarnings  *int     `json:"max_warnings,omitempty" yaml:"max_warnings,omitempty"`
	ExcludeFiles []string `json:"exclude_files,omitempty" yaml:"exclude_files,omitempty"`
	Extensions   []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// FailsOnErrors defaults to true.
func (s Settings) FailsOnErrors() bool {
	return s.FailOnErrors == nil || *s.FailOnErrors
}

// WarningLimit returns the maximum tolerated warnings. ok is false when no
// limit is configured.
func (s Settings) WarningLimit() (limit int, ok bool) {
	if s.MaxWarnings == nil {
		return 0, false
	}
	return *s.MaxWarnings, true
}

// Document is one rule file.
type Document struct {
	Rules    []Rule   `json:"rules" yaml:"rules"`
	Settings Settings `json:"settings" yaml:"settings"`

	// Source is where the document was read from.
	Source string `json:"-" yaml:"-"`
}

//go:embed builtin.json
var builtinFS embed.FS

// BuiltinSource names the embedded rule set in logs and listings.
const BuiltinSource = "<builtin>"

// Builtin returns the rule set compiled into the binary.
func Builtin() (*Document, error) {
	data, err := builtinFS.ReadFile("builtin.json")
	if err != nil {
		return nil, fmt.Errorf("reading builtin rules: %w", err)
	}
	doc, err := Parse(data, ".json")
	if err != nil {
		return nil, fmt.Errorf("builtin rules: %w", err)
	}
	doc.Source = BuiltinSource
	return doc, nil
}

// Load reads a rule document, choosing the decoder by file extension.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules %s: %w", path, err)
	}
	doc, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// Parse decodes a document. ext selects YAML for ".yml" and ".yaml", JSON
// otherwise.
func Parse(data []byte, ext string) (*Document, error) {
	var doc Document
	switch strings.ToLower(ext) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
	}
	return &doc, nil
}

// Set is the merged view of every loaded document.
type Set struct {
	Rules    []Rule
	Settings Settings
	// Origins maps each rule index to the document it came from.
	Origins []string
}

// Merge concatenates rules in document order. Scalar settings from later
// documents override earlier ones; list settings accumulate.
func Merge(docs ...*Document) *Set {
	set := &Set{}
	for _, d := range docs {
		if d == nil {
			continue
		}
		for _, r := range d.Rules {
			set.Rules = append(set.Rules, r)
			set.Origins = append(set.Origins, d.Source)
		}
		if d.Settings.FailOnErrors != nil {
			set.Settings.FailOnErrors = d.Settings.FailOnErrors
		}
		if d.Settings.MaxWarnings != nil {
			set.Settings.MaxWarnings = d.Settings.MaxWarnings
		}
		set.Settings.ExcludeFiles = appendUnique(set.Settings.ExcludeFiles, d.Settings.ExcludeFiles...)
		set.Settings.Extensions = appendUnique(set.Settings.Extensions, d.Settings.Extensions...)
	}
	return set
}

func appendUnique(dst []string, src ...string) []string {
	for _, s := range src {
		dup := false
		for _, d := range dst {
			if d == s {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, s)
		}
	}
	return dst
}
