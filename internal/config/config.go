// Package config layers diffgate's runtime options: flags, then DIFFGATE_*
// environment variables, then an optional .diffgate.yaml, then defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultBaseBranch = "main"
	DefaultRulesFile  = ".diffgate/rules.json"
	DefaultOutput     = "diffgate-report.json"
	DefaultFormat     = "text"
	DefaultChecksDir  = ".diffgate/checks"
	DefaultLogLevel   = "info"
	DefaultMode       = "auto"

	// FileName is looked up in the search directory when no config file is
	// named explicitly.
	FileName = ".diffgate.yaml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "DIFFGATE"
)

// Config holds the options of one run. Rule content lives in rule files, not
// here.
type Config struct {
	BaseBranch   string `mapstructure:"base_branch" yaml:"base_branch"`
	TargetBranch string `mapstructure:"target_branch" yaml:"target_branch,omitempty"`
	RulesFile    string `mapstructure:"rules_file" yaml:"rules_file"`
	BuiltinRules string `mapstructure:"builtin_rules" yaml:"builtin_rules,omitempty"`
	NoBuiltin    bool   `mapstructure:"no_builtin" yaml:"no_builtin,omitempty"`
	Output       string `mapstructure:"output" yaml:"output"`
	Format       string `mapstructure:"format" yaml:"format"`
	ChecksDir    string `mapstructure:"checks_dir" yaml:"checks_dir"`
	NoFetch      bool   `mapstructure:"no_fetch" yaml:"no_fetch,omitempty"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	RepoDir      string `mapstructure:"repo_dir" yaml:"repo_dir,omitempty"`
	Mode         string `mapstructure:"mode" yaml:"mode"`
	Progress     bool   `mapstructure:"progress" yaml:"progress"`

	// rulesFileSet records whether RulesFile was chosen explicitly.
	rulesFileSet bool
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		BaseBranch: DefaultBaseBranch,
		RulesFile:  DefaultRulesFile,
		Output:     DefaultOutput,
		Format:     DefaultFormat,
		ChecksDir:  DefaultChecksDir,
		LogLevel:   DefaultLogLevel,
		Mode:       DefaultMode,
		Progress:   true,
	}
}

// Target returns the target branch, which defaults to the base branch.
func (c *Config) Target() string {
	if c.TargetBranch != "" {
		return c.TargetBranch
	}
	return c.BaseBranch
}

// RulesFileExplicit reports whether the rules file was named by a flag,
// environment variable or config file. A missing default file is fine; a
// missing explicit one is an error.
func (c *Config) RulesFileExplicit() bool {
	return c.rulesFileSet
}

// ForcedMode returns the execution mode to force, or "" to detect it.
func (c *Config) ForcedMode() string {
	if c.Mode == "auto" {
		return ""
	}
	return c.Mode
}

// SetRulesFile names the user rules file explicitly.
func (c *Config) SetRulesFile(path string) {
	c.RulesFile = path
	c.rulesFileSet = true
}

// Validate rejects option values no run can use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseBranch) == "" {
		return errors.New("base_branch must not be empty")
	}
	switch c.Mode {
	case "auto", "ci", "local":
	default:
		return fmt.Errorf("mode must be auto, ci or local, got %q", c.Mode)
	}
	if c.Output == "" {
		return errors.New("output must not be empty")
	}
	return nil
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"base-branch":   "base_branch",
	"target-branch": "target_branch",
	"rules":         "rules_file",
	"builtin-rules": "builtin_rules",
	"no-builtin":    "no_builtin",
	"output":        "output",
	"format":        "format",
	"checks-dir":    "checks_dir",
	"no-fetch":      "no_fetch",
	"log-level":     "log_level",
	"repo":          "repo_dir",
	"mode":          "mode",
	"progress":      "progress",
}

// AddFlags registers the run flags on cmd.
func AddFlags(cmd *cobra.Command) {
	d := Default()
	f := cmd.Flags()
	f.StringP("base-branch", "b", d.BaseBranch, "branch to compare against")
	f.StringP("target-branch", "t", "", "branch the change will merge into (default: base branch)")
	f.StringP("rules", "r", d.RulesFile, "user rule file (.json, .yml or .yaml)")
	f.String("builtin-rules", "", "replace the embedded built-in rule set with this file")
	f.Bool("no-builtin", false, "skip the built-in rule set")
	f.StringP("output", "o", d.Output, "path of the JSON report")
	f.StringP("format", "f", d.Format, "stdout format: text, json, markdown, html")
	f.String("checks-dir", d.ChecksDir, "directory of extension executables")
	f.Bool("no-fetch", false, "never fetch the base branch from origin")
	f.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	f.String("repo", "", "repository directory (default: current directory)")
	f.String("mode", d.Mode, "execution context: auto, ci, local")
	f.Bool("progress", d.Progress, "show progress on interactive terminals")
}

// Load resolves the configuration. configFile names a YAML file to read;
// when empty, FileName in searchDir is read if it exists.
func Load(cmd *cobra.Command, configFile, searchDir string) (*Config, error) {
	v := viper.New()
	d := Default()
	v.SetDefault("base_branch", d.BaseBranch)
	v.SetDefault("target_branch", d.TargetBranch)
	v.SetDefault("rules_file", d.RulesFile)
	v.SetDefault("builtin_rules", d.BuiltinRules)
	v.SetDefault("no_builtin", d.NoBuiltin)
	v.SetDefault("output", d.Output)
	v.SetDefault("format", d.Format)
	v.SetDefault("checks_dir", d.ChecksDir)
	v.SetDefault("no_fetch", d.NoFetch)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("repo_dir", d.RepoDir)
	v.SetDefault("mode", d.Mode)
	v.SetDefault("progress", d.Progress)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for name, key := range flagKeys {
			if fl := cmd.Flags().Lookup(name); fl != nil {
				if err := v.BindPFlag(key, fl); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile == "" && searchDir != "" {
		candidate := filepath.Join(searchDir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.rulesFileSet = cfg.RulesFile != DefaultRulesFile
	if cmd != nil && cmd.Flags().Changed("rules") {
		cfg.rulesFileSet = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
