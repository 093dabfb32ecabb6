// Package gate runs a complete check: load rules, resolve the change set,
// evaluate, run extensions and seal the report.
package gate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/sprite-ai/diffgate/internal/analysis"
	"github.com/sprite-ai/diffgate/internal/changeset"
	"github.com/sprite-ai/diffgate/internal/config"
	"github.com/sprite-ai/diffgate/internal/diff"
	"github.com/sprite-ai/diffgate/internal/extension"
	"github.com/sprite-ai/diffgate/internal/logging"
	"github.com/sprite-ai/diffgate/internal/match"
	"github.com/sprite-ai/diffgate/internal/model"
	"github.com/sprite-ai/diffgate/internal/progress"
	"github.com/sprite-ai/diffgate/internal/repo"
	"github.com/sprite-ai/diffgate/internal/report"
	"github.com/sprite-ai/diffgate/internal/rules"
)

// Options configure a run.
type Options struct {
	Config  *config.Config
	Version string
	// Getenv reads the environment; defaults to os.Getenv.
	Getenv func(string) string
	Log    *log.Logger
	// Progress draws rule progress; defaults to no output.
	Progress progress.Manager
	// OnFinding observes findings as they are recorded.
	OnFinding func(model.Finding)
	// NoExtensions skips checks_dir and settings.extensions executables.
	NoExtensions bool
}

func (o *Options) defaults() {
	if o.Config == nil {
		o.Config = config.Default()
	}
	if o.Getenv == nil {
		o.Getenv = os.Getenv
	}
	if o.Log == nil {
		o.Log = logging.Discard()
	}
	if o.Progress == nil {
		o.Progress = progress.NoOp{}
	}
}

// LoadRules reads the built-in and user rule documents in evaluation order.
// A missing user file is only an error when it was named explicitly.
func LoadRules(cfg *config.Config, root string, logger *log.Logger) (*rules.Set, error) {
	var docs []*rules.Document
	if !cfg.NoBuiltin {
		var (
			doc *rules.Document
			err error
		)
		if cfg.BuiltinRules != "" {
			doc, err = rules.Load(resolvePath(root, cfg.BuiltinRules))
		} else {
			doc, err = rules.Builtin()
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	userPath := resolvePath(root, cfg.RulesFile)
	if _, err := os.Stat(userPath); errors.Is(err, os.ErrNotExist) && !cfg.RulesFileExplicit() {
		logger.Debug("no user rule file", "path", userPath)
	} else {
		doc, err := rules.Load(userPath)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	set := rules.Merge(docs...)
	for _, w := range set.Validate() {
		logger.Warn("rule validation", "problem", w)
	}
	return set, nil
}

// Run performs a check in the repository named by the configuration and
// returns the sealed report. Only configuration problems are errors; the
// verdict is in the report summary.
func Run(ctx context.Context, opts Options) (*model.Report, error) {
	opts.defaults()
	cfg := opts.Config
	logger := opts.Log

	dir := cfg.RepoDir
	if dir == "" {
		dir = "."
	}
	g, err := repo.Open(dir)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	root := g.Root()

	set, err := LoadRules(cfg, root, logger)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	exclude, err := match.CompileGlobs(set.Settings.ExcludeFiles)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("settings.exclude_files: %w", err)}
	}

	execCtx := repo.DetectContext(opts.Getenv, cfg.ForcedMode())
	logger.Debug("execution context", "mode", execCtx.Mode, "provider", execCtx.Provider)

	current, err := g.CurrentBranch()
	if err != nil {
		logger.Warn("could not read current branch", "err", err)
	}
	head, err := g.HeadRevision()
	if err != nil {
		logger.Warn("could not read HEAD", "err", err)
	}

	resolver := &changeset.Resolver{Repo: g, Ctx: execCtx, Log: logger, NoFetch: cfg.NoFetch}
	cs, err := resolver.Resolve(cfg.BaseBranch)
	if err != nil {
		logger.Warn("change set unavailable, continuing without it", "base", cfg.BaseBranch, "err", err)
		if cs == nil {
			cs = &changeset.ChangeSet{Base: cfg.BaseBranch}
		}
	}
	cs = cs.Filter(exclude)

	builder := report.NewBuilder(model.Report{
		Version:       opts.Version,
		Mode:          execCtx.Mode,
		CurrentBranch: current,
		BaseBranch:    cfg.BaseBranch,
		TargetBranch:  cfg.Target(),
		HeadCommit:    head,
	})
	builder.SetBaseRef(cs.Base)
	builder.SetChanges(cs.Stats())

	res := &analysis.Results{OnFinding: opts.OnFinding}
	in := &analysis.Input{
		Root:         root,
		Ctx:          execCtx,
		ChangeSet:    cs,
		Lines:        diff.NewMapper(g, execCtx, cs.Base, cs.Untracked),
		TargetBranch: cfg.Target(),
		SourceBranch: execCtx.SourceBranch(current),
		Log:          logger,
	}
	engine := analysis.NewEngine(logger)
	engine.Progress = opts.Progress
	engine.Run(in, set, res)

	if opts.NoExtensions {
		logger.Debug("extensions disabled for this run")
	} else {
		runExtensions(ctx, cfg, root, set, in, res, logger)
	}

	rep, err := builder.Finalize(res, set.Settings)
	if err != nil {
		return nil, err
	}
	logger.Info("check complete",
		"findings", res.Len(),
		"summary", res.String(),
		"passed", rep.Summary.Passed)
	return rep, nil
}

func runExtensions(ctx context.Context, cfg *config.Config, root string, set *rules.Set, in *analysis.Input, res *analysis.Results, logger *log.Logger) {
	var paths []string
	if cfg.ChecksDir != "" {
		found, err := extension.Discover(resolvePath(root, cfg.ChecksDir))
		if err != nil {
			logger.Warn("could not list extensions", "err", err)
		}
		paths = found
	}
	for _, p := range set.Settings.Extensions {
		paths = append(paths, resolvePath(root, p))
	}
	if len(paths) == 0 {
		return
	}

	runner := &extension.Runner{
		Root: root,
		Log:  logger,
		Vars: extension.Vars{
			BaseBranch:   cfg.BaseBranch,
			TargetBranch: cfg.Target(),
			RulesFile:    resolvePath(root, cfg.RulesFile),
			Output:       cfg.Output,
			Mode:         in.Ctx.Mode,
		},
	}
	input := extension.Input{
		BaseBranch:   cfg.BaseBranch,
		TargetBranch: in.TargetBranch,
		SourceBranch: in.SourceBranch,
		CI:           in.Ctx.IsCI(),
		ChangeSet:    extension.NewChangeSet(in.ChangeSet),
	}
	runner.RunAll(ctx, paths, input, res)
}

// Check runs, writes the JSON report to the configured output and turns a
// failing verdict into a GateFailedError.
func Check(ctx context.Context, opts Options) (*model.Report, error) {
	opts.defaults()
	rep, err := Run(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := opts.Config.Output
	if err := report.WriteFile(out, rep); err != nil {
		return nil, &SerializationError{Path: out, Err: err}
	}
	if !rep.Summary.Passed {
		return rep, &GateFailedError{Summary: rep.Summary}
	}
	return rep, nil
}

func resolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
