package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/sprite-ai/diffgate/internal/config"
	"github.com/sprite-ai/diffgate/internal/gate"
	"github.com/sprite-ai/diffgate/internal/model"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.Version})
}

// --- Check ---

// checkRequest overrides the server defaults for one run. Empty fields keep
// the default.
type checkRequest struct {
	RepoDir      string `json:"repo_dir"`
	BaseBranch   string `json:"base_branch,omitempty"`
	TargetBranch string `json:"target_branch,omitempty"`
	RulesFile    string `json:"rules_file,omitempty"`
	NoBuiltin    bool   `json:"no_builtin,omitempty"`
	NoFetch      bool   `json:"no_fetch,omitempty"`
	Mode         string `json:"mode,omitempty"`
}

// toConfig applies the request to a copy of the server defaults.
func (req checkRequest) toConfig(defaults config.Config) (*config.Config, error) {
	cfg := defaults
	cfg.RepoDir = req.RepoDir
	if req.BaseBranch != "" {
		cfg.BaseBranch = req.BaseBranch
	}
	if req.TargetBranch != "" {
		cfg.TargetBranch = req.TargetBranch
	}
	if req.RulesFile != "" {
		cfg.SetRulesFile(req.RulesFile)
	}
	if req.Mode != "" {
		cfg.Mode = req.Mode
	}
	cfg.NoBuiltin = cfg.NoBuiltin || req.NoBuiltin
	cfg.NoFetch = cfg.NoFetch || req.NoFetch
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// run executes one check for req, reporting findings to onFinding as they
// are recorded.
func (s *Server) run(ctx context.Context, req checkRequest, onFinding func(model.Finding)) (*model.Report, error) {
	if req.RepoDir == "" {
		return nil, &gate.ConfigError{Err: errors.New("repo_dir is required")}
	}
	cfg, err := req.toConfig(s.Defaults)
	if err != nil {
		return nil, &gate.ConfigError{Err: err}
	}
	s.log.Debug("api check", "repo", cfg.RepoDir, "base", cfg.BaseBranch, "extensions", s.AllowExtensions)
	return gate.Run(ctx, gate.Options{
		Config:       cfg,
		Version:      s.Version,
		Getenv:       s.Getenv,
		Log:          s.log,
		OnFinding:    onFinding,
		NoExtensions: !s.AllowExtensions,
	})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	rep, err := s.run(r.Context(), req, nil)
	if err != nil {
		s.writeError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

// statusFor maps a run error onto an HTTP status.
func statusFor(err error) int {
	var cfgErr *gate.ConfigError
	if errors.As(err, &cfgErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
