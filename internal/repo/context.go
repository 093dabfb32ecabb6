package repo

import (
	"github.com/sprite-ai/diffgate/internal/model"
)

// ciSignals are environment variables whose presence marks a CI run.
var ciSignals = []struct {
	env      string
	provider string
}{
	{"GITHUB_ACTIONS", "github-actions"},
	{"GITLAB_CI", "gitlab"},
	{"BUILDKITE", "buildkite"},
	{"CIRCLECI", "circleci"},
	{"TRAVIS", "travis"},
	{"JENKINS_URL", "jenkins"},
	{"TF_BUILD", "azure-pipelines"},
	{"BITBUCKET_BUILD_NUMBER", "bitbucket"},
	{"TEAMCITY_VERSION", "teamcity"},
	{"CI", "generic"},
}

// headBranchVars carry the pull request's source branch on CI systems that
// check out a detached HEAD.
var headBranchVars = []string{
	"GITHUB_HEAD_REF",
	"CI_MERGE_REQUEST_SOURCE_BRANCH_NAME",
	"CI_COMMIT_REF_NAME",
	"BUILDKITE_BRANCH",
	"CIRCLE_BRANCH",
	"TRAVIS_PULL_REQUEST_BRANCH",
	"CHANGE_BRANCH",
	"BITBUCKET_BRANCH",
	"SYSTEM_PULLREQUEST_SOURCEBRANCH",
}

// ExecutionContext is resolved once per run and threaded into every
// component whose comparison semantics depend on it.
type ExecutionContext struct {
	Mode       model.ExecutionMode
	Provider   string
	HeadBranch string
}

// IsCI reports whether the run sees committed history only.
func (c ExecutionContext) IsCI() bool {
	return c.Mode == model.ModeCI
}

// DetectContext inspects the environment through getenv. A forced mode of
// "ci" or "local" skips detection of the mode but still reads the head
// branch override.
func DetectContext(getenv func(string) string, forced string) ExecutionContext {
	ctx := ExecutionContext{Mode: model.ModeLocal}
	for _, sig := range ciSignals {
		v := getenv(sig.env)
		if v != "" && v != "false" && v != "0" {
			ctx.Mode = model.ModeCI
			ctx.Provider = sig.provider
			break
		}
	}
	switch model.ExecutionMode(forced) {
	case model.ModeCI:
		ctx.Mode = model.ModeCI
	case model.ModeLocal:
		ctx.Mode = model.ModeLocal
		ctx.Provider = ""
	}
	for _, name := range headBranchVars {
		if v := getenv(name); v != "" {
			ctx.HeadBranch = v
			break
		}
	}
	return ctx
}

// DetachedHEAD is what CurrentBranch reports when no branch is checked out.
const DetachedHEAD = "HEAD"

// SourceBranch names the incoming branch. The CI head-branch override is only
// consulted when HEAD is detached.
func (c ExecutionContext) SourceBranch(current string) string {
	if (current == DetachedHEAD || current == "") && c.HeadBranch != "" {
		return c.HeadBranch
	}
	return current
}
