// Package repo is the version-control boundary: everything diffgate needs to
// know about a repository goes through the Repo interface, and Git implements
// it by shelling out to the git binary.
package repo

import (
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// ChangeKind is the status letter git reports for a path.
type ChangeKind byte

const (
	KindAdded    ChangeKind = 'A'
	KindModified ChangeKind = 'M'
	KindDeleted  ChangeKind = 'D'
	KindType     ChangeKind = 'T'
	KindUnmerged ChangeKind = 'U'
)

// PathChange is one entry of a name-status listing.
type PathChange struct {
	Kind ChangeKind
	Path string
}

// DiffSpec selects what a diff compares.
//
//	From="main"                     main vs working tree (two-dot)
//	From="main", MergeBase=true     merge-base(main, HEAD) vs HEAD (three-dot)
//	Cached=true                     index vs From (HEAD when From is empty)
//	From="HEAD"                     HEAD vs working tree (staged + unstaged)
type DiffSpec struct {
	From      string
	To        string
	MergeBase bool
	Cached    bool
	Path      string
}

func (s DiffSpec) args() []string {
	var args []string
	if s.Cached {
		args = append(args, "--cached")
	}
	switch {
	case s.MergeBase:
		to := s.To
		if to == "" {
			to = "HEAD"
		}
		args = append(args, s.From+"..."+to)
	case s.From != "" && s.To != "":
		args = append(args, s.From, s.To)
	case s.From != "":
		args = append(args, s.From)
	}
	args = append(args, "--")
	if s.Path != "" {
		args = append(args, s.Path)
	}
	return args
}

// Repo is what the change-set resolver and diff mapper consume.
type Repo interface {
	// Root is the absolute path of the working tree.
	Root() string
	// CurrentBranch returns the checked-out branch, or "HEAD" when detached.
	CurrentBranch() (string, error)
	// HeadRevision returns the commit id HEAD points at.
	HeadRevision() (string, error)
	// ResolveCommit resolves a reference to a commit id.
	ResolveCommit(ref string) (string, error)
	// Fetch updates refs/remotes/<remote>/<branch> from the remote.
	Fetch(remote, branch string) error
	// Diff returns unified diff text.
	Diff(spec DiffSpec) (string, error)
	// ChangedPaths returns the name-status listing of a diff, renames split
	// into delete plus add.
	ChangedPaths(spec DiffSpec) ([]PathChange, error)
	// TreeFiles lists every file path in a revision's tree.
	TreeFiles(rev string) (map[string]bool, error)
	// Untracked lists untracked, non-ignored paths.
	Untracked() ([]string, error)
}

// ErrNotRepository is returned by Open outside a work tree.
var ErrNotRepository = errors.New("not a git repository")

// Git implements Repo with the git command line.
type Git struct {
	root string
}

// Open locates the work tree containing dir.
func Open(dir string) (*Git, error) {
	out, err := gitOutput(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRepository, err)
	}
	return &Git{root: strings.TrimSpace(out)}, nil
}

// Root implements Repo.
func (g *Git) Root() string { return g.root }

// CurrentBranch implements Repo.
func (g *Git) CurrentBranch() (string, error) {
	out, err := g.run("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("reading current branch: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// HeadRevision implements Repo.
func (g *Git) HeadRevision() (string, error) {
	out, err := g.run("rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ResolveCommit implements Repo.
func (g *Git) ResolveCommit(ref string) (string, error) {
	out, err := g.run("rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", ref, err)
	}
	return strings.TrimSpace(out), nil
}

// Fetch implements Repo.
func (g *Git) Fetch(remote, branch string) error {
	refspec := fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, remote, branch)
	if _, err := g.run("fetch", "--quiet", "--no-tags", remote, refspec); err != nil {
		return fmt.Errorf("fetching %s/%s: %w", remote, branch, err)
	}
	return nil
}

// Diff implements Repo.
func (g *Git) Diff(spec DiffSpec) (string, error) {
	args := append(pinnedDiffConfig(), "diff", "--no-color", "--no-ext-diff", "--no-renames",
		"--src-prefix=a/", "--dst-prefix=b/")
	out, err := g.run(append(args, spec.args()...)...)
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}
	return out, nil
}

// pinnedDiffConfig overrides user diff settings that change the header and
// path format the parsers expect.
func pinnedDiffConfig() []string {
	return []string{
		"-c", "diff.noprefix=false",
		"-c", "diff.mnemonicPrefix=false",
		"-c", "diff.relative=false",
		"-c", "diff.suppressBlankEmpty=false",
	}
}

// ChangedPaths implements Repo.
func (g *Git) ChangedPaths(spec DiffSpec) ([]PathChange, error) {
	args := append(pinnedDiffConfig(), "diff", "--name-status", "--no-renames", "-z")
	out, err := g.run(append(args, spec.args()...)...)
	if err != nil {
		return nil, fmt.Errorf("git diff --name-status: %w", err)
	}
	return parseNameStatus(out), nil
}

// parseNameStatus reads `--name-status -z` output: STATUS NUL PATH NUL ...
func parseNameStatus(out string) []PathChange {
	fields := strings.Split(out, "\x00")
	var changes []PathChange
	for i := 0; i+1 < len(fields); i += 2 {
		status := fields[i]
		if status == "" {
			break
		}
		changes = append(changes, PathChange{Kind: ChangeKind(status[0]), Path: fields[i+1]})
	}
	return changes
}

// TreeFiles implements Repo.
func (g *Git) TreeFiles(rev string) (map[string]bool, error) {
	out, err := g.run("ls-tree", "-r", "--name-only", "-z", rev)
	if err != nil {
		return nil, fmt.Errorf("listing tree %s: %w", rev, err)
	}
	files := make(map[string]bool)
	for _, p := range strings.Split(out, "\x00") {
		if p != "" {
			files[p] = true
		}
	}
	return files, nil
}

// Untracked implements Repo.
func (g *Git) Untracked() ([]string, error) {
	out, err := g.run("ls-files", "--others", "--exclude-standard", "-z")
	if err != nil {
		return nil, fmt.Errorf("listing untracked files: %w", err)
	}
	var paths []string
	for _, p := range strings.Split(out, "\x00") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (g *Git) run(args ...string) (string, error) {
	return gitOutput(g.root, args...)
}

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
