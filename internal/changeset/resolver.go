package changeset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/sprite-ai/diffgate/internal/logging"
	"github.com/sprite-ai/diffgate/internal/repo"
)

// DefaultRemote is the remote whose tracking refs are preferred as base.
const DefaultRemote = "origin"

// ErrBaseUnresolved means no form of the requested base resolves to a commit.
var ErrBaseUnresolved = errors.New("base reference could not be resolved")

// Resolver computes change sets for one repository and execution context.
type Resolver struct {
	Repo    repo.Repo
	Ctx     repo.ExecutionContext
	Log     *log.Logger
	Remote  string
	NoFetch bool
}

func (r *Resolver) logger() *log.Logger {
	if r.Log == nil {
		return logging.Discard()
	}
	return r.Log
}

func (r *Resolver) remote() string {
	if r.Remote == "" {
		return DefaultRemote
	}
	return r.Remote
}

// ResolveBase turns a branch name into the reference to compare against:
// the remote-tracking ref, then the same ref after a fetch, then the local
// branch. When none resolve the literal name comes back together with
// ErrBaseUnresolved. Calling it repeatedly is safe.
func (r *Resolver) ResolveBase(name string) (string, error) {
	remoteRef := r.remote() + "/" + name
	if _, err := r.Repo.ResolveCommit(remoteRef); err == nil {
		return remoteRef, nil
	}

	if !r.NoFetch {
		if err := r.Repo.Fetch(r.remote(), name); err != nil {
			r.logger().Debug("fetch failed", "remote", r.remote(), "branch", name, "err", err)
		} else if _, err := r.Repo.ResolveCommit(remoteRef); err == nil {
			return remoteRef, nil
		}
	}

	if _, err := r.Repo.ResolveCommit(name); err == nil {
		return name, nil
	}
	return name, fmt.Errorf("%w: %s", ErrBaseUnresolved, name)
}

// Resolve builds the change set against the named base branch. An
// unresolvable base yields an empty set and ErrBaseUnresolved; callers log
// it and carry on.
func (r *Resolver) Resolve(name string) (*ChangeSet, error) {
	base, err := r.ResolveBase(name)
	if err != nil {
		return &ChangeSet{Base: base}, err
	}

	var listings [][]repo.PathChange
	var untracked []string
	if r.Ctx.IsCI() {
		committed, err := r.Repo.ChangedPaths(repo.DiffSpec{From: base, MergeBase: true})
		if err != nil {
			return nil, err
		}
		listings = append(listings, committed)
	} else {
		for _, spec := range []repo.DiffSpec{
			{From: base},
			{Cached: true},
			{From: "HEAD"},
		} {
			changes, err := r.Repo.ChangedPaths(spec)
			if err != nil {
				return nil, err
			}
			listings = append(listings, changes)
		}
		untracked, err = r.Repo.Untracked()
		if err != nil {
			return nil, err
		}
	}

	baseTree, err := r.Repo.TreeFiles(base)
	if err != nil {
		return nil, err
	}

	cs := r.partition(base, listings, untracked, baseTree)
	r.logger().Debug("resolved change set",
		"base", base,
		"added", len(cs.Added),
		"modified", len(cs.Modified),
		"deleted", len(cs.Deleted),
		"untracked", len(cs.Untracked))
	return cs, nil
}

func (r *Resolver) partition(base string, listings [][]repo.PathChange, untracked []string, baseTree map[string]bool) *ChangeSet {
	deleted := make(map[string]bool)
	touched := make(map[string]bool)
	for _, changes := range listings {
		for _, c := range changes {
			switch c.Kind {
			case repo.KindDeleted:
				deleted[c.Path] = true
			case repo.KindAdded, repo.KindModified, repo.KindType, repo.KindUnmerged:
				touched[c.Path] = true
			default:
				r.logger().Debug("unexpected change status", "status", string(c.Kind), "path", c.Path)
				touched[c.Path] = true
			}
		}
	}
	isUntracked := make(map[string]bool, len(untracked))
	for _, p := range untracked {
		isUntracked[p] = true
	}

	cs := &ChangeSet{Base: base}
	for p := range deleted {
		cs.Deleted = append(cs.Deleted, p)
	}
	for p := range touched {
		switch {
		case deleted[p] || isUntracked[p]:
		case !baseTree[p]:
			if r.exists(p) {
				cs.Added = append(cs.Added, p)
			}
		default:
			cs.Modified = append(cs.Modified, p)
		}
	}
	for _, p := range untracked {
		if !deleted[p] && r.exists(p) {
			cs.Untracked = append(cs.Untracked, p)
		}
	}

	sort.Strings(cs.Added)
	sort.Strings(cs.Modified)
	sort.Strings(cs.Deleted)
	sort.Strings(cs.Untracked)
	return cs
}

func (r *Resolver) exists(path string) bool {
	_, err := os.Lstat(filepath.Join(r.Repo.Root(), path))
	return err == nil
}
