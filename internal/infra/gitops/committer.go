// Package gitops wraps version-control commits of generated files.
package gitops

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/tsubasa-dev/gofer/internal/domain"
)

// Committer implements domain.Committer using go-git against the project
// repository. Commit wrapping is thin plumbing around the pipeline: a
// failed commit is reported to the caller, which logs and moves on.
type Committer struct {
	repo  *git.Repository
	clock domain.Clock
}

// Open opens the repository at the project root. A missing repository is
// a normal condition (auto-commit simply stays off); callers distinguish
// it with git.ErrRepositoryNotExists.
func Open(projectRoot string, clock domain.Clock) (*Committer, error) {
	repo, err := git.PlainOpen(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("open git repository: %w", err)
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &Committer{repo: repo, clock: clock}, nil
}

// Init creates a repository at the project root and returns a Committer
// for it.
func Init(projectRoot string, clock domain.Clock) (*Committer, error) {
	repo, err := git.PlainInit(projectRoot, false)
	if err != nil {
		return nil, fmt.Errorf("init git repository: %w", err)
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &Committer{repo: repo, clock: clock}, nil
}

// Ensure Committer implements domain.Committer.
var _ domain.Committer = (*Committer)(nil)

// Commit stages the given relative paths and commits them. Paths that
// did not change are staged anyway; an empty commit is skipped.
func (c *Committer) Commit(message string, paths []string) error {
	wt, err := c.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	for _, p := range paths {
		if _, err := wt.Add(p); err != nil {
			return fmt.Errorf("stage %s: %w", p, err)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	now := c.clock.Now()
	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "gofer",
			Email: "gofer@localhost",
			When:  now,
		},
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
