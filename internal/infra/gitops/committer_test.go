package gitops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestCommitter_CommitWrittenFiles(t *testing.T) {
	root := t.TempDir()
	clock := fixedClock{t: time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)}

	c, err := Init(root, clock)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o640))
	require.NoError(t, c.Commit("task 1: scaffold", []string{"main.go"}))

	repo, err := git.PlainOpen(root)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "task 1: scaffold", commit.Message)
	assert.Equal(t, "gofer", commit.Author.Name)
	assert.Equal(t, clock.t, commit.Author.When.UTC())
}

func TestCommitter_CleanTreeSkipsCommit(t *testing.T) {
	root := t.TempDir()
	c, err := Init(root, nil)
	require.NoError(t, err)

	// Nothing staged, nothing changed: no commit, no error.
	require.NoError(t, c.Commit("empty", nil))

	repo, err := git.PlainOpen(root)
	require.NoError(t, err)
	_, err = repo.Head()
	assert.Error(t, err, "no commit should exist")
}

func TestOpen_MissingRepository(t *testing.T) {
	_, err := Open(t.TempDir(), nil)
	assert.ErrorIs(t, err, git.ErrRepositoryNotExists)
}
