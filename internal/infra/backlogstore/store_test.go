package backlogstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsubasa-dev/gofer/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "backlog.json"))
	require.NoError(t, s.Initialize())
	return s
}

func TestStore_InitializeAndLoad(t *testing.T) {
	s := newTestStore(t)
	assert.True(t, s.IsInitialized())

	data, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, data.Backlogs)

	// Initialize is idempotent.
	require.NoError(t, s.Initialize())
}

func TestStore_LoadUninitialized(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "backlog.json"))
	assert.False(t, s.IsInitialized())

	_, err := s.Load()
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestStore_UpdateRoundtrip(t *testing.T) {
	s := newTestStore(t)

	created := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	err := s.Update(func(f *domain.BacklogFile) error {
		f.ProjectSummary = "a todo app"
		f.RuntimeRequirements = []string{"node >= 20"}
		f.Backlogs = append(f.Backlogs, &domain.Backlog{
			ID:           f.NextID(),
			Title:        "user auth",
			Description:  "login and signup flows",
			Priority:     "high",
			Status:       domain.BacklogPending,
			Dependencies: []int{},
			CreatedAt:    created,
		})
		return nil
	})
	require.NoError(t, err)

	data, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "a todo app", data.ProjectSummary)
	require.Len(t, data.Backlogs, 1)
	assert.Equal(t, 1, data.Backlogs[0].ID)
	assert.Equal(t, created, data.Backlogs[0].CreatedAt)
}

func TestStore_UpdateErrorDiscardsChanges(t *testing.T) {
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.Update(func(f *domain.BacklogFile) error {
		f.ProjectSummary = "should not persist"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	data, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, data.ProjectSummary)
}

func TestStore_DenseIDsAcrossUpdates(t *testing.T) {
	s := newTestStore(t)

	for range 3 {
		err := s.Update(func(f *domain.BacklogFile) error {
			f.Backlogs = append(f.Backlogs, &domain.Backlog{
				ID:     f.NextID(),
				Title:  "item",
				Status: domain.BacklogPending,
			})
			return nil
		})
		require.NoError(t, err)
	}

	data, err := s.Load()
	require.NoError(t, err)
	require.Len(t, data.Backlogs, 3)
	for i, b := range data.Backlogs {
		assert.Equal(t, i+1, b.ID)
	}
}

func TestStore_NoTempFileLeftBehind(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Update(func(*domain.BacklogFile) error { return nil }))

	_, err := os.Stat(s.path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
