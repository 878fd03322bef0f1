package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsubasa-dev/gofer/internal/domain"
	"github.com/tsubasa-dev/gofer/internal/testutil"
)

func TestAddBacklog(t *testing.T) {
	repo := testutil.NewMockBacklogRepository()
	clock := &testutil.MockClock{NowTime: time.Unix(1700000000, 0)}
	uc := NewAddBacklog(repo, clock, testutil.NopLogger{})

	created, err := uc.Execute(context.Background(), AddBacklogInput{
		Title:       "Search",
		Description: "Full-text search",
		Priority:    "low",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, domain.BacklogPending, created.Status)
	assert.Equal(t, clock.NowTime, created.CreatedAt)
	assert.Len(t, repo.File.Backlogs, 1)
}

func TestAddBacklog_EmptyTitle(t *testing.T) {
	uc := NewAddBacklog(testutil.NewMockBacklogRepository(), &testutil.MockClock{}, testutil.NopLogger{})

	_, err := uc.Execute(context.Background(), AddBacklogInput{})

	assert.ErrorIs(t, err, domain.ErrEmptyTitle)
}

func TestAddBacklog_UnknownDependency(t *testing.T) {
	uc := NewAddBacklog(testutil.NewMockBacklogRepository(), &testutil.MockClock{}, testutil.NopLogger{})

	_, err := uc.Execute(context.Background(), AddBacklogInput{Title: "x", Dependencies: []int{4}})

	assert.ErrorIs(t, err, domain.ErrBacklogNotFound)
}
