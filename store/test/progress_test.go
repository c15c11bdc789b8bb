package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kataforge/kataforge/store"
)

func TestProgressCRUD(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := createTestingUser(ctx, t, ts)
	problem := createTestingProblem(ctx, t, ts, store.ProblemMedium)

	progress, err := ts.CreateProgress(ctx, &store.Progress{
		UserID:    user.ID,
		ProblemID: problem.ID,
	})
	require.NoError(t, err)
	require.Greater(t, progress.ID, int32(0))
	require.Equal(t, store.ProgressNotStarted, progress.Status)
	require.InDelta(t, 2.5, progress.EaseFactor, 1e-9)
	require.Equal(t, int32(1), progress.IntervalDays)
	require.Equal(t, int64(1), progress.RowVersion)

	status := store.ProgressSolved
	solvedTs := time.Now().Unix()
	err = ts.UpdateProgress(ctx, &store.UpdateProgress{
		UserID:    user.ID,
		ProblemID: problem.ID,
		Status:    &status,
		SolvedTs:  &solvedTs,
	})
	require.NoError(t, err)

	got, err := ts.GetProgress(ctx, &store.FindProgress{UserID: &user.ID, ProblemID: &problem.ID})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, store.ProgressSolved, got.Status)
	require.NotNil(t, got.SolvedTs)
	require.Equal(t, int64(2), got.RowVersion)
}

func TestProgressVersionGuard(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := createTestingUser(ctx, t, ts)
	problem := createTestingProblem(ctx, t, ts, store.ProblemMedium)

	progress, err := ts.CreateProgress(ctx, &store.Progress{UserID: user.ID, ProblemID: problem.ID})
	require.NoError(t, err)

	staleVersion := progress.RowVersion
	attempts := int32(1)
	err = ts.UpdateProgress(ctx, &store.UpdateProgress{
		UserID:          user.ID,
		ProblemID:       problem.ID,
		AttemptCount:    &attempts,
		ExpectedVersion: &staleVersion,
	})
	require.NoError(t, err)

	// The same expected version must now fail: the row has moved on.
	err = ts.UpdateProgress(ctx, &store.UpdateProgress{
		UserID:          user.ID,
		ProblemID:       problem.ID,
		AttemptCount:    &attempts,
		ExpectedVersion: &staleVersion,
	})
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestApplyReviewTransactional(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := createTestingUser(ctx, t, ts)
	problem := createTestingProblem(ctx, t, ts, store.ProblemHard)

	progress, err := ts.CreateProgress(ctx, &store.Progress{
		UserID:    user.ID,
		ProblemID: problem.ID,
		Status:    store.ProgressSolved,
	})
	require.NoError(t, err)

	// No queue item yet: the whole write must roll back, including the
	// progress row version bump.
	err = ts.ApplyReview(ctx, &store.ApplyReview{
		UserID:          user.ID,
		ProblemID:       problem.ID,
		ExpectedVersion: progress.RowVersion,
		EaseFactor:      2.6,
		IntervalDays:    1,
		Repetitions:     1,
		NextReviewTs:    time.Now().Unix(),
		Quality:         5,
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	unchanged, err := ts.GetProgress(ctx, &store.FindProgress{UserID: &user.ID, ProblemID: &problem.ID})
	require.NoError(t, err)
	require.Equal(t, progress.RowVersion, unchanged.RowVersion)
	require.InDelta(t, 2.5, unchanged.EaseFactor, 1e-9)

	// With the queue item in place the write lands on both rows.
	dueTs := time.Now().Unix()
	_, err = ts.UpsertReviewQueueItem(ctx, &store.UpsertReviewQueueItem{
		UserID:    user.ID,
		ProblemID: problem.ID,
		DueTs:     dueTs,
		Priority:  3,
	})
	require.NoError(t, err)

	nextReviewTs := dueTs + 6*86400
	err = ts.ApplyReview(ctx, &store.ApplyReview{
		UserID:          user.ID,
		ProblemID:       problem.ID,
		ExpectedVersion: progress.RowVersion,
		EaseFactor:      2.6,
		IntervalDays:    6,
		Repetitions:     2,
		NextReviewTs:    nextReviewTs,
		Quality:         4,
	})
	require.NoError(t, err)

	updated, err := ts.GetProgress(ctx, &store.FindProgress{UserID: &user.ID, ProblemID: &problem.ID})
	require.NoError(t, err)
	require.Equal(t, progress.RowVersion+1, updated.RowVersion)
	require.Equal(t, int32(6), updated.IntervalDays)
	require.Equal(t, nextReviewTs, *updated.NextReviewTs)

	items, err := ts.ListReviewQueueItems(ctx, &store.FindReviewQueueItem{UserID: &user.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, nextReviewTs, items[0].DueTs)
	require.Equal(t, int32(4), items[0].LastQuality)

	// A retry with the stale version is rejected.
	err = ts.ApplyReview(ctx, &store.ApplyReview{
		UserID:          user.ID,
		ProblemID:       problem.ID,
		ExpectedVersion: progress.RowVersion,
		EaseFactor:      2.7,
		IntervalDays:    16,
		Repetitions:     3,
		NextReviewTs:    nextReviewTs,
		Quality:         5,
	})
	require.ErrorIs(t, err, store.ErrConflict)
}
