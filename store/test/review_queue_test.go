package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kataforge/kataforge/store"
)

func TestReviewQueueUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := createTestingUser(ctx, t, ts)
	problem := createTestingProblem(ctx, t, ts, store.ProblemEasy)

	dueTs := time.Now().Unix()
	first, err := ts.UpsertReviewQueueItem(ctx, &store.UpsertReviewQueueItem{
		UserID:    user.ID,
		ProblemID: problem.ID,
		DueTs:     dueTs,
		Priority:  1,
	})
	require.NoError(t, err)
	require.Equal(t, int32(-1), first.LastQuality)

	// Re-enqueue moves the due date but does not duplicate the item or wipe
	// the last quality.
	quality := int32(4)
	_, err = ts.UpsertReviewQueueItem(ctx, &store.UpsertReviewQueueItem{
		UserID:      user.ID,
		ProblemID:   problem.ID,
		DueTs:       dueTs + 86400,
		Priority:    2,
		LastQuality: &quality,
	})
	require.NoError(t, err)

	second, err := ts.UpsertReviewQueueItem(ctx, &store.UpsertReviewQueueItem{
		UserID:    user.ID,
		ProblemID: problem.ID,
		DueTs:     dueTs + 2*86400,
		Priority:  2,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, int32(4), second.LastQuality)

	items, err := ts.ListReviewQueueItems(ctx, &store.FindReviewQueueItem{UserID: &user.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestReviewQueueOrderingAndDueFilter(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := createTestingUser(ctx, t, ts)

	now := time.Now().Unix()
	type fixture struct {
		dueOffset int64
		priority  int32
	}
	fixtures := []fixture{
		{-3600, 1},  // due, low priority, older
		{-60, 1},    // due, low priority, newer
		{-600, 3},   // due, high priority
		{+3600, 5},  // future, must not appear
		{-7200, 2},  // due, medium priority
	}
	for _, f := range fixtures {
		problem := createTestingProblem(ctx, t, ts, store.ProblemMedium)
		_, err := ts.UpsertReviewQueueItem(ctx, &store.UpsertReviewQueueItem{
			UserID:    user.ID,
			ProblemID: problem.ID,
			DueTs:     now + f.dueOffset,
			Priority:  f.priority,
		})
		require.NoError(t, err)
	}

	items, err := ts.ListReviewQueueItems(ctx, &store.FindReviewQueueItem{
		UserID:    &user.ID,
		DueBefore: &now,
	})
	require.NoError(t, err)
	require.Len(t, items, 4)

	// Priority descending, then due date ascending.
	require.Equal(t, int32(3), items[0].Priority)
	require.Equal(t, int32(2), items[1].Priority)
	require.Equal(t, int32(1), items[2].Priority)
	require.Equal(t, int32(1), items[3].Priority)
	require.Less(t, items[2].DueTs, items[3].DueTs)

	// Limit applies after ordering.
	limit := 2
	limited, err := ts.ListReviewQueueItems(ctx, &store.FindReviewQueueItem{
		UserID:    &user.ID,
		DueBefore: &now,
		Limit:     &limit,
	})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	require.Equal(t, int32(3), limited[0].Priority)
}
