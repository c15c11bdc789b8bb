package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kataforge/kataforge/store"
)

func TestAchievementCatalog(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created, err := ts.CreateAchievement(ctx, &store.Achievement{
		UID:         nextUID("achievement"),
		Name:        "Ten Down",
		Description: "Solve ten problems",
		Criteria:    store.Criteria{Kind: store.CriteriaProblemsSolved, Threshold: 10},
		XPReward:    100,
	})
	require.NoError(t, err)
	require.Greater(t, created.ID, int32(0))

	catalog, err := ts.ListAchievements(ctx, &store.FindAchievement{})
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	require.Equal(t, store.CriteriaProblemsSolved, catalog[0].Criteria.Kind)
	require.Equal(t, int32(10), catalog[0].Criteria.Threshold)

	// The cached catalog is invalidated by a new entry.
	_, err = ts.CreateAchievement(ctx, &store.Achievement{
		UID:      nextUID("achievement"),
		Name:     "Streak Week",
		Criteria: store.Criteria{Kind: store.CriteriaStreak, Threshold: 7},
		XPReward: 250,
	})
	require.NoError(t, err)

	catalog, err = ts.ListAchievements(ctx, &store.FindAchievement{})
	require.NoError(t, err)
	require.Len(t, catalog, 2)
}

func TestAchievementUnlockExactlyOnce(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := createTestingUser(ctx, t, ts)

	achievement, err := ts.CreateAchievement(ctx, &store.Achievement{
		UID:      nextUID("achievement"),
		Name:     "First Blood",
		Criteria: store.Criteria{Kind: store.CriteriaProblemsSolved, Threshold: 1},
		XPReward: 10,
	})
	require.NoError(t, err)

	created, err := ts.CreateAchievementUnlock(ctx, &store.AchievementUnlock{
		UserID:        user.ID,
		AchievementID: achievement.ID,
	})
	require.NoError(t, err)
	require.True(t, created)

	// The second insert is swallowed by the unique constraint.
	created, err = ts.CreateAchievementUnlock(ctx, &store.AchievementUnlock{
		UserID:        user.ID,
		AchievementID: achievement.ID,
	})
	require.NoError(t, err)
	require.False(t, created)

	unlocks, err := ts.ListAchievementUnlocks(ctx, &store.FindAchievementUnlock{UserID: &user.ID})
	require.NoError(t, err)
	require.Len(t, unlocks, 1)
	require.Equal(t, achievement.ID, unlocks[0].AchievementID)
}

func TestGetUserMetrics(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := createTestingUser(ctx, t, ts)

	easy := createTestingProblem(ctx, t, ts, store.ProblemEasy)
	hard1 := createTestingProblem(ctx, t, ts, store.ProblemHard)
	hard2 := createTestingProblem(ctx, t, ts, store.ProblemHard)

	solvedTs := time.Now().Unix()
	for _, problem := range []*store.Problem{easy, hard1} {
		_, err := ts.CreateProgress(ctx, &store.Progress{
			UserID:    user.ID,
			ProblemID: problem.ID,
			Status:    store.ProgressSolved,
			SolvedTs:  &solvedTs,
		})
		require.NoError(t, err)
	}
	// Attempted-but-unsolved hard problem must not count.
	_, err := ts.CreateProgress(ctx, &store.Progress{
		UserID:    user.ID,
		ProblemID: hard2.ID,
		Status:    store.ProgressAttempted,
	})
	require.NoError(t, err)

	lastActiveTs := time.Now().Unix()
	_, err = ts.UpsertUserEngagement(ctx, &store.UpsertUserEngagement{
		UserID:        user.ID,
		CurrentStreak: 3,
		LongestStreak: 8,
		LastActiveTs:  &lastActiveTs,
	})
	require.NoError(t, err)

	metrics, err := ts.GetUserMetrics(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, int32(2), metrics.ProblemsSolved)
	require.Equal(t, int32(1), metrics.HardProblemsSolved)
	require.Equal(t, int32(3), metrics.CurrentStreak)
	require.Equal(t, int32(8), metrics.LongestStreak)

	// A user with no rows gets the zero snapshot, not an error.
	other := createTestingUser(ctx, t, ts)
	metrics, err = ts.GetUserMetrics(ctx, other.ID)
	require.NoError(t, err)
	require.Zero(t, metrics.ProblemsSolved)
	require.Zero(t, metrics.CurrentStreak)
}
