package engagement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kataforge/kataforge/store"
)

func addAchievement(m *mockStore, id int32, uid string, kind store.CriteriaKind, threshold, xp int32) {
	m.achievements = append(m.achievements, &store.Achievement{
		ID:       id,
		UID:      uid,
		Name:     uid,
		Criteria: store.Criteria{Kind: kind, Threshold: threshold},
		XPReward: xp,
	})
}

func TestSweepAchievementsGrantsOnce(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(time.Now())

	m.users[1] = &store.User{ID: 1}
	m.metrics[1] = &store.UserMetrics{UserID: 1, ProblemsSolved: 12, HardProblemsSolved: 2}
	addAchievement(m, 1, "ten-solved", store.CriteriaProblemsSolved, 10, 100)
	addAchievement(m, 2, "hard-five", store.CriteriaHardProblemsSolved, 5, 250)

	result, err := svc.SweepAchievements(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.UsersEvaluated)
	require.Equal(t, 1, result.NewUnlocks)
	require.True(t, m.unlocks[unlockKey{1, 1}])
	require.False(t, m.unlocks[unlockKey{1, 2}])
	require.Equal(t, int64(100), m.xp[1])

	// A second sweep finds nothing new and grants no further XP.
	result, err = svc.SweepAchievements(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, result.NewUnlocks)
	require.Equal(t, int64(100), m.xp[1])
}

func TestSweepAchievementsStreakUsesEitherCounter(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(time.Now())

	m.users[1] = &store.User{ID: 1}
	// Current streak already decayed, but the longest watermark qualifies.
	m.metrics[1] = &store.UserMetrics{UserID: 1, CurrentStreak: 0, LongestStreak: 30}
	addAchievement(m, 1, "thirty-days", store.CriteriaStreak, 30, 500)

	result, err := svc.SweepAchievements(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.NewUnlocks)
	require.Equal(t, int64(500), m.xp[1])
}

func TestSweepAchievementsSkipsMalformedCriteria(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(time.Now())

	m.users[1] = &store.User{ID: 1}
	m.metrics[1] = &store.UserMetrics{UserID: 1, ProblemsSolved: 100}
	addAchievement(m, 1, "broken-kind", store.CriteriaKind("TOTAL_KARMA"), 1, 50)
	addAchievement(m, 2, "broken-threshold", store.CriteriaProblemsSolved, 0, 50)
	addAchievement(m, 3, "one-solved", store.CriteriaProblemsSolved, 1, 10)

	result, err := svc.SweepAchievements(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, result.SkippedAchievements)
	require.Equal(t, 1, result.NewUnlocks)
	require.Equal(t, int64(10), m.xp[1])
}

func TestSweepAchievementsNoXPForExistingUnlock(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(time.Now())

	m.users[1] = &store.User{ID: 1}
	m.metrics[1] = &store.UserMetrics{UserID: 1, ProblemsSolved: 5}
	addAchievement(m, 1, "five-solved", store.CriteriaProblemsSolved, 5, 75)
	// Unlock already recorded by an earlier run that died before finishing.
	m.unlocks[unlockKey{1, 1}] = true

	result, err := svc.SweepAchievements(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, result.NewUnlocks)
	require.Zero(t, m.xp[1])
}

func TestSweepAchievementsThresholdBoundary(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(time.Now())

	m.users[1] = &store.User{ID: 1}
	m.users[2] = &store.User{ID: 2}
	m.metrics[1] = &store.UserMetrics{UserID: 1, ProblemsSolved: 9}
	m.metrics[2] = &store.UserMetrics{UserID: 2, ProblemsSolved: 10}
	addAchievement(m, 1, "ten-solved", store.CriteriaProblemsSolved, 10, 100)

	result, err := svc.SweepAchievements(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, result.UsersEvaluated)
	require.Equal(t, 1, result.NewUnlocks)
	require.False(t, m.unlocks[unlockKey{1, 1}])
	require.True(t, m.unlocks[unlockKey{2, 1}])
}

func TestSweepAchievementsSkipsFailedUser(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(time.Now())

	m.users[1] = &store.User{ID: 1}
	m.users[2] = &store.User{ID: 2}
	m.metricsErrs[1] = errors.New("connection reset")
	m.metrics[2] = &store.UserMetrics{UserID: 2, ProblemsSolved: 10}
	addAchievement(m, 1, "ten-solved", store.CriteriaProblemsSolved, 10, 100)

	// One user's metrics failure is counted and skipped; everyone else is
	// still swept and granted.
	result, err := svc.SweepAchievements(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, result.UsersEvaluated)
	require.Equal(t, 1, result.UsersFailed)
	require.Equal(t, 1, result.NewUnlocks)
	require.True(t, m.unlocks[unlockKey{2, 1}])
	require.Equal(t, int64(100), m.xp[2])
	require.Zero(t, m.xp[1])
}

func TestCriteriaMetUnknownKind(t *testing.T) {
	_, err := criteriaMet(store.Criteria{Kind: "BADGES", Threshold: 1}, &store.UserMetrics{})
	require.Error(t, err)
}
