package engagement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kataforge/kataforge/store"
)

type unlockKey struct {
	userID        int32
	achievementID int32
}

// mockStore is an in-memory Store for evaluator tests. ResetStreak and
// CreateAchievementUnlock keep the conditional semantics of the real drivers
// since the evaluators' idempotence depends on them.
type mockStore struct {
	mu sync.Mutex

	users        map[int32]*store.User
	engagements  map[int32]*store.UserEngagement
	achievements []*store.Achievement
	unlocks      map[unlockKey]bool
	metrics      map[int32]*store.UserMetrics
	xp           map[int32]int64

	resetErrs   map[int32]error
	metricsErrs map[int32]error
	beforeReset func(userID int32)

	resetCalls int
}

func newMockStore() *mockStore {
	return &mockStore{
		users:       map[int32]*store.User{},
		engagements: map[int32]*store.UserEngagement{},
		unlocks:     map[unlockKey]bool{},
		metrics:     map[int32]*store.UserMetrics{},
		xp:          map[int32]int64{},
		resetErrs:   map[int32]error{},
		metricsErrs: map[int32]error{},
	}
}

func (m *mockStore) ListUsers(_ context.Context, _ *store.FindUser) ([]*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []*store.User{}
	for _, u := range m.users {
		list = append(list, u)
	}
	return list, nil
}

func (m *mockStore) ListUserEngagements(_ context.Context, find *store.FindUserEngagement) ([]*store.UserEngagement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := []*store.UserEngagement{}
	for _, e := range m.engagements {
		if find.MinCurrentStreak != nil && e.CurrentStreak < *find.MinCurrentStreak {
			continue
		}
		clone := *e
		list = append(list, &clone)
	}
	return list, nil
}

func (m *mockStore) ResetStreak(_ context.Context, userID int32) (bool, error) {
	if m.beforeReset != nil {
		m.beforeReset(userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCalls++
	if err := m.resetErrs[userID]; err != nil {
		return false, err
	}
	e, ok := m.engagements[userID]
	if !ok || e.CurrentStreak == 0 {
		return false, nil
	}
	e.CurrentStreak = 0
	return true, nil
}

func (m *mockStore) ListAchievements(_ context.Context, _ *store.FindAchievement) ([]*store.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.achievements, nil
}

func (m *mockStore) GetUserMetrics(_ context.Context, userID int32) (*store.UserMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.metricsErrs[userID]; err != nil {
		return nil, err
	}
	if metrics, ok := m.metrics[userID]; ok {
		clone := *metrics
		return &clone, nil
	}
	return &store.UserMetrics{UserID: userID}, nil
}

func (m *mockStore) CreateAchievementUnlock(_ context.Context, create *store.AchievementUnlock) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := unlockKey{create.UserID, create.AchievementID}
	if m.unlocks[key] {
		return false, nil
	}
	m.unlocks[key] = true
	return true, nil
}

func (m *mockStore) AddXP(_ context.Context, userID int32, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.xp[userID] += delta
	return nil
}

func (m *mockStore) addUser(id int32, streak, longest int32, lastActive *time.Time) {
	m.users[id] = &store.User{ID: id}
	e := &store.UserEngagement{UserID: id, CurrentStreak: streak, LongestStreak: longest}
	if lastActive != nil {
		ts := lastActive.Unix()
		e.LastActiveTs = &ts
	}
	m.engagements[id] = e
}

func newTestService(now time.Time) (*Service, *mockStore) {
	m := newMockStore()
	svc := NewService(m)
	svc.now = func() time.Time { return now }
	return svc, m
}

func TestEvaluateStreaksFreezeWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC)
	svc, m := newTestService(now)

	active := now.AddDate(0, 0, -1)
	edge := now.AddDate(0, 0, -2)
	stale := now.AddDate(0, 0, -3)
	m.addUser(1, 5, 10, &active) // 1 day ago: kept
	m.addUser(2, 7, 7, &edge)    // exactly 2 days ago: still inside the freeze
	m.addUser(3, 9, 9, &stale)   // 3 days ago: reset

	result, err := svc.EvaluateStreaks(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, result.Evaluated)
	require.Equal(t, 2, result.Maintained)
	require.Equal(t, 1, result.Reset)

	require.Equal(t, int32(5), m.engagements[1].CurrentStreak)
	require.Equal(t, int32(7), m.engagements[2].CurrentStreak)
	require.Equal(t, int32(0), m.engagements[3].CurrentStreak)
	// The longest-streak watermark is untouched by decay.
	require.Equal(t, int32(9), m.engagements[3].LongestStreak)
}

func TestEvaluateStreaksMissingLastActive(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	m.addUser(1, 4, 4, nil)

	result, err := svc.EvaluateStreaks(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Reset)
	require.Equal(t, int32(0), m.engagements[1].CurrentStreak)
}

func TestEvaluateStreaksIdempotent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	svc, m := newTestService(now)

	stale := now.AddDate(0, 0, -5)
	m.addUser(1, 3, 3, &stale)

	first, err := svc.EvaluateStreaks(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.Reset)

	// Second run sees a zero streak and does not even select the row.
	second, err := svc.EvaluateStreaks(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, second.Evaluated)
	require.Equal(t, 0, second.Reset)
}

func TestEvaluateStreaksSkipsFailedUser(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	svc, m := newTestService(now)

	stale := now.AddDate(0, 0, -5)
	m.addUser(1, 5, 5, &stale)
	m.addUser(2, 3, 3, &stale)
	m.resetErrs[1] = errors.New("connection reset")

	// A single user's storage failure is counted, not propagated; the rest
	// of the population is still processed.
	result, err := svc.EvaluateStreaks(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, result.Evaluated)
	require.Equal(t, 1, result.Reset)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, int32(5), m.engagements[1].CurrentStreak)
	require.Equal(t, int32(0), m.engagements[2].CurrentStreak)
}

func TestEvaluateStreaksRacedResetNotCounted(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	svc, m := newTestService(now)

	stale := now.AddDate(0, 0, -5)
	m.addUser(1, 3, 3, &stale)
	// An overlapping run zeroes the streak between the list and the reset.
	m.beforeReset = func(userID int32) {
		m.mu.Lock()
		m.engagements[userID].CurrentStreak = 0
		m.mu.Unlock()
	}

	result, err := svc.EvaluateStreaks(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Evaluated)
	require.Equal(t, 0, result.Reset)
	require.Equal(t, 0, result.Failed)
}

func TestEvaluateStreaksSkipsZeroStreaks(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	m.addUser(1, 0, 6, nil)

	result, err := svc.EvaluateStreaks(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, result.Evaluated)
	require.Equal(t, 0, m.resetCalls)
}
