package store

import "context"

// CriteriaKind tags the typed unlock condition of an achievement.
// The set is closed: evaluation switches over it exhaustively and treats any
// other value as a malformed definition.
type CriteriaKind string

const (
	CriteriaProblemsSolved     CriteriaKind = "PROBLEMS_SOLVED"
	CriteriaStreak             CriteriaKind = "STREAK"
	CriteriaHardProblemsSolved CriteriaKind = "HARD_PROBLEMS_SOLVED"
)

// Criteria is the typed predicate over aggregate user metrics. Persisted as
// (kind, threshold) columns rather than an opaque blob so the known kinds are
// checked at compile time.
type Criteria struct {
	Kind      CriteriaKind
	Threshold int32
}

// Achievement is a catalog entry, read-only at evaluation time.
type Achievement struct {
	ID          int32
	UID         string
	Name        string
	Description string
	Criteria    Criteria
	// XPReward is the reward point grant, >= 0.
	XPReward  int32
	CreatedTs int64
}

// FindAchievement is the find condition for catalog entries.
type FindAchievement struct {
	ID  *int32
	UID *string
}

// AchievementUnlock records a granted achievement. Existence implies the
// grant happened exactly once; rows are never mutated or deleted.
type AchievementUnlock struct {
	ID            int32
	UserID        int32
	AchievementID int32
	UnlockedTs    int64
}

// FindAchievementUnlock is the find condition for unlock records.
type FindAchievementUnlock struct {
	UserID        *int32
	AchievementID *int32
}

// UserMetrics is the aggregate snapshot fed to criteria evaluation.
type UserMetrics struct {
	UserID             int32
	ProblemsSolved     int32
	HardProblemsSolved int32
	CurrentStreak      int32
	LongestStreak      int32
}

const achievementCatalogCacheKey = "achievement-catalog"

// CreateAchievement adds a catalog entry.
func (s *Store) CreateAchievement(ctx context.Context, create *Achievement) (*Achievement, error) {
	achievement, err := s.driver.CreateAchievement(ctx, create)
	if err != nil {
		return nil, err
	}
	s.achievementCache.Delete(achievementCatalogCacheKey)
	return achievement, nil
}

// ListAchievements returns the full catalog. The result is cached; the sweep
// reads the catalog once per user otherwise.
func (s *Store) ListAchievements(ctx context.Context, find *FindAchievement) ([]*Achievement, error) {
	if find.ID == nil && find.UID == nil {
		if v, ok := s.achievementCache.Get(achievementCatalogCacheKey); ok {
			if catalog, ok := v.([]*Achievement); ok {
				return catalog, nil
			}
		}
	}

	list, err := s.driver.ListAchievements(ctx, find)
	if err != nil {
		return nil, err
	}
	if find.ID == nil && find.UID == nil {
		s.achievementCache.Set(achievementCatalogCacheKey, list)
	}
	return list, nil
}

// CreateAchievementUnlock conditionally inserts the unlock record for
// (user, achievement). It reports whether the row was created; false means
// the achievement was already unlocked, which concurrent or retried sweeps
// rely on to avoid double grants.
func (s *Store) CreateAchievementUnlock(ctx context.Context, create *AchievementUnlock) (bool, error) {
	return s.driver.CreateAchievementUnlock(ctx, create)
}

// ListAchievementUnlocks lists unlock records with filter.
func (s *Store) ListAchievementUnlocks(ctx context.Context, find *FindAchievementUnlock) ([]*AchievementUnlock, error) {
	return s.driver.ListAchievementUnlocks(ctx, find)
}

// GetUserMetrics computes the aggregate metrics for one user.
func (s *Store) GetUserMetrics(ctx context.Context, userID int32) (*UserMetrics, error) {
	return s.driver.GetUserMetrics(ctx, userID)
}
