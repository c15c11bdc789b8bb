package store

import "context"

// UserEngagement is the per-user engagement state: streak counters, the last
// qualifying activity day, and the reward point (XP) total.
//
// CurrentStreak is incremented only by the activity-recording path; the
// streak decay evaluator only preserves it or resets it to zero.
// LongestStreak >= CurrentStreak always.
type UserEngagement struct {
	UserID int32

	CurrentStreak int32
	LongestStreak int32
	// LastActiveTs is the start of the last qualifying activity day (UTC),
	// nil for users with no recorded activity.
	LastActiveTs *int64

	XP int64

	UpdatedTs int64
}

// FindUserEngagement is the find condition for engagement rows.
type FindUserEngagement struct {
	UserID *int32
	// MinCurrentStreak keeps only rows with CurrentStreak >= the value.
	MinCurrentStreak *int32

	Limit  *int
	Offset *int
}

// UpsertUserEngagement creates or replaces the engagement row for a user.
type UpsertUserEngagement struct {
	UserID        int32
	CurrentStreak int32
	LongestStreak int32
	LastActiveTs  *int64
}

// UpsertUserEngagement creates or updates a user's engagement row.
// The XP total is owned by AddXP and left untouched here.
func (s *Store) UpsertUserEngagement(ctx context.Context, upsert *UpsertUserEngagement) (*UserEngagement, error) {
	return s.driver.UpsertUserEngagement(ctx, upsert)
}

// ListUserEngagements lists engagement rows with filter.
func (s *Store) ListUserEngagements(ctx context.Context, find *FindUserEngagement) ([]*UserEngagement, error) {
	return s.driver.ListUserEngagements(ctx, find)
}

// GetUserEngagement gets a single engagement row, or nil if none exists.
func (s *Store) GetUserEngagement(ctx context.Context, find *FindUserEngagement) (*UserEngagement, error) {
	list, err := s.driver.ListUserEngagements(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// ResetStreak zeroes a user's current streak. The write is conditional on the
// streak being non-zero, which makes repeated evaluator runs no-ops; the
// return value reports whether a row actually changed.
func (s *Store) ResetStreak(ctx context.Context, userID int32) (bool, error) {
	return s.driver.ResetStreak(ctx, userID)
}

// AddXP applies an atomic increment to the user's reward point total.
// It must never be implemented as read-then-write of a cached value.
func (s *Store) AddXP(ctx context.Context, userID int32, delta int64) error {
	return s.driver.AddXP(ctx, userID, delta)
}
