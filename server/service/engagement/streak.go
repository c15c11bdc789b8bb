// Package engagement implements the periodic evaluators over per-user
// engagement state: the daily streak decay pass and the achievement sweep.
//
// Both evaluators are written to be idempotent so an overlapping or retried
// run converges on the same state instead of compounding its effects.
package engagement

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	engineerr "github.com/kataforge/kataforge/server/internal/errors"
	"github.com/kataforge/kataforge/server/timezone"
	"github.com/kataforge/kataforge/store"
)

const (
	// StreakFreezeDays is the grace period: a streak survives as long as the
	// last qualifying activity is at most this many UTC days in the past.
	StreakFreezeDays = 2

	// evaluatorConcurrency bounds the per-user fan-out of both evaluators.
	evaluatorConcurrency = 8
)

// Store is the interface for store operations needed by the evaluators.
type Store interface {
	ListUsers(ctx context.Context, find *store.FindUser) ([]*store.User, error)
	ListUserEngagements(ctx context.Context, find *store.FindUserEngagement) ([]*store.UserEngagement, error)
	ResetStreak(ctx context.Context, userID int32) (bool, error)

	ListAchievements(ctx context.Context, find *store.FindAchievement) ([]*store.Achievement, error)
	GetUserMetrics(ctx context.Context, userID int32) (*store.UserMetrics, error)
	CreateAchievementUnlock(ctx context.Context, create *store.AchievementUnlock) (bool, error)
	AddXP(ctx context.Context, userID int32, delta int64) error
}

// Service runs the streak decay and achievement evaluators.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates an engagement service backed by the given store.
func NewService(s Store) *Service {
	return &Service{
		store: s,
		now:   time.Now,
	}
}

// StreakResult summarizes one streak decay pass.
type StreakResult struct {
	Evaluated  int
	Maintained int
	Reset      int
	// Failed counts users whose reset errored; they are retried by the next
	// pass.
	Failed int
}

// EvaluateStreaks walks every user with a non-zero streak and resets those
// whose last qualifying activity has fallen outside the freeze window.
// Streaks are only preserved or zeroed here, never incremented; running the
// pass twice in a row changes nothing the second time.
func (s *Service) EvaluateStreaks(ctx context.Context) (*StreakResult, error) {
	minStreak := int32(1)
	engagements, err := s.store.ListUserEngagements(ctx, &store.FindUserEngagement{
		MinCurrentStreak: &minStreak,
	})
	if err != nil {
		return nil, engineerr.Unavailable("failed to list engagements", err)
	}

	today := timezone.DayStart(s.now())
	var maintained, reset, failed atomic.Int64

	// One user's failure must not starve the rest of the population, so the
	// workers log and count instead of returning errors.
	var eg errgroup.Group
	eg.SetLimit(evaluatorConcurrency)
	for _, engagement := range engagements {
		eg.Go(func() error {
			if streakAlive(engagement.LastActiveTs, today) {
				maintained.Add(1)
				return nil
			}
			changed, err := s.store.ResetStreak(ctx, engagement.UserID)
			if err != nil {
				slog.Error("failed to reset streak",
					slog.Int("user", int(engagement.UserID)),
					slog.Any("error", err))
				failed.Add(1)
				return nil
			}
			if changed {
				slog.Info("streak reset",
					slog.Int("user", int(engagement.UserID)),
					slog.Int("previousStreak", int(engagement.CurrentStreak)))
				reset.Add(1)
			}
			return nil
		})
	}
	_ = eg.Wait()

	result := &StreakResult{
		Evaluated:  len(engagements),
		Maintained: int(maintained.Load()),
		Reset:      int(reset.Load()),
		Failed:     int(failed.Load()),
	}
	return result, nil
}

// streakAlive reports whether a last-active day is recent enough to keep the
// streak. A missing last-active day never qualifies.
func streakAlive(lastActiveTs *int64, today time.Time) bool {
	if lastActiveTs == nil {
		return false
	}
	days := timezone.DaysBetween(time.Unix(*lastActiveTs, 0), today)
	return days >= 0 && days <= StreakFreezeDays
}
