package engagement

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	engineerr "github.com/kataforge/kataforge/server/internal/errors"
	"github.com/kataforge/kataforge/store"
)

// SweepResult summarizes one achievement sweep.
type SweepResult struct {
	UsersEvaluated int
	NewUnlocks     int
	// SkippedAchievements counts catalog entries with malformed criteria
	// that were excluded from this sweep.
	SkippedAchievements int
	// UsersFailed counts users whose sweep errored; the next sweep picks
	// them up again.
	UsersFailed int
}

// SweepAchievements evaluates the full achievement catalog against every
// user's aggregate metrics and grants whatever newly qualifies.
//
// A failure to load the catalog aborts the sweep; a malformed catalog entry
// only excludes that entry. The conditional unlock insert is the exactly-once
// guard: XP is granted only when this sweep actually created the unlock row,
// so retried and concurrent sweeps cannot double-pay.
func (s *Service) SweepAchievements(ctx context.Context) (*SweepResult, error) {
	catalog, err := s.store.ListAchievements(ctx, &store.FindAchievement{})
	if err != nil {
		return nil, engineerr.Unavailable("failed to load achievement catalog", err)
	}

	evaluable := make([]*store.Achievement, 0, len(catalog))
	skipped := 0
	for _, achievement := range catalog {
		if err := validateCriteria(achievement.Criteria); err != nil {
			slog.Warn("skipping achievement with malformed criteria",
				slog.String("achievement", achievement.UID),
				slog.Any("error", err))
			skipped++
			continue
		}
		evaluable = append(evaluable, achievement)
	}

	users, err := s.store.ListUsers(ctx, &store.FindUser{})
	if err != nil {
		return nil, engineerr.Unavailable("failed to list users", err)
	}

	// Only an unreadable catalog or user list is fatal; per-user failures
	// are logged and the sweep moves on.
	var newUnlocks, usersFailed atomic.Int64
	var eg errgroup.Group
	eg.SetLimit(evaluatorConcurrency)
	for _, user := range users {
		eg.Go(func() error {
			unlocked, err := s.sweepUser(ctx, user.ID, evaluable)
			newUnlocks.Add(int64(unlocked))
			if err != nil {
				slog.Error("achievement sweep failed for user",
					slog.Int("user", int(user.ID)),
					slog.Any("error", err))
				usersFailed.Add(1)
			}
			return nil
		})
	}
	_ = eg.Wait()

	return &SweepResult{
		UsersEvaluated:      len(users),
		NewUnlocks:          int(newUnlocks.Load()),
		SkippedAchievements: skipped,
		UsersFailed:         int(usersFailed.Load()),
	}, nil
}

func (s *Service) sweepUser(ctx context.Context, userID int32, catalog []*store.Achievement) (int, error) {
	metrics, err := s.store.GetUserMetrics(ctx, userID)
	if err != nil {
		return 0, engineerr.Unavailable("failed to compute user metrics", err)
	}

	unlocked := 0
	for _, achievement := range catalog {
		met, err := criteriaMet(achievement.Criteria, metrics)
		if err != nil {
			// Unknown kinds were filtered before the sweep; a hit here means
			// the catalog changed underneath us. Skip, do not abort the user.
			slog.Warn("criteria evaluation failed",
				slog.String("achievement", achievement.UID),
				slog.Any("error", err))
			continue
		}
		if !met {
			continue
		}

		created, err := s.store.CreateAchievementUnlock(ctx, &store.AchievementUnlock{
			UserID:        userID,
			AchievementID: achievement.ID,
		})
		if err != nil {
			return unlocked, engineerr.Unavailable("failed to create unlock", err)
		}
		if !created {
			continue
		}
		if achievement.XPReward > 0 {
			if err := s.store.AddXP(ctx, userID, int64(achievement.XPReward)); err != nil {
				return unlocked, engineerr.Unavailable("failed to grant xp", err)
			}
		}
		unlocked++
		slog.Info("achievement unlocked",
			slog.Int("user", int(userID)),
			slog.String("achievement", achievement.UID),
			slog.Int("xpReward", int(achievement.XPReward)))
	}
	return unlocked, nil
}

// validateCriteria rejects catalog entries the evaluator cannot interpret.
func validateCriteria(criteria store.Criteria) error {
	switch criteria.Kind {
	case store.CriteriaProblemsSolved, store.CriteriaStreak, store.CriteriaHardProblemsSolved:
	default:
		return engineerr.CriteriaEvaluation("unknown criteria kind: " + string(criteria.Kind))
	}
	if criteria.Threshold <= 0 {
		return engineerr.CriteriaEvaluation("criteria threshold must be positive")
	}
	return nil
}

// criteriaMet evaluates one typed criteria against a metrics snapshot. The
// switch is exhaustive over the known kinds; anything else is an evaluation
// error, never a silent false.
func criteriaMet(criteria store.Criteria, metrics *store.UserMetrics) (bool, error) {
	switch criteria.Kind {
	case store.CriteriaProblemsSolved:
		return metrics.ProblemsSolved >= criteria.Threshold, nil
	case store.CriteriaStreak:
		// Either streak counter qualifies: a past best is not un-earned by a
		// later reset.
		return metrics.CurrentStreak >= criteria.Threshold ||
			metrics.LongestStreak >= criteria.Threshold, nil
	case store.CriteriaHardProblemsSolved:
		return metrics.HardProblemsSolved >= criteria.Threshold, nil
	default:
		return false, engineerr.CriteriaEvaluation("unknown criteria kind: " + string(criteria.Kind))
	}
}
