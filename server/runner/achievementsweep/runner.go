// Package achievementsweep runs the periodic achievement evaluation.
package achievementsweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kataforge/kataforge/server/service/engagement"
)

type Runner struct {
	service  *engagement.Service
	interval time.Duration
}

// NewRunner creates an achievement sweep runner. The interval normally comes
// from the profile and defaults to 15 minutes.
func NewRunner(service *engagement.Service, interval time.Duration) *Runner {
	return &Runner{
		service:  service,
		interval: interval,
	}
}

// Interval returns the scheduling interval for this runner.
func (r *Runner) Interval() time.Duration {
	return r.interval
}

// RunOnce executes a single sweep. The conditional unlock insert makes the
// sweep safe to repeat or overlap.
func (r *Runner) RunOnce(ctx context.Context) {
	runID := uuid.New().String()
	start := time.Now()

	result, err := r.service.SweepAchievements(ctx)
	if err != nil {
		slog.Error("achievement sweep failed",
			slog.String("run", runID),
			slog.Any("error", err))
		return
	}

	slog.Info("achievement sweep finished",
		slog.String("run", runID),
		slog.Int("users", result.UsersEvaluated),
		slog.Int("newUnlocks", result.NewUnlocks),
		slog.Int("skippedAchievements", result.SkippedAchievements),
		slog.Int("usersFailed", result.UsersFailed),
		slog.Duration("elapsed", time.Since(start)))
}
