// Package streakdecay runs the daily streak decay pass.
package streakdecay

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

// NewRunner creates a streak decay runner. The interval normally comes from
// the profile and defaults to 24 hours.
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

// RunOnce executes a single decay pass. The pass is idempotent, so a crashed
// or duplicated run only costs a re-read.
func (r *Runner) RunOnce(ctx context.Context) {
	runID := uuid.New().String()
	start := time.Now()

	result, err := r.service.EvaluateStreaks(ctx)
	if err != nil {
		slog.Error("streak decay run failed",
			slog.String("run", runID),
			slog.Any("error", err))
		return
	}

	slog.Info("streak decay run finished",
		slog.String("run", runID),
		slog.Int("evaluated", result.Evaluated),
		slog.Int("maintained", result.Maintained),
		slog.Int("reset", result.Reset),
		slog.Int("failed", result.Failed),
		slog.Duration("elapsed", time.Since(start)))
}
