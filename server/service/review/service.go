// Package review implements the spaced repetition core: recording
// submissions, applying SM-2 review outcomes, and serving the due review
// queue.
//
// All schedule mutations go through the store's transactional ApplyReview so
// a progress record and its queue item never drift apart.
package review

import (
	"context"
	"errors"
	"log/slog"
	"time"

	engineerr "github.com/kataforge/kataforge/server/internal/errors"
	"github.com/kataforge/kataforge/server/service/engagement"
	"github.com/kataforge/kataforge/server/timezone"
	"github.com/kataforge/kataforge/store"
)

// DefaultDueLimit caps a due-queue read when the caller does not ask for a
// specific page size.
const DefaultDueLimit = 20

// Store is the interface for store operations needed by the review service.
type Store interface {
	GetUser(ctx context.Context, find *store.FindUser) (*store.User, error)
	GetProblem(ctx context.Context, find *store.FindProblem) (*store.Problem, error)

	GetProgress(ctx context.Context, find *store.FindProgress) (*store.Progress, error)
	CreateProgress(ctx context.Context, create *store.Progress) (*store.Progress, error)
	UpdateProgress(ctx context.Context, update *store.UpdateProgress) error
	ApplyReview(ctx context.Context, apply *store.ApplyReview) error

	UpsertReviewQueueItem(ctx context.Context, upsert *store.UpsertReviewQueueItem) (*store.ReviewQueueItem, error)
	ListReviewQueueItems(ctx context.Context, find *store.FindReviewQueueItem) ([]*store.ReviewQueueItem, error)

	GetUserEngagement(ctx context.Context, find *store.FindUserEngagement) (*store.UserEngagement, error)
	UpsertUserEngagement(ctx context.Context, upsert *store.UpsertUserEngagement) (*store.UserEngagement, error)
}

// Service coordinates submissions, reviews and the review queue.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a review service backed by the given store.
func NewService(s Store) *Service {
	return &Service{
		store: s,
		now:   time.Now,
	}
}

// Submission is one graded attempt at a problem.
type Submission struct {
	UserID    int32
	ProblemID int32
	Accepted  bool

	HintsUsed      int32
	SolutionViewed bool
}

// RecordSubmission folds a submission into the user's progress record,
// creating it on first contact. An accepted submission on a not-yet-solved
// problem promotes the record to SOLVED, seeds the review schedule and
// enqueues the problem for review. Every submission also counts as streak
// activity for the day.
func (s *Service) RecordSubmission(ctx context.Context, sub *Submission) (*store.Progress, error) {
	user, err := s.store.GetUser(ctx, &store.FindUser{ID: &sub.UserID})
	if err != nil {
		return nil, engineerr.Unavailable("failed to load user", err)
	}
	if user == nil {
		return nil, engineerr.NotFoundf("user %d not found", sub.UserID)
	}
	problem, err := s.store.GetProblem(ctx, &store.FindProblem{ID: &sub.ProblemID})
	if err != nil {
		return nil, engineerr.Unavailable("failed to load problem", err)
	}
	if problem == nil {
		return nil, engineerr.NotFoundf("problem %d not found", sub.ProblemID)
	}

	now := s.now()
	progress, err := s.store.GetProgress(ctx, &store.FindProgress{
		UserID:    &sub.UserID,
		ProblemID: &sub.ProblemID,
	})
	if err != nil {
		return nil, engineerr.Unavailable("failed to load progress", err)
	}
	if progress == nil {
		progress, err = s.store.CreateProgress(ctx, &store.Progress{
			UserID:       sub.UserID,
			ProblemID:    sub.ProblemID,
			Status:       store.ProgressNotStarted,
			EaseFactor:   DefaultEaseFactor,
			IntervalDays: 1,
		})
		if err != nil {
			return nil, engineerr.Unavailable("failed to create progress", err)
		}
	}

	update := &store.UpdateProgress{
		UserID:          sub.UserID,
		ProblemID:       sub.ProblemID,
		ExpectedVersion: &progress.RowVersion,
	}

	attemptCount := progress.AttemptCount + 1
	update.AttemptCount = &attemptCount
	progress.AttemptCount = attemptCount
	if sub.HintsUsed > 0 {
		hintsUsed := progress.HintsUsed + sub.HintsUsed
		update.HintsUsed = &hintsUsed
		progress.HintsUsed = hintsUsed
	}
	if sub.SolutionViewed && !progress.SolutionViewed {
		viewed := true
		update.SolutionViewed = &viewed
		progress.SolutionViewed = true
	}

	firstSolve := sub.Accepted && progress.Status != store.ProgressSolved
	switch {
	case firstSolve:
		status := store.ProgressSolved
		solvedTs := now.Unix()
		nextReviewTs := timezone.AddDays(now, 1).Unix()
		update.Status = &status
		update.SolvedTs = &solvedTs
		update.NextReviewTs = &nextReviewTs
		progress.Status = status
		progress.SolvedTs = &solvedTs
		progress.NextReviewTs = &nextReviewTs
	case progress.Status == store.ProgressNotStarted:
		status := store.ProgressAttempted
		update.Status = &status
		progress.Status = status
	}

	if err := s.store.UpdateProgress(ctx, update); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, engineerr.StorageConflict("progress record changed concurrently, retry the submission", err)
		}
		return nil, engineerr.Unavailable("failed to update progress", err)
	}
	progress.RowVersion++

	if firstSolve {
		if _, err := s.store.UpsertReviewQueueItem(ctx, &store.UpsertReviewQueueItem{
			UserID:    sub.UserID,
			ProblemID: sub.ProblemID,
			DueTs:     *progress.NextReviewTs,
			Priority:  priorityForDifficulty(problem.Difficulty),
		}); err != nil {
			return nil, engineerr.Unavailable("failed to enqueue review", err)
		}
	}

	if err := s.touchStreak(ctx, sub.UserID, now); err != nil {
		return nil, err
	}

	slog.Debug("recorded submission",
		slog.Int("user", int(sub.UserID)),
		slog.Int("problem", int(sub.ProblemID)),
		slog.Bool("accepted", sub.Accepted),
		slog.Bool("firstSolve", firstSolve))
	return progress, nil
}

// SubmitReview applies one completed review of a solved problem. The quality
// score is clamped to 0-5 before the SM-2 step; the resulting schedule is
// written together with the queue item in one transaction.
func (s *Service) SubmitReview(ctx context.Context, userID, problemID, quality int32) (*store.Progress, error) {
	quality = ClampQuality(quality)

	progress, err := s.store.GetProgress(ctx, &store.FindProgress{
		UserID:    &userID,
		ProblemID: &problemID,
	})
	if err != nil {
		return nil, engineerr.Unavailable("failed to load progress", err)
	}
	if progress == nil || progress.Status != store.ProgressSolved {
		return nil, engineerr.NotFoundf("no solved progress for user %d on problem %d", userID, problemID)
	}

	next := NextSchedule(Schedule{
		EaseFactor:   progress.EaseFactor,
		IntervalDays: progress.IntervalDays,
		Repetitions:  progress.Repetitions,
	}, quality)
	nextReviewTs := timezone.AddDays(s.now(), next.IntervalDays).Unix()

	if err := s.store.ApplyReview(ctx, &store.ApplyReview{
		UserID:          userID,
		ProblemID:       problemID,
		ExpectedVersion: progress.RowVersion,
		EaseFactor:      next.EaseFactor,
		IntervalDays:    next.IntervalDays,
		Repetitions:     next.Repetitions,
		NextReviewTs:    nextReviewTs,
		Quality:         quality,
	}); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, engineerr.StorageConflict("progress record changed concurrently, retry the review", err)
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, engineerr.NotFoundf("no review queue item for user %d on problem %d", userID, problemID)
		}
		return nil, engineerr.Unavailable("failed to apply review", err)
	}

	progress.EaseFactor = next.EaseFactor
	progress.IntervalDays = next.IntervalDays
	progress.Repetitions = next.Repetitions
	progress.NextReviewTs = &nextReviewTs
	progress.RowVersion++

	slog.Debug("applied review",
		slog.Int("user", int(userID)),
		slog.Int("problem", int(problemID)),
		slog.Int("quality", int(quality)),
		slog.Int("intervalDays", int(next.IntervalDays)))
	return progress, nil
}

// DueItems returns the user's review queue entries due now or earlier,
// highest priority first, oldest due date next. A non-positive limit falls
// back to DefaultDueLimit.
func (s *Service) DueItems(ctx context.Context, userID int32, limit int) ([]*store.ReviewQueueItem, error) {
	if limit <= 0 {
		limit = DefaultDueLimit
	}
	dueBefore := s.now().Unix()
	items, err := s.store.ListReviewQueueItems(ctx, &store.FindReviewQueueItem{
		UserID:    &userID,
		DueBefore: &dueBefore,
		Limit:     &limit,
	})
	if err != nil {
		return nil, engineerr.Unavailable("failed to list due reviews", err)
	}
	return items, nil
}

// Enqueue re-synchronizes the queue item for a solved problem from its
// progress record. The operation is idempotent; repeated calls leave a single
// item per (user, problem) pair.
func (s *Service) Enqueue(ctx context.Context, userID, problemID int32) (*store.ReviewQueueItem, error) {
	progress, err := s.store.GetProgress(ctx, &store.FindProgress{
		UserID:    &userID,
		ProblemID: &problemID,
	})
	if err != nil {
		return nil, engineerr.Unavailable("failed to load progress", err)
	}
	if progress == nil || progress.Status != store.ProgressSolved {
		return nil, engineerr.NotFoundf("no solved progress for user %d on problem %d", userID, problemID)
	}
	problem, err := s.store.GetProblem(ctx, &store.FindProblem{ID: &problemID})
	if err != nil {
		return nil, engineerr.Unavailable("failed to load problem", err)
	}
	if problem == nil {
		return nil, engineerr.NotFoundf("problem %d not found", problemID)
	}

	dueTs := s.now().Unix()
	if progress.NextReviewTs != nil {
		dueTs = *progress.NextReviewTs
	}
	item, err := s.store.UpsertReviewQueueItem(ctx, &store.UpsertReviewQueueItem{
		UserID:    userID,
		ProblemID: problemID,
		DueTs:     dueTs,
		Priority:  priorityForDifficulty(problem.Difficulty),
	})
	if err != nil {
		return nil, engineerr.Unavailable("failed to enqueue review", err)
	}
	return item, nil
}

// touchStreak counts today as activity for the user: same-day repeats are
// no-ops, activity within the freeze window extends the streak, and anything
// longer starts over at one. The window matches the decay evaluator's, so a
// streak the evaluator carried through a lapse survives the submission that
// ends it. The longest-streak watermark only ever grows.
func (s *Service) touchStreak(ctx context.Context, userID int32, now time.Time) error {
	state, err := s.store.GetUserEngagement(ctx, &store.FindUserEngagement{UserID: &userID})
	if err != nil {
		return engineerr.Unavailable("failed to load engagement", err)
	}

	today := timezone.DayStart(now)
	currentStreak := int32(1)
	longestStreak := int32(1)
	if state != nil {
		longestStreak = state.LongestStreak
		if state.LastActiveTs != nil {
			switch days := timezone.DaysBetween(time.Unix(*state.LastActiveTs, 0), today); {
			case days == 0:
				return nil
			case days >= 1 && days <= engagement.StreakFreezeDays:
				currentStreak = state.CurrentStreak + 1
			}
		}
		if longestStreak < currentStreak {
			longestStreak = currentStreak
		}
	}

	lastActiveTs := today.Unix()
	if _, err := s.store.UpsertUserEngagement(ctx, &store.UpsertUserEngagement{
		UserID:        userID,
		CurrentStreak: currentStreak,
		LongestStreak: longestStreak,
		LastActiveTs:  &lastActiveTs,
	}); err != nil {
		return engineerr.Unavailable("failed to update engagement", err)
	}
	return nil
}

func priorityForDifficulty(difficulty store.ProblemDifficulty) int32 {
	switch difficulty {
	case store.ProblemHard:
		return 3
	case store.ProblemMedium:
		return 2
	default:
		return 1
	}
}
