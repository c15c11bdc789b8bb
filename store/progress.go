package store

import "context"

// ProgressStatus is the solve status of a (user, problem) pair.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "NOT_STARTED"
	ProgressAttempted  ProgressStatus = "ATTEMPTED"
	ProgressSolved     ProgressStatus = "SOLVED"
)

// Progress is the per-(user, problem) record holding solve status and
// spaced repetition parameters. Rows are created on first attempt and
// mutated on every submission and review; they are never deleted.
//
// RowVersion is the optimistic concurrency guard: every conditional update
// must carry the version it read, and bumps it on success.
type Progress struct {
	ID        int32
	UserID    int32
	ProblemID int32

	Status ProgressStatus
	// EaseFactor never drops below 1.3. Default 2.5.
	EaseFactor float64
	// IntervalDays is always >= 1.
	IntervalDays int32
	// Repetitions counts consecutive successful reviews since the last failure.
	Repetitions  int32
	NextReviewTs *int64

	// Bookkeeping, not authoritative for scheduling.
	HintsUsed      int32
	SolutionViewed bool
	AttemptCount   int32
	SolvedTs       *int64

	RowVersion int64
	CreatedTs  int64
	UpdatedTs  int64
}

// FindProgress is the find condition for progress.
type FindProgress struct {
	UserID    *int32
	ProblemID *int32
	Status    *ProgressStatus

	Limit  *int
	Offset *int
}

// UpdateProgress is the update request for progress, keyed by (user, problem).
// When ExpectedVersion is set the update is conditional and fails with
// ErrConflict if the row has moved on.
type UpdateProgress struct {
	UserID    int32
	ProblemID int32

	Status         *ProgressStatus
	EaseFactor     *float64
	IntervalDays   *int32
	Repetitions    *int32
	NextReviewTs   *int64
	HintsUsed      *int32
	SolutionViewed *bool
	AttemptCount   *int32
	SolvedTs       *int64

	ExpectedVersion *int64
}

// ApplyReview is the atomic write produced by a completed review: the new
// schedule on the progress row and the synchronized review queue entry.
// Both update together or neither does.
type ApplyReview struct {
	UserID    int32
	ProblemID int32

	// ExpectedVersion guards the progress row against a concurrent review
	// of the same (user, problem) pair.
	ExpectedVersion int64

	EaseFactor   float64
	IntervalDays int32
	Repetitions  int32
	NextReviewTs int64
	Quality      int32
}

// CreateProgress creates a new progress record.
func (s *Store) CreateProgress(ctx context.Context, create *Progress) (*Progress, error) {
	return s.driver.CreateProgress(ctx, create)
}

// ListProgress lists progress records with filter.
func (s *Store) ListProgress(ctx context.Context, find *FindProgress) ([]*Progress, error) {
	return s.driver.ListProgress(ctx, find)
}

// GetProgress gets a single progress record, or nil if none matches.
func (s *Store) GetProgress(ctx context.Context, find *FindProgress) (*Progress, error) {
	list, err := s.driver.ListProgress(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateProgress updates a progress record.
func (s *Store) UpdateProgress(ctx context.Context, update *UpdateProgress) error {
	return s.driver.UpdateProgress(ctx, update)
}

// ApplyReview applies a review outcome to the progress record and its review
// queue item in a single transaction.
func (s *Store) ApplyReview(ctx context.Context, apply *ApplyReview) error {
	return s.driver.ApplyReview(ctx, apply)
}
