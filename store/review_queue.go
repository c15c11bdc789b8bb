package store

import "context"

// ReviewQueueItem is the per-(user, problem) worklist entry. Exactly one item
// exists per pair that has ever been solved; its DueTs is kept synchronized
// with the paired progress record's NextReviewTs. Items are never removed —
// a caught-up user is simply an empty due list.
type ReviewQueueItem struct {
	ID        int32
	UserID    int32
	ProblemID int32

	DueTs int64
	// Priority orders due items; higher is reviewed first.
	Priority int32
	// LastQuality is the last review quality (0-5) recorded, -1 before the
	// first review.
	LastQuality int32

	CreatedTs int64
	UpdatedTs int64
}

// FindReviewQueueItem is the find condition for review queue items.
type FindReviewQueueItem struct {
	UserID    *int32
	ProblemID *int32
	// DueBefore keeps only items with DueTs <= DueBefore.
	DueBefore *int64

	Limit  *int
	Offset *int
}

// UpsertReviewQueueItem is the idempotent upsert keyed by (user, problem).
type UpsertReviewQueueItem struct {
	UserID    int32
	ProblemID int32
	DueTs     int64
	Priority  int32
	// LastQuality is left untouched when nil.
	LastQuality *int32
}

// UpsertReviewQueueItem creates or refreshes the queue item for (user, problem).
func (s *Store) UpsertReviewQueueItem(ctx context.Context, upsert *UpsertReviewQueueItem) (*ReviewQueueItem, error) {
	return s.driver.UpsertReviewQueueItem(ctx, upsert)
}

// ListReviewQueueItems lists queue items with filter, ordered by priority
// descending then due date ascending.
func (s *Store) ListReviewQueueItems(ctx context.Context, find *FindReviewQueueItem) ([]*ReviewQueueItem, error) {
	return s.driver.ListReviewQueueItems(ctx, find)
}
