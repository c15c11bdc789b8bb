package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)

	// Problem model related methods.
	CreateProblem(ctx context.Context, create *Problem) (*Problem, error)
	ListProblems(ctx context.Context, find *FindProblem) ([]*Problem, error)

	// Progress model related methods.
	CreateProgress(ctx context.Context, create *Progress) (*Progress, error)
	ListProgress(ctx context.Context, find *FindProgress) ([]*Progress, error)
	UpdateProgress(ctx context.Context, update *UpdateProgress) error

	// ApplyReview updates the progress row (guarded by its row version) and
	// its review queue item in one transaction. Returns ErrConflict if the
	// version guard fails, ErrNotFound if either row is missing.
	ApplyReview(ctx context.Context, apply *ApplyReview) error

	// ReviewQueueItem model related methods.
	UpsertReviewQueueItem(ctx context.Context, upsert *UpsertReviewQueueItem) (*ReviewQueueItem, error)
	ListReviewQueueItems(ctx context.Context, find *FindReviewQueueItem) ([]*ReviewQueueItem, error)

	// UserEngagement model related methods.
	UpsertUserEngagement(ctx context.Context, upsert *UpsertUserEngagement) (*UserEngagement, error)
	ListUserEngagements(ctx context.Context, find *FindUserEngagement) ([]*UserEngagement, error)
	ResetStreak(ctx context.Context, userID int32) (bool, error)
	AddXP(ctx context.Context, userID int32, delta int64) error

	// Achievement model related methods.
	CreateAchievement(ctx context.Context, create *Achievement) (*Achievement, error)
	ListAchievements(ctx context.Context, find *FindAchievement) ([]*Achievement, error)
	CreateAchievementUnlock(ctx context.Context, create *AchievementUnlock) (bool, error)
	ListAchievementUnlocks(ctx context.Context, find *FindAchievementUnlock) ([]*AchievementUnlock, error)

	// GetUserMetrics computes aggregate metrics for criteria evaluation.
	GetUserMetrics(ctx context.Context, userID int32) (*UserMetrics, error)
}
