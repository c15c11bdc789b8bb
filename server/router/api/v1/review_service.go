package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kataforge/kataforge/server/service/review"
	"github.com/kataforge/kataforge/store"
)

// CreateSubmissionRequest is one graded attempt at a problem.
type CreateSubmissionRequest struct {
	UserID         int32 `json:"userId"`
	ProblemID      int32 `json:"problemId"`
	Accepted       bool  `json:"accepted"`
	HintsUsed      int32 `json:"hintsUsed"`
	SolutionViewed bool  `json:"solutionViewed"`
}

// ProgressResponse is the wire form of a progress record.
type ProgressResponse struct {
	UserID       int32   `json:"userId"`
	ProblemID    int32   `json:"problemId"`
	Status       string  `json:"status"`
	EaseFactor   float64 `json:"easeFactor"`
	IntervalDays int32   `json:"intervalDays"`
	Repetitions  int32   `json:"repetitions"`
	NextReviewTs *int64  `json:"nextReviewTs,omitempty"`
	AttemptCount int32   `json:"attemptCount"`
	SolvedTs     *int64  `json:"solvedTs,omitempty"`
}

func convertProgress(progress *store.Progress) *ProgressResponse {
	return &ProgressResponse{
		UserID:       progress.UserID,
		ProblemID:    progress.ProblemID,
		Status:       string(progress.Status),
		EaseFactor:   progress.EaseFactor,
		IntervalDays: progress.IntervalDays,
		Repetitions:  progress.Repetitions,
		NextReviewTs: progress.NextReviewTs,
		AttemptCount: progress.AttemptCount,
		SolvedTs:     progress.SolvedTs,
	}
}

// CreateSubmission records a graded attempt.
//
// POST /api/v1/submissions
func (s *APIV1Service) CreateSubmission(c echo.Context) error {
	var req CreateSubmissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed submission request")
	}
	if req.UserID <= 0 || req.ProblemID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "userId and problemId are required")
	}

	progress, err := s.ReviewService.RecordSubmission(c.Request().Context(), &review.Submission{
		UserID:         req.UserID,
		ProblemID:      req.ProblemID,
		Accepted:       req.Accepted,
		HintsUsed:      req.HintsUsed,
		SolutionViewed: req.SolutionViewed,
	})
	if err != nil {
		return errToHTTP(err)
	}
	return c.JSON(http.StatusOK, convertProgress(progress))
}

// CreateReviewRequest is one completed spaced-repetition review.
type CreateReviewRequest struct {
	UserID    int32 `json:"userId"`
	ProblemID int32 `json:"problemId"`
	Quality   int32 `json:"quality"`
}

// CreateReview applies a review outcome and returns the new schedule.
//
// POST /api/v1/reviews
func (s *APIV1Service) CreateReview(c echo.Context) error {
	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed review request")
	}
	if req.UserID <= 0 || req.ProblemID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "userId and problemId are required")
	}

	progress, err := s.ReviewService.SubmitReview(c.Request().Context(), req.UserID, req.ProblemID, req.Quality)
	if err != nil {
		return errToHTTP(err)
	}
	return c.JSON(http.StatusOK, convertProgress(progress))
}

// ReviewQueueItemResponse is the wire form of a queue entry.
type ReviewQueueItemResponse struct {
	ProblemID   int32 `json:"problemId"`
	DueTs       int64 `json:"dueTs"`
	Priority    int32 `json:"priority"`
	LastQuality int32 `json:"lastQuality"`
}

// ListDueReviews returns the caller's due queue, highest priority first.
// The optional limit query parameter defaults to 20.
//
// GET /api/v1/users/:user/reviews/due
func (s *APIV1Service) ListDueReviews(c echo.Context) error {
	userID, err := parseID(c.Param("user"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
	}

	items, err := s.ReviewService.DueItems(c.Request().Context(), userID, limit)
	if err != nil {
		return errToHTTP(err)
	}
	response := make([]*ReviewQueueItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, &ReviewQueueItemResponse{
			ProblemID:   item.ProblemID,
			DueTs:       item.DueTs,
			Priority:    item.Priority,
			LastQuality: item.LastQuality,
		})
	}
	return c.JSON(http.StatusOK, response)
}

// EnqueueReviewRequest asks for a queue item to be re-synchronized.
type EnqueueReviewRequest struct {
	UserID    int32 `json:"userId"`
	ProblemID int32 `json:"problemId"`
}

// EnqueueReview upserts the queue item for a solved problem. Repeating the
// call does not create duplicates.
//
// POST /api/v1/queue
func (s *APIV1Service) EnqueueReview(c echo.Context) error {
	var req EnqueueReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed enqueue request")
	}
	if req.UserID <= 0 || req.ProblemID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "userId and problemId are required")
	}

	item, err := s.ReviewService.Enqueue(c.Request().Context(), req.UserID, req.ProblemID)
	if err != nil {
		return errToHTTP(err)
	}
	return c.JSON(http.StatusOK, &ReviewQueueItemResponse{
		ProblemID:   item.ProblemID,
		DueTs:       item.DueTs,
		Priority:    item.Priority,
		LastQuality: item.LastQuality,
	})
}

func parseID(raw string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return int32(id), nil
}
