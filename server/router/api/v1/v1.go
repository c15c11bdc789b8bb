// Package v1 exposes the engine's HTTP API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kataforge/kataforge/internal/profile"
	engineerr "github.com/kataforge/kataforge/server/internal/errors"
	"github.com/kataforge/kataforge/server/middleware"
	"github.com/kataforge/kataforge/server/service/engagement"
	"github.com/kataforge/kataforge/server/service/review"
	"github.com/kataforge/kataforge/store"
)

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	ReviewService     *review.Service
	EngagementService *engagement.Service

	rateLimiter *middleware.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store) *APIV1Service {
	return &APIV1Service{
		Profile:           profile,
		Store:             store,
		ReviewService:     review.NewService(store),
		EngagementService: engagement.NewService(store),
		// 10 writes per second per user, short bursts allowed.
		rateLimiter: middleware.NewRateLimiter(10, 20),
	}
}

// Register mounts all v1 routes on the echo server.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	g := echoServer.Group("/api/v1")

	// Write endpoints are rate limited per caller. Clients pass their user id
	// in X-User-ID; anonymous callers fall back to a per-address bucket.
	limited := s.rateLimiter.Middleware(func(c echo.Context) string {
		return c.Request().Header.Get("X-User-ID")
	})

	g.POST("/users", s.CreateUser)
	g.POST("/problems", s.CreateProblem)
	g.POST("/achievements", s.CreateAchievement)
	g.GET("/achievements", s.ListAchievements)

	g.POST("/submissions", s.CreateSubmission, limited)
	g.POST("/reviews", s.CreateReview, limited)
	g.POST("/queue", s.EnqueueReview, limited)

	g.GET("/users/:user/reviews/due", s.ListDueReviews)
	g.GET("/users/:user/engagement", s.GetUserEngagement)
	g.GET("/users/:user/unlocks", s.ListUserUnlocks)

	// Manual triggers for the background evaluators; both are idempotent.
	g.POST("/admin/evaluators/streak-decay", s.RunStreakDecay)
	g.POST("/admin/evaluators/achievement-sweep", s.RunAchievementSweep)
}

// StartLimiterCleanup begins the background eviction of idle limiters.
func (s *APIV1Service) StartLimiterCleanup(stop <-chan struct{}) {
	s.rateLimiter.StartCleanup(stop)
}

// errToHTTP maps an engine error to its transport status.
func errToHTTP(err error) *echo.HTTPError {
	switch engineerr.GetCodeFromError(err, engineerr.ErrCodeUnavailable) {
	case engineerr.ErrCodeNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case engineerr.ErrCodeInvalidArgument:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case engineerr.ErrCodeStorageConflict:
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case engineerr.ErrCodeRateLimitExceeded:
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
