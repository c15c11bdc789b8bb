package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kataforge/kataforge/store"
)

// UserEngagementResponse is the wire form of a user's engagement state.
type UserEngagementResponse struct {
	UserID        int32  `json:"userId"`
	CurrentStreak int32  `json:"currentStreak"`
	LongestStreak int32  `json:"longestStreak"`
	LastActiveTs  *int64 `json:"lastActiveTs,omitempty"`
	XP            int64  `json:"xp"`
}

// GetUserEngagement returns streaks and XP for one user. A user with no
// recorded activity gets the zero state rather than a 404.
//
// GET /api/v1/users/:user/engagement
func (s *APIV1Service) GetUserEngagement(c echo.Context) error {
	userID, err := parseID(c.Param("user"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	ctx := c.Request().Context()
	user, err := s.Store.GetUser(ctx, &store.FindUser{ID: &userID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load user")
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	engagement, err := s.Store.GetUserEngagement(ctx, &store.FindUserEngagement{UserID: &userID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load engagement")
	}
	response := &UserEngagementResponse{UserID: userID}
	if engagement != nil {
		response.CurrentStreak = engagement.CurrentStreak
		response.LongestStreak = engagement.LongestStreak
		response.LastActiveTs = engagement.LastActiveTs
		response.XP = engagement.XP
	}
	return c.JSON(http.StatusOK, response)
}

// RunStreakDecay triggers one streak decay pass and reports its counts.
//
// POST /api/v1/admin/evaluators/streak-decay
func (s *APIV1Service) RunStreakDecay(c echo.Context) error {
	result, err := s.EngagementService.EvaluateStreaks(c.Request().Context())
	if err != nil {
		return errToHTTP(err)
	}
	return c.JSON(http.StatusOK, result)
}

// RunAchievementSweep triggers one achievement sweep and reports its counts.
//
// POST /api/v1/admin/evaluators/achievement-sweep
func (s *APIV1Service) RunAchievementSweep(c echo.Context) error {
	result, err := s.EngagementService.SweepAchievements(c.Request().Context())
	if err != nil {
		return errToHTTP(err)
	}
	return c.JSON(http.StatusOK, result)
}

// AchievementUnlockResponse is the wire form of an unlock record.
type AchievementUnlockResponse struct {
	AchievementID int32 `json:"achievementId"`
	UnlockedTs    int64 `json:"unlockedTs"`
}

// ListUserUnlocks returns the user's unlocked achievements.
//
// GET /api/v1/users/:user/unlocks
func (s *APIV1Service) ListUserUnlocks(c echo.Context) error {
	userID, err := parseID(c.Param("user"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	unlocks, err := s.Store.ListAchievementUnlocks(c.Request().Context(), &store.FindAchievementUnlock{
		UserID: &userID,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list unlocks")
	}
	response := make([]*AchievementUnlockResponse, 0, len(unlocks))
	for _, unlock := range unlocks {
		response = append(response, &AchievementUnlockResponse{
			AchievementID: unlock.AchievementID,
			UnlockedTs:    unlock.UnlockedTs,
		})
	}
	return c.JSON(http.StatusOK, response)
}
