package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/kataforge/kataforge/store"
)

// CreateUserRequest registers a learner with the engine.
type CreateUserRequest struct {
	Username string `json:"username"`
}

// UserResponse is the wire form of a user.
type UserResponse struct {
	ID       int32  `json:"id"`
	UID      string `json:"uid"`
	Username string `json:"username"`
}

// CreateUser registers a learner.
//
// POST /api/v1/users
func (s *APIV1Service) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed user request")
	}
	if req.Username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}

	user, err := s.Store.CreateUser(c.Request().Context(), &store.User{
		UID:      shortuuid.New(),
		Username: req.Username,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create user")
	}
	return c.JSON(http.StatusOK, &UserResponse{ID: user.ID, UID: user.UID, Username: user.Username})
}

// CreateProblemRequest registers a practice problem.
type CreateProblemRequest struct {
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
}

// ProblemResponse is the wire form of a problem.
type ProblemResponse struct {
	ID         int32  `json:"id"`
	UID        string `json:"uid"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
}

// CreateProblem registers a practice problem.
//
// POST /api/v1/problems
func (s *APIV1Service) CreateProblem(c echo.Context) error {
	var req CreateProblemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed problem request")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	difficulty := store.ProblemDifficulty(req.Difficulty)
	switch difficulty {
	case store.ProblemEasy, store.ProblemMedium, store.ProblemHard:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "difficulty must be EASY, MEDIUM or HARD")
	}

	problem, err := s.Store.CreateProblem(c.Request().Context(), &store.Problem{
		UID:        shortuuid.New(),
		Title:      req.Title,
		Difficulty: difficulty,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create problem")
	}
	return c.JSON(http.StatusOK, &ProblemResponse{
		ID:         problem.ID,
		UID:        problem.UID,
		Title:      problem.Title,
		Difficulty: string(problem.Difficulty),
	})
}

// CreateAchievementRequest adds a catalog entry.
type CreateAchievementRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	CriteriaKind      string `json:"criteriaKind"`
	CriteriaThreshold int32  `json:"criteriaThreshold"`
	XPReward          int32  `json:"xpReward"`
}

// AchievementResponse is the wire form of a catalog entry.
type AchievementResponse struct {
	ID                int32  `json:"id"`
	UID               string `json:"uid"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	CriteriaKind      string `json:"criteriaKind"`
	CriteriaThreshold int32  `json:"criteriaThreshold"`
	XPReward          int32  `json:"xpReward"`
}

func convertAchievement(achievement *store.Achievement) *AchievementResponse {
	return &AchievementResponse{
		ID:                achievement.ID,
		UID:               achievement.UID,
		Name:              achievement.Name,
		Description:       achievement.Description,
		CriteriaKind:      string(achievement.Criteria.Kind),
		CriteriaThreshold: achievement.Criteria.Threshold,
		XPReward:          achievement.XPReward,
	}
}

// CreateAchievement adds an achievement to the catalog. The criteria kind is
// validated here so the sweep never sees a kind it cannot evaluate through
// this path.
//
// POST /api/v1/achievements
func (s *APIV1Service) CreateAchievement(c echo.Context) error {
	var req CreateAchievementRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed achievement request")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	kind := store.CriteriaKind(req.CriteriaKind)
	switch kind {
	case store.CriteriaProblemsSolved, store.CriteriaStreak, store.CriteriaHardProblemsSolved:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown criteria kind")
	}
	if req.CriteriaThreshold <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "criteria threshold must be positive")
	}
	if req.XPReward < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "xp reward must not be negative")
	}

	achievement, err := s.Store.CreateAchievement(c.Request().Context(), &store.Achievement{
		UID:         shortuuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Criteria:    store.Criteria{Kind: kind, Threshold: req.CriteriaThreshold},
		XPReward:    req.XPReward,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create achievement")
	}
	return c.JSON(http.StatusOK, convertAchievement(achievement))
}

// ListAchievements returns the full catalog.
//
// GET /api/v1/achievements
func (s *APIV1Service) ListAchievements(c echo.Context) error {
	catalog, err := s.Store.ListAchievements(c.Request().Context(), &store.FindAchievement{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list achievements")
	}
	response := make([]*AchievementResponse, 0, len(catalog))
	for _, achievement := range catalog {
		response = append(response, convertAchievement(achievement))
	}
	return c.JSON(http.StatusOK, response)
}
