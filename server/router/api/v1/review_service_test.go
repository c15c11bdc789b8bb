package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/kataforge/kataforge/internal/profile"
	storetest "github.com/kataforge/kataforge/store/test"
)

func newTestAPI(t *testing.T) (*echo.Echo, *APIV1Service) {
	t.Helper()
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	service := NewAPIV1Service(&profile.Profile{Mode: "dev"}, ts)

	echoServer := echo.New()
	service.Register(echoServer)
	return echoServer, service
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSubmissionAndReviewFlow(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/users", `{"username":"alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var user UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))

	rec = doJSON(t, e, http.MethodPost, "/api/v1/problems", `{"title":"Two Sum","difficulty":"EASY"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var problem ProblemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))

	// Reviewing before solving is a 404.
	rec = doJSON(t, e, http.MethodPost, "/api/v1/reviews",
		`{"userId":1,"problemId":1,"quality":4}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/submissions",
		`{"userId":1,"problemId":1,"accepted":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var progress ProgressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	require.Equal(t, "SOLVED", progress.Status)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/reviews",
		`{"userId":1,"problemId":1,"quality":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	require.Equal(t, int32(1), progress.Repetitions)
	require.InDelta(t, 2.6, progress.EaseFactor, 1e-9)

	// Engagement reflects the day's activity.
	rec = doJSON(t, e, http.MethodGet, "/api/v1/users/1/engagement", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var engagement UserEngagementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &engagement))
	require.Equal(t, int32(1), engagement.CurrentStreak)
}

func TestListDueReviewsEmptyForCaughtUpUser(t *testing.T) {
	e, _ := newTestAPI(t)

	doJSON(t, e, http.MethodPost, "/api/v1/users", `{"username":"bob"}`)
	rec := doJSON(t, e, http.MethodGet, "/api/v1/users/1/reviews/due", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestCreateProblemValidation(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/problems", `{"title":"X","difficulty":"BRUTAL"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/problems", `{"difficulty":"EASY"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAchievementValidation(t *testing.T) {
	e, _ := newTestAPI(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/achievements",
		`{"name":"Ten Down","criteriaKind":"PROBLEMS_SOLVED","criteriaThreshold":10,"xpReward":100}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/achievements",
		`{"name":"Bad","criteriaKind":"KARMA","criteriaThreshold":10}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/achievements",
		`{"name":"Bad","criteriaKind":"STREAK","criteriaThreshold":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAchievementSweepEndToEnd(t *testing.T) {
	e, _ := newTestAPI(t)

	doJSON(t, e, http.MethodPost, "/api/v1/users", `{"username":"dana"}`)
	doJSON(t, e, http.MethodPost, "/api/v1/problems", `{"title":"DP","difficulty":"HARD"}`)
	doJSON(t, e, http.MethodPost, "/api/v1/achievements",
		`{"name":"First Blood","criteriaKind":"PROBLEMS_SOLVED","criteriaThreshold":1,"xpReward":50}`)
	doJSON(t, e, http.MethodPost, "/api/v1/submissions", `{"userId":1,"problemId":1,"accepted":true}`)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/admin/evaluators/achievement-sweep", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sweep struct {
		NewUnlocks int `json:"NewUnlocks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sweep))
	require.Equal(t, 1, sweep.NewUnlocks)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/users/1/unlocks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var unlocks []AchievementUnlockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unlocks))
	require.Len(t, unlocks, 1)

	rec = doJSON(t, e, http.MethodGet, "/api/v1/users/1/engagement", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var engagement UserEngagementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &engagement))
	require.Equal(t, int64(50), engagement.XP)

	// Repeating the sweep grants nothing further.
	rec = doJSON(t, e, http.MethodPost, "/api/v1/admin/evaluators/achievement-sweep", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sweep))
	require.Zero(t, sweep.NewUnlocks)
}

func TestEnqueueRequiresSolvedProgress(t *testing.T) {
	e, _ := newTestAPI(t)

	doJSON(t, e, http.MethodPost, "/api/v1/users", `{"username":"carol"}`)
	doJSON(t, e, http.MethodPost, "/api/v1/problems", `{"title":"Graph","difficulty":"HARD"}`)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/queue", `{"userId":1,"problemId":1}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	doJSON(t, e, http.MethodPost, "/api/v1/submissions", `{"userId":1,"problemId":1,"accepted":true}`)

	rec = doJSON(t, e, http.MethodPost, "/api/v1/queue", `{"userId":1,"problemId":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var item ReviewQueueItemResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	require.Equal(t, int32(3), item.Priority)
}
