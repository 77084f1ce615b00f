package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/procrastinemon/internal/auth"
	"github.com/rcliao/procrastinemon/internal/model"
	"github.com/rcliao/procrastinemon/internal/service"
	"github.com/rcliao/procrastinemon/internal/store"
)

type fixture struct {
	router   *gin.Engine
	store    *store.SQLiteStore
	verifier *auth.HMACVerifier
	date     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	v, err := auth.NewHMACVerifier("test-secret", "", "")
	require.NoError(t, err)

	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	days := service.NewDays(s, nil, nil, nil, service.WithClock(func() time.Time { return now }))

	return &fixture{
		router:   NewRouter(RouterConfig{Days: days, Verifier: v, CORSOrigins: []string{"http://localhost:3000"}}),
		store:    s,
		verifier: v,
		date:     service.Date(now),
	}
}

func (f *fixture) token(t *testing.T, user string) string {
	t.Helper()
	tok, err := f.verifier.Issue(user, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type resolveBody struct {
	Stats   model.ProgressionState `json:"stats"`
	Message string                 `json:"message"`
}

func TestResolveDaySuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, done := range []bool{true, true, false} {
		g, err := f.store.AddGoal(ctx, "u1", f.date, "quest")
		require.NoError(t, err, "goal %d", i)
		if done {
			_, err = f.store.ToggleGoal(ctx, "u1", f.date, g.ID)
			require.NoError(t, err)
		}
	}

	rec := f.do(http.MethodPost, "/resolve-day", f.token(t, "u1"), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[resolveBody](t, rec)
	assert.Equal(t, model.ProgressionState{UserXP: 20, DemonXP: 5, CurrentStreak: 1, CurrentForm: model.FormBasic}, body.Stats)
	assert.Equal(t, "Well done! You completed 2 goals. Your demon is a little weaker today.", body.Message)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	// Replaying the same day returns the same stats.
	rec = f.do(http.MethodPost, "/resolve-day", f.token(t, "u1"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body.Stats, decode[resolveBody](t, rec).Stats)
}

func TestResolveDayStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expired, err := f.verifier.Issue("u1", -time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.store.CreateGoalSet(ctx, "empty", f.date))

	tests := []struct {
		name    string
		method  string
		token   string
		status  int
		message string
	}{
		{"method not allowed", http.MethodGet, "", http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"missing header", http.MethodPost, "", http.StatusUnauthorized, "Authorization header missing or malformed"},
		{"expired token", http.MethodPost, expired, http.StatusUnauthorized, "ID token expired. Please reauthenticate."},
		{"invalid token", http.MethodPost, "garbage", http.StatusUnauthorized, "Invalid ID token."},
		{"no goal document", http.MethodPost, f.token(t, "nobody"), http.StatusNotFound, "No goals found for today"},
		{"empty goal set", http.MethodPost, f.token(t, "empty"), http.StatusBadRequest, "Cannot finish day with no goals set."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, "/resolve-day", tt.token, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decode[ErrorBody](t, rec).Message)
		})
	}
}

func TestResolveDayStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.AddGoal(context.Background(), "u1", f.date, "quest")
	f.store.Close()

	rec := f.do(http.MethodPost, "/resolve-day", f.token(t, "u1"), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decode[ErrorBody](t, rec).Message)
}

func TestGoalEndpoints(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "u1")

	rec := f.do(http.MethodGet, "/goals", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[goalsResponse](t, rec)
	assert.Equal(t, "2026-10-18", list.Date)
	assert.Empty(t, list.Goals)

	rec = f.do(http.MethodPost, "/goals", tok, `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/goals", tok, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var ids []string
	for _, text := range []string{"slay inbox", "walk", "read"} {
		rec = f.do(http.MethodPost, "/goals", tok, `{"text":"`+text+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		ids = append(ids, decode[model.Goal](t, rec).ID)
	}

	rec = f.do(http.MethodPost, "/goals", tok, `{"text":"one too many"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/goals/"+ids[0]+"/toggle", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[model.Goal](t, rec).Completed)

	rec = f.do(http.MethodPost, "/goals/nope/toggle", tok, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/resolve-day", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/goals/"+ids[1]+"/toggle", tok, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodGet, "/stats", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ProgressionState{UserXP: 10, DemonXP: 10, CurrentStreak: 1, CurrentForm: model.FormBasic},
		decode[model.ProgressionState](t, rec))

	rec = f.do(http.MethodGet, "/history?limit=5", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	hist := decode[struct {
		Days []model.ResolutionResult `json:"days"`
	}](t, rec)
	require.Len(t, hist.Days, 1)
	assert.Equal(t, model.CategoryMixedMoreMissed, hist.Days[0].Category)

	rec = f.do(http.MethodGet, "/history?limit=0", tok, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddGoalTextLength(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "u1")

	fire := strings.Repeat("🔥", 60)
	rec := f.do(http.MethodPost, "/goals", tok, `{"text":"`+fire+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, fire, decode[model.Goal](t, rec).Text)

	rec = f.do(http.MethodPost, "/goals", tok, `{"text":"`+strings.Repeat("a", model.MaxGoalTextLen+1)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Goal must be 200 characters or fewer.", decode[ErrorBody](t, rec).Message)

	rec = f.do(http.MethodPost, "/goals", tok, `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Goal can't be empty!", decode[ErrorBody](t, rec).Message)
}

func TestGoalsRequireAuth(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/goals", "/stats", "/history"} {
		rec := f.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/resolve-day", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	status, _ := statusFor(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)

	status, _ = statusFor(store.ErrStoreUnavailable)
	assert.Equal(t, http.StatusInternalServerError, status)

	status, _ = statusFor(store.ErrAlreadyResolved)
	assert.Equal(t, http.StatusConflict, status)
}
