package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/store/memory"
)

var testNow = time.Date(2025, time.October, 27, 20, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger, _ := test.NewNullLogger()
	service := domain.NewService(memory.NewRepository(),
		domain.WithLogger(logger),
		domain.WithClock(func() time.Time { return testNow }),
	)
	return NewRouter(NewHandler(service, logger), RouterConfig{Logger: logger})
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func createUser(t *testing.T, h http.Handler, username string) UserView {
	t.Helper()
	rr := postForm(t, h, "/api/users", url.Values{"username": {username}})
	require.Equal(t, http.StatusOK, rr.Code)
	var user UserView
	decode(t, rr, &user)
	return user
}

func TestCreateAndListUsers(t *testing.T) {
	h := newTestRouter(t)

	user := createUser(t, h, "cioana")
	require.Regexp(t, `^[0-9a-f]{24}$`, user.ID)
	require.Equal(t, "cioana", user.Username)

	rr := get(t, h, "/api/users")
	require.Equal(t, http.StatusOK, rr.Code)
	var users []UserView
	decode(t, rr, &users)
	require.Equal(t, []UserView{user}, users)
}

func TestListUsersEmptyIsArray(t *testing.T) {
	rr := get(t, newTestRouter(t), "/api/users")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `[]`, rr.Body.String())
}

func TestLogExerciseFormBody(t *testing.T) {
	h := newTestRouter(t)
	user := createUser(t, h, "cioana")

	rr := postForm(t, h, "/api/users/"+user.ID+"/exercises", url.Values{
		"description": {"run"},
		"duration":    {"30"},
		"date":        {"Sun Aug 18 2024"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"_id":"`+user.ID+`","username":"cioana","description":"run","duration":30,"date":"Sun Aug 18 2024"}`, rr.Body.String())
}

func TestLogExerciseJSONBodyDefaultsDate(t *testing.T) {
	h := newTestRouter(t)
	user := createUser(t, h, "cioana")

	req := httptest.NewRequest(http.MethodPost, "/api/users/"+user.ID+"/exercises",
		strings.NewReader(`{"description":"swim","duration":45}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var view ExerciseView
	decode(t, rr, &view)
	require.Equal(t, domain.IntOf(45), view.Duration)
	require.Equal(t, "Mon Oct 27 2025", view.Date)
}

func TestLogExerciseSentinels(t *testing.T) {
	h := newTestRouter(t)
	user := createUser(t, h, "cioana")

	rr := postForm(t, h, "/api/users/"+user.ID+"/exercises", url.Values{
		"description": {"lift"},
		"duration":    {"heavy"},
		"date":        {"someday"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"_id":"`+user.ID+`","username":"cioana","description":"lift","duration":null,"date":"Invalid Date"}`, rr.Body.String())
}

func TestLogExerciseMalformedJSON(t *testing.T) {
	h := newTestRouter(t)
	user := createUser(t, h, "cioana")

	req := httptest.NewRequest(http.MethodPost, "/api/users/"+user.ID+"/exercises", strings.NewReader(`{"description":`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var resp ErrorResponse
	decode(t, rr, &resp)
	require.Equal(t, "There was an error", resp.Error)
	require.NotEmpty(t, resp.ErrorBody)
}

func TestUnknownUserReportsError(t *testing.T) {
	h := newTestRouter(t)
	missing := domain.NewID()

	for _, id := range []string{missing, "not-an-id"} {
		rr := postForm(t, h, "/api/users/"+id+"/exercises", url.Values{"description": {"run"}, "duration": {"10"}})
		require.Equal(t, http.StatusOK, rr.Code)
		require.JSONEq(t, `{"error":"Cannot find a user with id `+id+`"}`, rr.Body.String())

		rr = get(t, h, "/api/users/"+id+"/logs")
		require.Equal(t, http.StatusOK, rr.Code)
		require.JSONEq(t, `{"error":"Cannot find a user with id `+id+`"}`, rr.Body.String())
	}
}

func TestLogCountMatchesReturnedEntries(t *testing.T) {
	h := newTestRouter(t)
	user := createUser(t, h, "cioana")

	for _, d := range []string{"2024-08-18", "2025-02-10", "2025-04-13", "2025-10-05", "2026-03-16"} {
		rr := postForm(t, h, "/api/users/"+user.ID+"/exercises", url.Values{
			"description": {"session " + d},
			"duration":    {"20"},
			"date":        {d},
		})
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := get(t, h, "/api/users/"+user.ID+"/logs?from=2025-01-01&to=2025-12-31&limit=2")
	require.Equal(t, http.StatusOK, rr.Code)

	var logs LogView
	decode(t, rr, &logs)
	require.Equal(t, user.ID, logs.ID)
	require.Equal(t, "cioana", logs.Username)
	require.Equal(t, 2, logs.Count)
	require.Len(t, logs.Log, 2)
	require.Equal(t, LogEntryView{Description: "session 2025-02-10", Duration: domain.IntOf(20), Date: "Mon Feb 10 2025"}, logs.Log[0])
	require.Equal(t, "Sun Apr 13 2025", logs.Log[1].Date)
}

func TestLogForNewUserIsEmpty(t *testing.T) {
	h := newTestRouter(t)
	user := createUser(t, h, "fresh")

	rr := get(t, h, "/api/users/"+user.ID+"/logs?limit=abc")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"_id":"`+user.ID+`","username":"fresh","count":0,"log":[]}`, rr.Body.String())
}

func TestLandingPageAndHealth(t *testing.T) {
	h := newTestRouter(t)

	rr := get(t, h, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Exercise tracker")

	rr = get(t, h, "/public/style.css")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpointIsOptional(t *testing.T) {
	require.Equal(t, http.StatusNotFound, get(t, newTestRouter(t), "/metrics").Code)

	logger, _ := test.NewNullLogger()
	withMetrics := NewRouter(NewHandler(domain.NewService(memory.NewRepository(), domain.WithLogger(logger)), logger),
		RouterConfig{Metrics: true, Logger: logger})
	rr := get(t, withMetrics, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "exercise_tracker_")
}

func TestLogToWithoutFromReturnsEverything(t *testing.T) {
	h := newTestRouter(t)
	user := createUser(t, h, "cioana")
	for _, d := range []string{"2024-08-18", "2026-03-16"} {
		rr := postForm(t, h, "/api/users/"+user.ID+"/exercises", url.Values{"description": {d}, "duration": {"10"}, "date": {d}})
		require.Equal(t, http.StatusOK, rr.Code)
	}

	var logs LogView
	decode(t, get(t, h, "/api/users/"+user.ID+"/logs?to=2025-01-01"), &logs)
	require.Equal(t, 2, logs.Count)

	decode(t, get(t, h, "/api/users/"+user.ID+"/logs?from=2024-01-01&to=2025-01-01"), &logs)
	require.Equal(t, 1, logs.Count)
	require.Equal(t, "2024-08-18", logs.Log[0].Description)
}

func TestUppercaseUserIDResolves(t *testing.T) {
	h := newTestRouter(t)
	user := createUser(t, h, "cioana")
	upper := strings.ToUpper(user.ID)

	rr := postForm(t, h, "/api/users/"+upper+"/exercises", url.Values{"description": {"run"}, "duration": {"30"}, "date": {"2025-02-10"}})
	require.Equal(t, http.StatusOK, rr.Code)
	var view ExerciseView
	decode(t, rr, &view)
	require.Equal(t, user.ID, view.ID)
	require.Equal(t, "cioana", view.Username)

	var logs LogView
	decode(t, get(t, h, "/api/users/"+upper+"/logs"), &logs)
	require.Equal(t, user.ID, logs.ID)
	require.Equal(t, 1, logs.Count)
}

type failingRepo struct {
	*memory.Repository
}

func (failingRepo) ListUsers(context.Context) ([]domain.User, error) {
	return nil, errors.New("connection reset")
}

func TestStoreFailureIsLoggedOnHandlerLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	service := domain.NewService(failingRepo{memory.NewRepository()}, domain.WithLogger(logger))
	h := NewRouter(NewHandler(service, logger), RouterConfig{Logger: logger})

	rr := get(t, h, "/api/users")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp ErrorResponse
	decode(t, rr, &resp)
	require.Equal(t, "There was an error", resp.Error)
	require.Contains(t, resp.ErrorBody, "connection reset")

	var failed *log.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Message == "request failed" {
			failed = entry
		}
	}
	require.NotNil(t, failed)
	require.Equal(t, log.ErrorLevel, failed.Level)
	require.Equal(t, "/api/users", failed.Data["path"])
}
