package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	httptransport "github.com/spec-kit/helpdesk-core/internal/api/http"
	"github.com/spec-kit/helpdesk-core/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/persistence"
	"github.com/spec-kit/helpdesk-core/internal/testutil"
)

type server struct {
	app    *fiber.App
	env    *testutil.Env
	tokens map[string]string
}

func newServer(t *testing.T) *server {
	t.Helper()
	return newLoggedServer(t, zap.NewNop())
}

func newLoggedServer(t *testing.T, logger *zap.Logger) *server {
	t.Helper()
	env := testutil.NewEnv(testutil.Monday.Add(8 * time.Hour))
	cat := testutil.NewTestCategory("network", 60)
	env.Store.PutCategory(cat)
	env.Store.PutTicket(testutil.NewTestTicket("t1", cat))
	env.Store.PutTicket(testutil.NewTestTicket("t2", cat, testutil.WithCreatedAt(testutil.Monday.Add(-time.Hour))))
	env.Store.AddSlot(testutil.Slot("a1", testutil.Monday, "09:00", "11:00"))

	s := &server{env: env, tokens: map[string]string{}}
	for _, w := range []domain.Worker{
		testutil.NewTestWorker("a1"),
		testutil.NewTestWorker("a2"),
		testutil.NewTestWorker("m1", testutil.WithRole(domain.WorkerRoleManager)),
	} {
		env.Store.PutWorker(w)
		token, _, err := env.Auth.TokenManager().GenerateToken(&w)
		require.NoError(t, err)
		s.tokens[w.ID] = token
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, env.Metrics, time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler("helpdesk-core", "test", &persistence.Postgres{}, &persistence.Redis{}, env.Metrics),
		Auth:   handlers.NewAuthHandler(env.Auth),
		Work:   handlers.NewWorkHandler(env.Work),
		Schedule: handlers.NewScheduleHandler(handlers.ScheduleHandlerDeps{
			Assignments: env.Scheduler,
			Predictions: env.Predictions,
			Reports:     env.Reports,
			Categories:  env.Categories,
			Clock:       env.Clock,
		}),
		Settings:       handlers.NewSettingsHandler(env.Settings, env.Clock),
		AuthMiddleware: auth.NewAuthMiddleware(env.Auth.TokenManager(), env.Workers),
	})
	s.app = app
	return s
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *server) do(t *testing.T, method, path, as string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[as])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	s := newServer(t)

	status, _ := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "disabled", body.Dependencies["postgres"])
}

func TestLogin(t *testing.T) {
	s := newServer(t)
	hash, err := auth.HashPassword("pw", 4)
	require.NoError(t, err)
	s.env.Store.PutWorker(testutil.NewTestWorker("a3", testutil.WithPasswordHash(hash)))

	status, body := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "a3@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, status)
	var data struct {
		Worker struct{ ID string } `json:"worker"`
		Auth   struct{ Token string } `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "a3", data.Worker.ID)
	assert.NotEmpty(t, data.Auth.Token)

	status, body = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "a3@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}

func TestWorkLifecycle(t *testing.T) {
	s := newServer(t)

	status, _ := s.do(t, http.MethodPost, "/api/v1/tickets/t1/work/start", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/tickets/t1/work/start", "a1", nil)
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(t, http.MethodPost, "/api/v1/tickets/t1/work/start", "a1", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ACTIVE_WORK_EXISTS", body.Error.Code)

	status, body = s.do(t, http.MethodPost, "/api/v1/tickets/t1/close", "a2", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ACTIVE_SESSIONS_REMAIN", body.Error.Code)

	s.env.Clock.Advance(25 * time.Minute)
	status, body = s.do(t, http.MethodPost, "/api/v1/tickets/t1/work/stop", "a1", nil)
	require.Equal(t, http.StatusOK, status)
	var session struct {
		DurationMinutes int  `json:"duration_minutes"`
		Active          bool `json:"active"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &session))
	assert.Equal(t, 25, session.DurationMinutes)
	assert.False(t, session.Active)

	status, _ = s.do(t, http.MethodPost, "/api/v1/tickets/t1/time-entries", "a1", map[string]any{"minutes": 10, "is_phone_call": true})
	assert.Equal(t, http.StatusCreated, status)

	status, body = s.do(t, http.MethodPost, "/api/v1/tickets/t1/time-entries", "a1", map[string]any{"minutes": 0})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_TIME_ENTRY", body.Error.Code)

	status, body = s.do(t, http.MethodPatch, "/api/v1/tickets/t1/status", "a1", map[string]any{"status": "resolved"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_STATUS", body.Error.Code)

	status, body = s.do(t, http.MethodPost, "/api/v1/tickets/t1/close", "a1", nil)
	require.Equal(t, http.StatusOK, status)
	var ticket struct {
		Status   string `json:"status"`
		ClosedBy string `json:"closed_by"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &ticket))
	assert.Equal(t, "closed", ticket.Status)
	assert.Equal(t, "a1", ticket.ClosedBy)

	status, body = s.do(t, http.MethodGet, "/api/v1/tickets/t1/sessions", "a2", nil)
	require.Equal(t, http.StatusOK, status)
	var sessions []json.RawMessage
	require.NoError(t, json.Unmarshal(body.Data, &sessions))
	assert.Len(t, sessions, 2)
}

func TestAgentsActOnlyForThemselves(t *testing.T) {
	s := newServer(t)

	status, body := s.do(t, http.MethodPost, "/api/v1/tickets/t1/work/start", "a1", map[string]string{"worker_id": "a2"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body.Error.Code)

	status, _ = s.do(t, http.MethodGet, "/api/v1/workers/a2/schedule?week=2024-03-04", "a1", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/tickets/t1/work/start", "m1", map[string]string{"worker_id": "a2"})
	assert.Equal(t, http.StatusCreated, status)
}

func TestScheduling(t *testing.T) {
	s := newServer(t)

	status, body := s.do(t, http.MethodPost, "/api/v1/workers/a1/auto-assign", "a1", map[string]any{"week_start": "2024-03-04"})
	require.Equal(t, http.StatusOK, status)
	var created []struct {
		TicketID       string `json:"ticket_id"`
		Date           string `json:"date"`
		IsAutoAssigned bool   `json:"is_auto_assigned"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	require.Len(t, created, 2)
	assert.Equal(t, "t1", created[0].TicketID)
	assert.Equal(t, "2024-03-04", created[1].Date)

	status, body = s.do(t, http.MethodGet, "/api/v1/workers/a1/prediction?week=2024-03-04", "a1", nil)
	require.Equal(t, http.StatusOK, status)
	var days []struct {
		Date           string `json:"date"`
		PredictedCount int    `json:"predicted_count"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &days))
	require.Len(t, days, 7)
	assert.Equal(t, 2, days[0].PredictedCount)
	assert.Equal(t, 0, days[1].PredictedCount)

	status, body = s.do(t, http.MethodPost, "/api/v1/schedule", "m1", map[string]string{"ticket_id": "t1", "worker_id": "a1", "date": "2024-03-03"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "DATE_IN_PAST", body.Error.Code)

	status, body = s.do(t, http.MethodPost, "/api/v1/schedule", "m1", map[string]string{"ticket_id": "t1", "worker_id": "a1", "date": "2024-03-04"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_SCHEDULED", body.Error.Code)

	status, body = s.do(t, http.MethodPost, "/api/v1/schedule", "m1", map[string]string{"ticket_id": "t1", "worker_id": "a1", "date": "2024-03-05"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "WORKER_UNAVAILABLE", body.Error.Code)

	status, _ = s.do(t, http.MethodDelete, "/api/v1/schedule/a1/t1/2024-03-04", "a1", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = s.do(t, http.MethodDelete, "/api/v1/schedule/a1/t1/2024-03-04", "a1", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "ASSIGNMENT_NOT_FOUND", body.Error.Code)

	status, body = s.do(t, http.MethodGet, "/api/v1/workers/a1/schedule?week=2024-03-04", "a1", nil)
	require.Equal(t, http.StatusOK, status)
	var schedule []json.RawMessage
	require.NoError(t, json.Unmarshal(body.Data, &schedule))
	assert.Len(t, schedule, 1)

	status, body = s.do(t, http.MethodGet, "/api/v1/workers/a1/workload?week=2024-03-04", "a1", nil)
	require.Equal(t, http.StatusOK, status)
	var workload struct {
		PlannedMinutes int    `json:"planned_minutes"`
		Level          string `json:"level"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &workload))
	assert.Equal(t, 60, workload.PlannedMinutes)
	assert.Equal(t, "low", workload.Level)

	status, body = s.do(t, http.MethodGet, "/api/v1/workers/a1/efficiency?category=network", "a1", nil)
	require.Equal(t, http.StatusOK, status)
	var eff struct {
		EstimatedMinutes int `json:"estimated_minutes"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &eff))
	assert.Equal(t, 60, eff.EstimatedMinutes)

	status, body = s.do(t, http.MethodGet, "/api/v1/workers/a1/efficiency?category=ghost", "a1", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestSettingsRequireManager(t *testing.T) {
	s := newServer(t)

	status, _ := s.do(t, http.MethodGet, "/api/v1/settings/auto-assign", "a1", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := s.do(t, http.MethodPut, "/api/v1/settings/auto-assign", "m1", map[string]any{"enabled": true, "max_tickets_per_worker": 4})
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPost, "/api/v1/settings/auto-assign/run", "m1", map[string]any{"week_start": "2024-03-04"})
	require.Equal(t, http.StatusOK, status)
	var run struct {
		Skipped bool `json:"skipped"`
		Total   int  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &run))
	assert.False(t, run.Skipped)
	assert.Equal(t, 2, run.Total)

	status, body = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	var snap struct {
		AutoAssignRuns int `json:"auto_assign_runs"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &snap))
	assert.Equal(t, 2, snap.AutoAssignRuns)
}

func TestRejectedRequestLogsWorkerAndCode(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := newLoggedServer(t, zap.New(core))

	status, body := s.do(t, http.MethodPost, "/api/v1/tickets/t1/work/stop", "a1", nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, body.Error)
	assert.Equal(t, "WORK_NOT_FOUND", body.Error.Code)

	entries := logs.FilterMessage("request rejected").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "a1", fields["worker_id"])
	assert.Equal(t, "agent", fields["role"])
	assert.Equal(t, "t1", fields["ticket_id"])
	assert.Equal(t, "WORK_NOT_FOUND", fields["code"])
}
