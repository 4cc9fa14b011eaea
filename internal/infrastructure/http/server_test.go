package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritmoapp/ritmo/internal/application/planner"
	"github.com/ritmoapp/ritmo/internal/config"
	httpapi "github.com/ritmoapp/ritmo/internal/infrastructure/http"
	"github.com/ritmoapp/ritmo/internal/infrastructure/http/handler"
	"github.com/ritmoapp/ritmo/internal/infrastructure/persistence/sqlite"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	store, err := sqlite.NewStoreWithConfig(context.Background(), sqlite.DBConfig{
		Path:        ":memory:",
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := planner.NewService(store)
	server := httpapi.NewAPIServer(handler.NewPlannerHandler(svc), config.HTTPConfig{})
	return server.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(out))
}

type taskBody struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Importance int    `json:"importance"`
	IsActive   bool   `json:"is_active"`
	Recurrence *struct {
		ID             string `json:"id"`
		Interval       *int   `json:"interval"`
		MaxOccurrences *int   `json:"max_occurrences"`
	} `json:"recurrence"`
}

type occurrenceBody struct {
	ID          string     `json:"id"`
	TaskID      string     `json:"task_id"`
	Status      string     `json:"status"`
	Urgency     float64    `json:"urgency"`
	StartDate   time.Time  `json:"start_date"`
	TargetDate  *time.Time `json:"target_date"`
	LimitDate   *time.Time `json:"limit_date"`
	CompletedAt *time.Time `json:"completed_at"`

	TimeConsumed float64 `json:"time_consumed"`
}

type occurrenceListBody struct {
	Occurrences []occurrenceBody `json:"occurrences"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func createRecurringTask(t *testing.T, h http.Handler) taskBody {
	t.Helper()

	w := doJSON(t, h, http.MethodPost, "/v1/tasks", map[string]any{
		"name":       "weekly review",
		"importance": 7,
		"recurrence": map[string]any{
			"interval":        7,
			"max_occurrences": 1,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var task taskBody
	decodeBody(t, w, &task)
	return task
}

func listOccurrences(t *testing.T, h http.Handler, taskID string) []occurrenceBody {
	t.Helper()

	w := doJSON(t, h, http.MethodGet, "/v1/tasks/"+taskID+"/occurrences", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list occurrenceListBody
	decodeBody(t, w, &list)
	return list.Occurrences
}

func TestServer_Health(t *testing.T) {
	h := newTestServer(t)

	w := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServer_CreateTaskSchedulesInitialOccurrence(t *testing.T) {
	h := newTestServer(t)

	task := createRecurringTask(t, h)
	assert.NotEmpty(t, task.ID)
	assert.True(t, task.IsActive)
	require.NotNil(t, task.Recurrence)
	require.NotNil(t, task.Recurrence.Interval)
	assert.Equal(t, 7, *task.Recurrence.Interval)

	occurrences := listOccurrences(t, h, task.ID)
	require.Len(t, occurrences, 1)
	assert.Equal(t, "PENDING", occurrences[0].Status)
	assert.NotNil(t, occurrences[0].TargetDate)
	assert.NotNil(t, occurrences[0].LimitDate)
	assert.Greater(t, occurrences[0].Urgency, 0.0)
}

func TestServer_CreateTaskValidation(t *testing.T) {
	h := newTestServer(t)

	w := doJSON(t, h, http.MethodPost, "/v1/tasks", map[string]any{
		"name":       "bad",
		"importance": 11,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body errorBody
	decodeBody(t, w, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)

	w2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/tasks", strings.NewReader("{not json"))
	h.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestServer_ResolveOccurrenceFlow(t *testing.T) {
	h := newTestServer(t)

	task := createRecurringTask(t, h)
	occurrences := listOccurrences(t, h, task.ID)
	require.Len(t, occurrences, 1)

	w := doJSON(t, h, http.MethodPost, "/v1/occurrences/"+occurrences[0].ID+"/resolve",
		map[string]any{"outcome": "COMPLETED"})
	require.Equal(t, http.StatusOK, w.Code)

	var resolved occurrenceBody
	decodeBody(t, w, &resolved)
	assert.Equal(t, "COMPLETED", resolved.Status)
	require.NotNil(t, resolved.CompletedAt)

	// The cap is one per period, so the chained occurrence starts next period.
	occurrences = listOccurrences(t, h, task.ID)
	require.Len(t, occurrences, 2)

	// Resolving a terminal occurrence conflicts.
	w = doJSON(t, h, http.MethodPost, "/v1/occurrences/"+resolved.ID+"/resolve",
		map[string]any{"outcome": "SKIPPED"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestServer_ResolveOccurrenceInvalidOutcome(t *testing.T) {
	h := newTestServer(t)

	task := createRecurringTask(t, h)
	occurrences := listOccurrences(t, h, task.ID)

	w := doJSON(t, h, http.MethodPost, "/v1/occurrences/"+occurrences[0].ID+"/resolve",
		map[string]any{"outcome": "DONE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body errorBody
	decodeBody(t, w, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
}

func TestServer_NextOccurrenceNoOpWhileOneIsOpen(t *testing.T) {
	h := newTestServer(t)

	task := createRecurringTask(t, h)

	w := doJSON(t, h, http.MethodPost, "/v1/tasks/"+task.ID+"/occurrences/next", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Created    bool            `json:"created"`
		Occurrence *occurrenceBody `json:"occurrence"`
	}
	decodeBody(t, w, &body)
	assert.False(t, body.Created)
	assert.Nil(t, body.Occurrence)
}

func TestServer_NextOccurrenceRequiresRecurrence(t *testing.T) {
	h := newTestServer(t)

	w := doJSON(t, h, http.MethodPost, "/v1/tasks", map[string]any{
		"name":       "one-off errand",
		"importance": 3,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var task taskBody
	decodeBody(t, w, &task)

	w = doJSON(t, h, http.MethodPost, "/v1/tasks/"+task.ID+"/occurrences/next", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body errorBody
	decodeBody(t, w, &body)
	assert.Equal(t, "INVALID_REQUEST", body.Error.Code)
}

func TestServer_TaskNotFound(t *testing.T) {
	h := newTestServer(t)

	w := doJSON(t, h, http.MethodGet, "/v1/tasks/0192aa1e-0000-7000-8000-000000000000/occurrences", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body errorBody
	decodeBody(t, w, &body)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestServer_BacklogEndpoints(t *testing.T) {
	h := newTestServer(t)

	task := createRecurringTask(t, h)

	w := doJSON(t, h, http.MethodGet, "/v1/tasks/"+task.ID+"/backlog", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report struct {
		TaskID                string `json:"task_id"`
		PendingCount          int    `json:"pending_count"`
		EstimatedMissingCount int    `json:"estimated_missing_count"`
		HasSevereBacklog      bool   `json:"has_severe_backlog"`
	}
	decodeBody(t, w, &report)
	assert.Equal(t, task.ID, report.TaskID)
	assert.Equal(t, 1, report.PendingCount)
	assert.Equal(t, 0, report.EstimatedMissingCount)
	assert.False(t, report.HasSevereBacklog)

	w = doJSON(t, h, http.MethodPost, "/v1/tasks/"+task.ID+"/backlog/resolve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resolution struct {
		CreatedCount int `json:"created_count"`
		SkippedCount int `json:"skipped_count"`
	}
	decodeBody(t, w, &resolution)
	assert.Zero(t, resolution.CreatedCount)
	assert.Zero(t, resolution.SkippedCount)
}

func TestServer_EventLifecycleSyncsTimeConsumed(t *testing.T) {
	h := newTestServer(t)

	task := createRecurringTask(t, h)
	occurrences := listOccurrences(t, h, task.ID)
	require.Len(t, occurrences, 1)
	occID := occurrences[0].ID

	start := time.Now().UTC()
	w := doJSON(t, h, http.MethodPost, "/v1/events", map[string]any{
		"occurrence_id":  occID,
		"start_time":     start,
		"end_time":       start.Add(2 * time.Hour),
		"dedicated_time": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var event struct {
		ID          string `json:"id"`
		IsCompleted bool   `json:"is_completed"`
	}
	decodeBody(t, w, &event)
	assert.False(t, event.IsCompleted)

	w = doJSON(t, h, http.MethodPost, "/v1/events/"+event.ID+"/complete", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	occurrences = listOccurrences(t, h, task.ID)
	assert.Equal(t, 2.0, occurrences[0].TimeConsumed)

	w = doJSON(t, h, http.MethodDelete, "/v1/events/"+event.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	occurrences = listOccurrences(t, h, task.ID)
	assert.Equal(t, 0.0, occurrences[0].TimeConsumed)

	w = doJSON(t, h, http.MethodDelete, "/v1/events/"+event.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_EventForMissingOccurrence(t *testing.T) {
	h := newTestServer(t)

	occID := "0192aa1e-0000-7000-8000-000000000001"
	start := time.Now().UTC()
	w := doJSON(t, h, http.MethodPost, "/v1/events", map[string]any{
		"occurrence_id":  occID,
		"start_time":     start,
		"end_time":       start.Add(time.Hour),
		"dedicated_time": 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_PayloadTooLarge(t *testing.T) {
	store, err := sqlite.NewStoreWithConfig(context.Background(), sqlite.DBConfig{
		Path:        ":memory:",
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := planner.NewService(store)
	server := httpapi.NewAPIServer(handler.NewPlannerHandler(svc), config.HTTPConfig{
		MaxBodyBytes: 64,
	})

	body := fmt.Sprintf(`{"name":%q,"importance":5}`, strings.Repeat("x", 256))
	req := httptest.NewRequest(http.MethodPost, "/v1/tasks", strings.NewReader(body))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var resp errorBody
	decodeBody(t, w, &resp)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", resp.Error.Code)
}
