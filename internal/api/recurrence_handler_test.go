package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petaltask/recur/internal/domain/pattern"
	"github.com/petaltask/recur/internal/health"
	"github.com/petaltask/recur/internal/service"
	"github.com/petaltask/recur/internal/store"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// nopEnqueuer satisfies service.Enqueuer; handler tests never drain a queue.
type nopEnqueuer struct{}

func (nopEnqueuer) Enqueue(definitionID uuid.UUID, forceRegenerate bool) {}

func newTestServer(t *testing.T) (http.Handler, *store.InstanceStore) {
	t.Helper()

	logger := setupTestLogger()
	storage := store.NewMemoryStorage()
	instances := store.NewInstanceStore(logger)
	recorder := health.NewRecorder(logger)

	svc, err := service.NewRecurrenceService(
		storage, instances, nopEnqueuer{}, recorder, pattern.DefaultLimits(), 5, logger)
	require.NoError(t, err)
	svc.SetClock(func() time.Time {
		return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	})

	return NewRouter(NewRecurrenceHandler(svc, logger)), instances
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateDefinitionEndpoint(t *testing.T) {
	handler, instances := newTestServer(t)
	defID := uuid.New()

	rec := postJSON(t, handler, "/api/definitions", CreateDefinitionRequest{
		ID:    defID.String(),
		Title: "weekly review",
		Spec: SpecPayload{
			Pattern:   "weekly",
			Interval:  1,
			StartDate: "2024-01-01",
		},
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	// The origin instance is seeded synchronously.
	got := instances.List(defID)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].OccurrenceNumber)
}

func TestCreateDefinitionSetsTimestamps(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := postJSON(t, handler, "/api/definitions", CreateDefinitionRequest{
		ID:    uuid.NewString(),
		Title: "monthly report",
		Spec: SpecPayload{
			Pattern:   "monthly",
			Interval:  1,
			StartDate: "2024-01-01",
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Definitions created over HTTP carry real timestamps, not zero values.
	var created struct {
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
}

func TestCreateDefinitionRejectsInvalidSpec(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := postJSON(t, handler, "/api/definitions", CreateDefinitionRequest{
		ID:    uuid.New().String(),
		Title: "broken",
		Spec: SpecPayload{
			Pattern:   "weekly",
			Interval:  0,
			StartDate: "2024-01-01",
		},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "interval", resp.Field)
}

func TestCreateDefinitionRejectsBadID(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := postJSON(t, handler, "/api/definitions", CreateDefinitionRequest{
		ID:    "not-a-uuid",
		Title: "broken",
		Spec: SpecPayload{
			Pattern:   "daily",
			Interval:  1,
			StartDate: "2024-01-01",
		},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "id", resp.Field)
}

func TestCreateDefinitionRejectsBadDate(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := postJSON(t, handler, "/api/definitions", CreateDefinitionRequest{
		ID:    uuid.New().String(),
		Title: "broken",
		Spec: SpecPayload{
			Pattern:   "daily",
			Interval:  1,
			StartDate: "01/02/2024",
		},
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "start_date", resp.Field)
}

func TestPreviewEndpoint(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := postJSON(t, handler, "/api/preview", PreviewRequest{
		Spec: SpecPayload{
			Pattern:   "weekly",
			Interval:  1,
			StartDate: "2024-01-01",
		},
		Count: 3,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"2024-01-08", "2024-01-15", "2024-01-22"}, resp.Dates)
}

func TestCompleteUnknownInstance(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := postJSON(t, handler, "/api/instances/"+uuid.NewString()+"/complete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListInstancesEndpoint(t *testing.T) {
	handler, instances := newTestServer(t)
	defID := uuid.New()

	rec := postJSON(t, handler, "/api/definitions", CreateDefinitionRequest{
		ID:    defID.String(),
		Title: "daily walk",
		Spec: SpecPayload{
			Pattern:   "daily",
			Interval:  1,
			StartDate: "2024-01-01",
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 1, instances.Count(defID))

	req := httptest.NewRequest(http.MethodGet, "/api/definitions/"+defID.String()+"/instances", nil)
	listRec := httptest.NewRecorder()
	handler.ServeHTTP(listRec, req)

	require.Equal(t, http.StatusOK, listRec.Code)

	var resp []InstanceResponse
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "2024-01-01", resp[0].OccurrenceDate)
	assert.False(t, resp[0].IsGenerated)
}

func TestHealthzEndpoint(t *testing.T) {
	handler, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
