package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalApp "github.com/felixgeelhaar/groomly/internal/app"
	"github.com/felixgeelhaar/groomly/pkg/config"
)

func setupServer(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Default()
	cfg.AppEnv = "test"
	cfg.DatabaseDriver = config.DriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "api.db")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	container, err := internalApp.NewLocalContainer(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	srv := NewServer(DefaultServerConfig(), Handlers{
		SetShopHours:   container.SetShopHoursHandler,
		Closures:       container.ClosureHandler,
		Availability:   container.AvailabilityHandler,
		Book:           container.BookAppointmentHandler,
		Transition:     container.TransitionAppointmentHandler,
		Reschedule:     container.RescheduleAppointmentHandler,
		Appointments:   container.AppointmentsHandler,
		CheckConflicts: container.CheckConflictsHandler,
		Flush:          container.Flush,
	}, logger)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func setMondayHours(t *testing.T, h http.Handler, shop string) {
	t.Helper()
	rec, body := do(t, h, http.MethodPut, "/api/v1/shops/"+shop+"/hours", SetHoursRequest{
		Timezone: "UTC",
		Windows:  []WindowRequest{{Day: 1, Start: "09:00", End: "17:00"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, body)
}

func book(t *testing.T, h http.Handler, shop, start, end string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return do(t, h, http.MethodPost, "/api/v1/appointments", map[string]any{
		"shop_id": shop,
		"pet_id":  uuid.NewString(),
		"service": "full groom",
		"start":   start,
		"end":     end,
	})
}

func TestHealth(t *testing.T) {
	h := setupServer(t)
	rec, body := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestHoursEndpoints(t *testing.T) {
	h := setupServer(t)
	shop := uuid.NewString()
	setMondayHours(t, h, shop)

	rec, body := do(t, h, http.MethodGet, "/api/v1/shops/"+shop+"/hours", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	windows := body["windows"].([]any)
	require.Len(t, windows, 1)
	assert.Equal(t, "Monday", windows[0].(map[string]any)["day"])

	rec, body = do(t, h, http.MethodGet, "/api/v1/shops/"+shop+"/open?at=2025-06-02T10:00:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["open"])

	rec, _ = do(t, h, http.MethodPost, "/api/v1/shops/"+shop+"/closures", ClosureRequest{Date: "2025-06-02", Reason: "holiday"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, h, http.MethodGet, "/api/v1/shops/"+shop+"/hours", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{map[string]any{"date": "2025-06-02", "reason": "holiday"}}, body["closures"])

	rec, body = do(t, h, http.MethodGet, "/api/v1/shops/"+shop+"/next-opening?from=2025-06-01T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["found"])
	assert.Equal(t, "2025-06-09T09:00:00Z", body["at"])

	rec, _ = do(t, h, http.MethodDelete, "/api/v1/shops/"+shop+"/closures/2025-06-02", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, body = do(t, h, http.MethodGet, "/api/v1/shops/"+shop+"/next-opening?from=2025-06-01T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-06-02T09:00:00Z", body["at"])
}

func TestHoursValidation(t *testing.T) {
	h := setupServer(t)
	shop := uuid.NewString()

	rec, body := do(t, h, http.MethodPut, "/api/v1/shops/"+shop+"/hours", SetHoursRequest{
		Timezone: "UTC",
		Windows: []WindowRequest{
			{Day: 1, Start: "09:00", End: "12:00"},
			{Day: 1, Start: "11:00", End: "15:00"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", body["code"])

	rec, _ = do(t, h, http.MethodGet, "/api/v1/shops/not-a-uuid/hours", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/shops/"+uuid.NewString()+"/hours", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingEndpoints(t *testing.T) {
	h := setupServer(t)
	shop := uuid.NewString()
	setMondayHours(t, h, shop)

	rec, first := book(t, h, shop, "2025-06-02T10:00:00Z", "2025-06-02T11:00:00Z")
	require.Equal(t, http.StatusCreated, rec.Code, first)
	assert.Equal(t, "SCHEDULED", first["status"])
	firstID := first["id"].(string)

	rec, body := book(t, h, shop, "2025-06-02T10:30:00Z", "2025-06-02T11:30:00Z")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_unavailable", body["code"])
	conflicts := body["conflicts"].([]any)
	require.Len(t, conflicts, 1)
	assert.Equal(t, firstID, conflicts[0].(map[string]any)["appointment_id"])

	// Touching the end of the first booking is allowed.
	rec, _ = book(t, h, shop, "2025-06-02T11:00:00Z", "2025-06-02T12:00:00Z")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body = book(t, h, shop, "2025-06-02T16:30:00Z", "2025-06-02T17:30:00Z")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "outside_opening_hours", body["code"])

	rec, body = do(t, h, http.MethodPost, "/api/v1/appointments/"+firstID+"/transitions", TransitionRequest{Action: "confirm"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CONFIRMED", body["status"])

	rec, body = do(t, h, http.MethodPost, "/api/v1/appointments/"+firstID+"/transitions", TransitionRequest{Action: "rebook"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", body["code"])

	rec, _ = do(t, h, http.MethodPost, "/api/v1/appointments/"+firstID+"/transitions", TransitionRequest{Action: "teleport"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, h, http.MethodGet,
		"/api/v1/shops/"+shop+"/conflicts?start=2025-06-02T10:30:00Z&end=2025-06-02T11:30:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["available"])
	assert.Len(t, body["conflicts"], 2)

	rec, body = do(t, h, http.MethodPost, "/api/v1/appointments/"+firstID+"/reschedule", RescheduleRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, body)

	rec, body = do(t, h, http.MethodPost, "/api/v1/appointments/"+firstID+"/transitions",
		TransitionRequest{Action: "cancel", Reason: "vet visit"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "vet visit", body["cancellation_reason"])

	rec, body = do(t, h, http.MethodGet,
		"/api/v1/shops/"+shop+"/appointments?from=2025-06-02T00:00:00Z&to=2025-06-03T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["appointments"], 2)

	rec, body = do(t, h, http.MethodGet,
		"/api/v1/shops/"+shop+"/appointments?from=2025-06-02T00:00:00Z&to=2025-06-03T00:00:00Z&status=cancelled", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["appointments"], 1)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/appointments/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRescheduleEndpoint(t *testing.T) {
	h := setupServer(t)
	shop := uuid.NewString()

	rec, blocker := book(t, h, shop, "2025-06-02T09:00:00Z", "2025-06-02T10:00:00Z")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, moving := book(t, h, shop, "2025-06-02T13:00:00Z", "2025-06-02T14:00:00Z")
	require.Equal(t, http.StatusCreated, rec.Code)
	movingID := moving["id"].(string)

	rec, body := do(t, h, http.MethodPost, "/api/v1/appointments/"+movingID+"/reschedule", map[string]any{
		"start": "2025-06-02T09:30:00Z",
		"end":   "2025-06-02T10:30:00Z",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, blocker["id"], body["conflicts"].([]any)[0].(map[string]any)["appointment_id"])

	rec, body = do(t, h, http.MethodPost, "/api/v1/appointments/"+movingID+"/reschedule", map[string]any{
		"start": "2025-06-02T10:00:00Z",
		"end":   "2025-06-02T11:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-06-02T10:00:00Z", body["start"])
}

func TestUnknownFieldsRejected(t *testing.T) {
	h := setupServer(t)
	rec, _ := do(t, h, http.MethodPost, "/api/v1/appointments", map[string]any{"surprise": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRebookIntoTakenSlot(t *testing.T) {
	h := setupServer(t)
	shop := uuid.NewString()
	setMondayHours(t, h, shop)

	rec, missed := book(t, h, shop, "2025-06-02T10:00:00Z", "2025-06-02T11:00:00Z")
	require.Equal(t, http.StatusCreated, rec.Code)
	missedID := missed["id"].(string)
	rec, _ = do(t, h, http.MethodPost, "/api/v1/appointments/"+missedID+"/transitions", TransitionRequest{Action: "no-show"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, taker := book(t, h, shop, "2025-06-02T10:00:00Z", "2025-06-02T11:00:00Z")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := do(t, h, http.MethodPost, "/api/v1/appointments/"+missedID+"/transitions", TransitionRequest{Action: "rebook"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_unavailable", body["code"])
	assert.Equal(t, taker["id"], body["conflicts"].([]any)[0].(map[string]any)["appointment_id"])

	rec, body = do(t, h, http.MethodGet, "/api/v1/appointments/"+missedID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NO_SHOW", body["status"])
}
