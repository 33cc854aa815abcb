package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availabilityCommands "github.com/felixgeelhaar/groomly/internal/availability/application/commands"
	availabilityQueries "github.com/felixgeelhaar/groomly/internal/availability/application/queries"
	bookingCommands "github.com/felixgeelhaar/groomly/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/groomly/internal/booking/application/queries"
	bookingDomain "github.com/felixgeelhaar/groomly/internal/booking/domain"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/groomly/pkg/config"
	"github.com/felixgeelhaar/groomly/pkg/observability"
)

// monday is 2025-06-02.
var monday = time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

func setupLocalModeContainer(t *testing.T) (*Container, *observability.InMemoryMetrics) {
	t.Helper()

	cfg := config.Default()
	cfg.AppEnv = "test"
	cfg.DatabaseDriver = config.DriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "test.db")

	metrics := observability.NewInMemoryMetrics()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := New(context.Background(), cfg, logger, WithMetrics(metrics))
	require.NoError(t, err)
	t.Cleanup(container.Close)
	return container, metrics
}

func openMondays(t *testing.T, c *Container, shopID uuid.UUID) {
	t.Helper()
	_, err := c.SetShopHoursHandler.Handle(context.Background(), availabilityCommands.SetShopHoursCommand{
		ShopID:   shopID,
		Timezone: "UTC",
		Windows:  []availabilityCommands.WindowInput{{Day: time.Monday, Start: "09:00", End: "17:00"}},
	})
	require.NoError(t, err)
}

func bookAt(c *Container, shopID uuid.UUID, start time.Time, d time.Duration) (*bookingCommands.BookAppointmentResult, error) {
	return c.BookAppointmentHandler.Handle(context.Background(), bookingCommands.BookAppointmentCommand{
		ShopID:  shopID,
		PetID:   uuid.New(),
		Service: "bath",
		Start:   start,
		End:     start.Add(d),
	})
}

// TestLocalModeContainer tests that a local mode container can be created and used.
func TestLocalModeContainer(t *testing.T) {
	container, _ := setupLocalModeContainer(t)

	assert.Equal(t, database.DriverSQLite, container.DBDriver)
	assert.NotNil(t, container.DBConn)
	assert.Nil(t, container.DB) // PostgreSQL pool should be nil
	assert.Nil(t, container.RedisClient)

	assert.NotNil(t, container.ShopHoursRepo)
	assert.NotNil(t, container.AppointmentRepo)
	assert.NotNil(t, container.OutboxRepo)
	assert.NotNil(t, container.BookAppointmentHandler)
	assert.NotNil(t, container.AvailabilityHandler)
	assert.Equal(t, bookingDomain.VocabularyExtended, container.Vocabulary.Name())

	health := container.Health.Check(context.Background())
	assert.Equal(t, observability.HealthStatusHealthy, health.Status)
}

func TestLocalMode_BookingWorkflow(t *testing.T) {
	container, metrics := setupLocalModeContainer(t)
	ctx := context.Background()
	shopID := uuid.New()
	openMondays(t, container, shopID)

	ten := monday.Add(10 * time.Hour)
	first, err := bookAt(container, shopID, ten, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusScheduled, first.Status)

	_, err = bookAt(container, shopID, ten.Add(30*time.Minute), time.Hour)
	assert.ErrorIs(t, err, bookingDomain.ErrSlotUnavailable)

	_, err = bookAt(container, shopID, ten.Add(time.Hour), time.Hour)
	assert.NoError(t, err, "touching bookings do not conflict")

	_, err = bookAt(container, shopID, monday.Add(18*time.Hour), time.Hour)
	assert.ErrorIs(t, err, bookingDomain.ErrOutsideOpeningHours)

	transition, err := container.TransitionAppointmentHandler.Handle(ctx, bookingCommands.TransitionAppointmentCommand{
		AppointmentID: first.AppointmentID,
		Action:        bookingCommands.ActionCancel,
		Reason:        "owner sick",
	})
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusCancelled, transition.To)

	// The cancelled slot is free again.
	check, err := container.CheckConflictsHandler.Handle(ctx, bookingQueries.CheckConflictsQuery{
		ShopID: shopID,
		Start:  ten.Add(30 * time.Minute),
		End:    ten.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, check.Available)

	list, err := container.AppointmentsHandler.List(ctx, bookingQueries.ListAppointmentsQuery{
		ShopID: shopID,
		From:   monday,
		To:     monday.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, string(bookingDomain.StatusCancelled), list[0].Status)

	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricBookingConflicts))
}

func TestLocalMode_FlushDrainsOutbox(t *testing.T) {
	container, _ := setupLocalModeContainer(t)
	ctx := context.Background()
	shopID := uuid.New()
	openMondays(t, container, shopID)
	_, err := bookAt(container, shopID, monday.Add(9*time.Hour), 45*time.Minute)
	require.NoError(t, err)

	pending, err := container.OutboxRepo.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)

	container.Flush(ctx)

	pending, err = container.OutboxRepo.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestLocalMode_NextOpening(t *testing.T) {
	container, _ := setupLocalModeContainer(t)
	shopID := uuid.New()
	openMondays(t, container, shopID)

	res, err := container.AvailabilityHandler.NextOpening(context.Background(), availabilityQueries.NextOpeningQuery{
		ShopID: shopID,
		From:   monday.Add(12 * time.Hour),
	})
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, monday.AddDate(0, 0, 7).Add(9*time.Hour), res.At.UTC())
	assert.Equal(t, 30, res.HorizonDays)
}

func TestLocalMode_ConfiguredVocabularyAndPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.DatabaseDriver = config.DriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	cfg.StatusVocabulary = "appointment"
	cfg.ConflictPolicy = "all"

	container, err := NewLocalContainer(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer container.Close()

	assert.Equal(t, bookingDomain.VocabularyAppointment, container.Vocabulary.Name())
	assert.True(t, container.Detector.Policy().IsActive(bookingDomain.StatusCompleted))
}

func TestNew_UnsupportedDriver(t *testing.T) {
	cfg := config.Default()
	cfg.DatabaseDriver = "mysql"

	_, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, err, database.ErrUnsupportedDriver)
}

func TestLocalMode_RebookedNoShowCannotTakeBookedSlot(t *testing.T) {
	container, _ := setupLocalModeContainer(t)
	ctx := context.Background()
	shopID := uuid.New()
	openMondays(t, container, shopID)
	ten := monday.Add(10 * time.Hour)

	missed, err := bookAt(container, shopID, ten, time.Hour)
	require.NoError(t, err)
	_, err = container.TransitionAppointmentHandler.Handle(ctx, bookingCommands.TransitionAppointmentCommand{
		AppointmentID: missed.AppointmentID,
		Action:        bookingCommands.ActionNoShow,
	})
	require.NoError(t, err)

	// The no-show frees the slot, so another pet takes it.
	_, err = bookAt(container, shopID, ten, time.Hour)
	require.NoError(t, err)

	_, err = container.TransitionAppointmentHandler.Handle(ctx, bookingCommands.TransitionAppointmentCommand{
		AppointmentID: missed.AppointmentID,
		Action:        bookingCommands.ActionRebook,
	})
	assert.ErrorIs(t, err, bookingDomain.ErrSlotUnavailable)

	scheduled, err := container.AppointmentsHandler.List(ctx, bookingQueries.ListAppointmentsQuery{
		ShopID: shopID,
		From:   ten,
		To:     ten.Add(time.Hour),
		Status: bookingDomain.StatusScheduled,
	})
	require.NoError(t, err)
	assert.Len(t, scheduled, 1)

	got, err := container.AppointmentsHandler.Get(ctx, bookingQueries.GetAppointmentQuery{AppointmentID: missed.AppointmentID})
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusNoShow), got.Status)
}

func TestLocalMode_VocabularySwitchKeepsStoredBookingsActive(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()
	cfg.DatabaseDriver = config.DriverSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	shopID := uuid.New()
	ten := monday.Add(10 * time.Hour)

	extended, err := NewLocalContainer(ctx, cfg, logger)
	require.NoError(t, err)
	openMondays(t, extended, shopID)
	started, err := bookAt(extended, shopID, ten, time.Hour)
	require.NoError(t, err)
	_, err = extended.TransitionAppointmentHandler.Handle(ctx, bookingCommands.TransitionAppointmentCommand{
		AppointmentID: started.AppointmentID,
		Action:        bookingCommands.ActionStart,
	})
	require.NoError(t, err)
	extended.Close()

	cfg.StatusVocabulary = "appointment"
	appointment, err := NewLocalContainer(ctx, cfg, logger)
	require.NoError(t, err)
	defer appointment.Close()

	_, err = bookAt(appointment, shopID, ten.Add(15*time.Minute), 30*time.Minute)
	assert.ErrorIs(t, err, bookingDomain.ErrSlotUnavailable)

	check, err := appointment.CheckConflictsHandler.Handle(ctx, bookingQueries.CheckConflictsQuery{
		ShopID: shopID,
		Start:  ten,
		End:    ten.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.False(t, check.Available)
}
