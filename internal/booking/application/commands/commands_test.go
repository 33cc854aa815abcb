package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/groomly/internal/booking/domain"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/groomly/pkg/observability"
)

type mockAppointmentRepo struct {
	mock.Mock
}

func (m *mockAppointmentRepo) Save(ctx context.Context, appt *domain.Appointment) error {
	return m.Called(ctx, appt).Error(0)
}

func (m *mockAppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

func (m *mockAppointmentRepo) FindActiveOverlapping(ctx context.Context, shopID uuid.UUID, interval domain.TimeRange, active []domain.Status, excludeID *uuid.UUID) ([]domain.BookedInterval, error) {
	args := m.Called(ctx, shopID, interval, active, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BookedInterval), args.Error(1)
}

func (m *mockAppointmentRepo) ListByShopAndRange(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]*domain.Appointment, error) {
	args := m.Called(ctx, shopID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Appointment), args.Error(1)
}

type fakeUnitOfWork struct {
	begun, committed, rolledBack int
	commitErrs                   []error
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	u.begun++
	return ctx, nil
}

func (u *fakeUnitOfWork) Commit(context.Context) error {
	u.committed++
	if len(u.commitErrs) > 0 {
		err := u.commitErrs[0]
		u.commitErrs = u.commitErrs[1:]
		return err
	}
	return nil
}

func (u *fakeUnitOfWork) Rollback(context.Context) error {
	u.rolledBack++
	return nil
}

type stubOpeningHours struct {
	open bool
}

func (s stubOpeningHours) CoversRange(context.Context, uuid.UUID, time.Time, time.Time) (bool, error) {
	return s.open, nil
}

var slotStart = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	repo    *mockAppointmentRepo
	outbox  *outbox.InMemoryRepository
	uow     *fakeUnitOfWork
	metrics *observability.InMemoryMetrics
	deps    Dependencies
}

func newFixture() *fixture {
	f := &fixture{
		repo:    new(mockAppointmentRepo),
		outbox:  outbox.NewInMemoryRepository(),
		uow:     &fakeUnitOfWork{},
		metrics: observability.NewInMemoryMetrics(),
	}
	f.deps = Dependencies{
		Appointments: f.repo,
		Outbox:       f.outbox,
		UnitOfWork:   f.uow,
		Metrics:      f.metrics,
	}
	return f
}

func bookCommand(shopID uuid.UUID, start time.Time) BookAppointmentCommand {
	return BookAppointmentCommand{
		ShopID:     shopID,
		PetID:      uuid.New(),
		CustomerID: uuid.New(),
		Service:    "bath",
		Start:      start,
		End:        start.Add(time.Hour),
	}
}

func TestBookAppointmentHandler_BooksFreeSlot(t *testing.T) {
	f := newFixture()
	shopID := uuid.New()
	f.repo.On("FindActiveOverlapping", mock.Anything, shopID, mock.Anything,
		[]domain.Status{domain.StatusScheduled, domain.StatusConfirmed, domain.StatusInProgress}, (*uuid.UUID)(nil),
	).Return([]domain.BookedInterval{}, nil)
	f.repo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Appointment")).Return(nil)

	result, err := NewBookAppointmentHandler(f.deps).Handle(context.Background(), bookCommand(shopID, slotStart))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, result.Status)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 1, f.uow.committed)
	require.Len(t, f.outbox.Messages(), 1)
	assert.Equal(t, domain.RoutingKeyAppointmentBooked, f.outbox.Messages()[0].RoutingKey)
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricAppointmentsBooked, observability.T("service", "bath")))
	f.repo.AssertExpectations(t)
}

func TestBookAppointmentHandler_ConflictRollsBack(t *testing.T) {
	f := newFixture()
	shopID := uuid.New()
	existing := domain.BookedInterval{AppointmentID: uuid.New(), Status: domain.StatusConfirmed}
	existing.Range, _ = domain.NewTimeRange(slotStart, slotStart.Add(time.Hour))
	f.repo.On("FindActiveOverlapping", mock.Anything, shopID, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.BookedInterval{existing}, nil)

	_, err := NewBookAppointmentHandler(f.deps).Handle(context.Background(), bookCommand(shopID, slotStart.Add(30*time.Minute)))

	var conflict *domain.SlotConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, existing.AppointmentID, conflict.Conflicts[0].AppointmentID)
	assert.Equal(t, 1, f.uow.rolledBack)
	assert.Zero(t, f.uow.committed)
	assert.Empty(t, f.outbox.Messages())
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricBookingConflicts))
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestBookAppointmentHandler_TouchingSlotIsFree(t *testing.T) {
	f := newFixture()
	shopID := uuid.New()
	existing := domain.BookedInterval{AppointmentID: uuid.New(), Status: domain.StatusConfirmed}
	existing.Range, _ = domain.NewTimeRange(slotStart, slotStart.Add(time.Hour))
	f.repo.On("FindActiveOverlapping", mock.Anything, shopID, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.BookedInterval{existing}, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	_, err := NewBookAppointmentHandler(f.deps).Handle(context.Background(), bookCommand(shopID, slotStart.Add(time.Hour)))
	assert.NoError(t, err)
}

func TestBookAppointmentHandler_RetriesSerializationFailure(t *testing.T) {
	f := newFixture()
	f.uow.commitErrs = []error{&pgconn.PgError{Code: "40001"}}
	f.repo.On("FindActiveOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.BookedInterval{}, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	result, err := NewBookAppointmentHandler(f.deps).Handle(context.Background(), bookCommand(uuid.New(), slotStart))

	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 2, f.uow.begun)
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricBookingRetries))
}

func TestBookAppointmentHandler_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture()
	serialization := &pgconn.PgError{Code: "40001"}
	f.uow.commitErrs = []error{serialization, serialization, serialization}
	f.repo.On("FindActiveOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.BookedInterval{}, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	_, err := NewBookAppointmentHandler(f.deps).Handle(context.Background(), bookCommand(uuid.New(), slotStart))

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, DefaultMaxAttempts, f.uow.begun)
}

func TestBookAppointmentHandler_ExclusionViolationIsSlotConflict(t *testing.T) {
	f := newFixture()
	f.repo.On("FindActiveOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.BookedInterval{}, nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(&pgconn.PgError{Code: "23P01"})

	_, err := NewBookAppointmentHandler(f.deps).Handle(context.Background(), bookCommand(uuid.New(), slotStart))

	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
	assert.Equal(t, 1, f.uow.begun, "constraint violations are not retried")
}

func TestBookAppointmentHandler_OpeningHours(t *testing.T) {
	f := newFixture()
	f.deps.OpeningHours = stubOpeningHours{open: false}

	_, err := NewBookAppointmentHandler(f.deps).Handle(context.Background(), bookCommand(uuid.New(), slotStart))

	assert.ErrorIs(t, err, domain.ErrOutsideOpeningHours)
	f.repo.AssertNotCalled(t, "FindActiveOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookAppointmentHandler_InvalidInterval(t *testing.T) {
	f := newFixture()
	cmd := bookCommand(uuid.New(), slotStart)
	cmd.End = cmd.Start

	_, err := NewBookAppointmentHandler(f.deps).Handle(context.Background(), cmd)

	assert.ErrorIs(t, err, domain.ErrInvalidInterval)
	assert.Zero(t, f.uow.begun)
}

func existingAppointment(t *testing.T, vocabulary *domain.StatusVocabulary) *domain.Appointment {
	t.Helper()
	r, err := domain.NewTimeRange(slotStart, slotStart.Add(time.Hour))
	require.NoError(t, err)
	appt, err := domain.NewAppointment(domain.AppointmentDetails{
		ShopID: uuid.New(), PetID: uuid.New(), Service: "nails",
	}, r, vocabulary)
	require.NoError(t, err)
	appt.ClearDomainEvents()
	return appt
}

func TestTransitionAppointmentHandler(t *testing.T) {
	f := newFixture()
	appt := existingAppointment(t, nil)
	f.repo.On("FindByID", mock.Anything, appt.ID()).Return(appt, nil)
	f.repo.On("Save", mock.Anything, appt).Return(nil)
	handler := NewTransitionAppointmentHandler(f.deps)
	ctx := context.Background()

	res, err := handler.Handle(ctx, TransitionAppointmentCommand{AppointmentID: appt.ID(), Action: ActionConfirm})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, res.From)
	assert.Equal(t, domain.StatusConfirmed, res.To)

	_, err = handler.Handle(ctx, TransitionAppointmentCommand{AppointmentID: appt.ID(), Action: ActionCancel, Reason: "moving"})
	require.NoError(t, err)
	assert.Equal(t, "moving", appt.CancellationReason())

	_, err = handler.Handle(ctx, TransitionAppointmentCommand{AppointmentID: appt.ID(), Action: ActionRebook})
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusCancelled, te.From)

	assert.Len(t, f.outbox.Messages(), 2)
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricAppointmentTransitions,
		observability.T("from", "SCHEDULED"), observability.T("to", "CONFIRMED")))
}

func TestTransitionAppointmentHandler_NotFound(t *testing.T) {
	f := newFixture()
	f.repo.On("FindByID", mock.Anything, mock.Anything).Return(nil, domain.ErrAppointmentNotFound)

	_, err := NewTransitionAppointmentHandler(f.deps).Handle(context.Background(),
		TransitionAppointmentCommand{AppointmentID: uuid.New(), Action: ActionConfirm})
	assert.True(t, errors.Is(err, domain.ErrAppointmentNotFound))
}

func noShowAppointment(t *testing.T) *domain.Appointment {
	t.Helper()
	appt := existingAppointment(t, nil)
	require.NoError(t, appt.MarkNoShow())
	appt.ClearDomainEvents()
	return appt
}

func TestTransitionAppointmentHandler_RebookChecksSlot(t *testing.T) {
	f := newFixture()
	appt := noShowAppointment(t)
	other := domain.BookedInterval{AppointmentID: uuid.New(), Range: appt.Interval(), Status: domain.StatusScheduled}
	f.repo.On("FindByID", mock.Anything, appt.ID()).Return(appt, nil)
	f.repo.On("FindActiveOverlapping", mock.Anything, appt.ShopID(), appt.Interval(), mock.Anything, mock.Anything).
		Return([]domain.BookedInterval{other}, nil)

	_, err := NewTransitionAppointmentHandler(f.deps).Handle(context.Background(),
		TransitionAppointmentCommand{AppointmentID: appt.ID(), Action: ActionRebook})

	var conflict *domain.SlotConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, other.AppointmentID, conflict.Conflicts[0].AppointmentID)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.uow.rolledBack)
	assert.Empty(t, f.outbox.Messages())
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricBookingConflicts))
}

func TestTransitionAppointmentHandler_RebookFreeSlot(t *testing.T) {
	f := newFixture()
	appt := noShowAppointment(t)
	f.repo.On("FindByID", mock.Anything, appt.ID()).Return(appt, nil)
	f.repo.On("FindActiveOverlapping", mock.Anything, appt.ShopID(), appt.Interval(), mock.Anything,
		mock.MatchedBy(func(id *uuid.UUID) bool { return id != nil && *id == appt.ID() })).
		Return([]domain.BookedInterval{}, nil)
	f.repo.On("Save", mock.Anything, appt).Return(nil)

	res, err := NewTransitionAppointmentHandler(f.deps).Handle(context.Background(),
		TransitionAppointmentCommand{AppointmentID: appt.ID(), Action: ActionRebook})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoShow, res.From)
	assert.Equal(t, domain.StatusScheduled, res.To)
	f.repo.AssertExpectations(t)
}

func TestTransitionAppointmentHandler_ExclusionViolationIsSlotConflict(t *testing.T) {
	f := newFixture()
	appt := noShowAppointment(t)
	f.repo.On("FindByID", mock.Anything, appt.ID()).Return(appt, nil)
	f.repo.On("FindActiveOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.BookedInterval{}, nil)
	f.repo.On("Save", mock.Anything, appt).Return(fmt.Errorf("update appointment: %w", &pgconn.PgError{Code: "23P01"}))

	_, err := NewTransitionAppointmentHandler(f.deps).Handle(context.Background(),
		TransitionAppointmentCommand{AppointmentID: appt.ID(), Action: ActionRebook})

	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("NO_SHOW")
	require.NoError(t, err)
	assert.Equal(t, ActionNoShow, a)

	_, err = ParseAction("teleport")
	assert.Error(t, err)
}

func TestRescheduleAppointmentHandler(t *testing.T) {
	f := newFixture()
	appt := existingAppointment(t, domain.AppointmentVocabulary())
	id := appt.ID()
	f.repo.On("FindByID", mock.Anything, id).Return(appt, nil)
	f.repo.On("FindActiveOverlapping", mock.Anything, appt.ShopID(), mock.Anything,
		[]domain.Status{domain.StatusScheduled, domain.StatusConfirmed}, &id,
	).Return([]domain.BookedInterval{}, nil)
	f.repo.On("Save", mock.Anything, appt).Return(nil)

	res, err := NewRescheduleAppointmentHandler(f.deps).Handle(context.Background(), RescheduleAppointmentCommand{
		AppointmentID: id,
		Start:         slotStart.Add(2 * time.Hour),
		End:           slotStart.Add(3 * time.Hour),
	})

	require.NoError(t, err)
	assert.Equal(t, slotStart, res.OldStart)
	assert.Equal(t, slotStart.Add(2*time.Hour), appt.StartTime())
	require.Len(t, f.outbox.Messages(), 1)
	assert.Equal(t, domain.RoutingKeyAppointmentRescheduled, f.outbox.Messages()[0].RoutingKey)
}

func TestRescheduleAppointmentHandler_RejectsFinishedAppointment(t *testing.T) {
	f := newFixture()
	appt := existingAppointment(t, nil)
	require.NoError(t, appt.Complete())
	f.repo.On("FindByID", mock.Anything, appt.ID()).Return(appt, nil)

	_, err := NewRescheduleAppointmentHandler(f.deps).Handle(context.Background(), RescheduleAppointmentCommand{
		AppointmentID: appt.ID(),
		Start:         slotStart.Add(2 * time.Hour),
		End:           slotStart.Add(3 * time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrCannotReschedule)
}
