package queries

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/groomly/internal/booking/domain"
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
	return args.Get(0).([]domain.BookedInterval), args.Error(1)
}

func (m *mockAppointmentRepo) ListByShopAndRange(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]*domain.Appointment, error) {
	args := m.Called(ctx, shopID, from, to)
	return args.Get(0).([]*domain.Appointment), args.Error(1)
}

var ten = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func interval(t *testing.T, start time.Time, d time.Duration) domain.TimeRange {
	t.Helper()
	r, err := domain.NewTimeRangeFor(start, d)
	require.NoError(t, err)
	return r
}

func TestCheckConflictsHandler(t *testing.T) {
	repo := new(mockAppointmentRepo)
	shopID := uuid.New()
	a := domain.BookedInterval{AppointmentID: uuid.New(), Range: interval(t, ten, time.Hour), Status: domain.StatusConfirmed}
	repo.On("FindActiveOverlapping", mock.Anything, shopID, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.BookedInterval{a}, nil)
	handler := NewCheckConflictsHandler(repo, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		start     time.Time
		available bool
	}{
		{"B touching", ten.Add(time.Hour), true},
		{"C contained", ten.Add(30 * time.Minute), false},
		{"D overlaps start", ten.Add(-30 * time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := tt.start.Add(time.Hour)
			if tt.name == "C contained" {
				end = tt.start.Add(15 * time.Minute)
			}
			res, err := handler.Handle(ctx, CheckConflictsQuery{ShopID: shopID, Start: tt.start, End: end})
			require.NoError(t, err)
			assert.Equal(t, tt.available, res.Available)
			if !tt.available {
				require.Len(t, res.Conflicts, 1)
				assert.Equal(t, a.AppointmentID, res.Conflicts[0].AppointmentID)
			}
		})
	}

	_, err := handler.Handle(ctx, CheckConflictsQuery{ShopID: shopID, Start: ten, End: ten})
	assert.ErrorIs(t, err, domain.ErrInvalidInterval)
}

func TestCheckConflictsHandler_CountsEveryVocabulary(t *testing.T) {
	repo := new(mockAppointmentRepo)
	shopID := uuid.New()
	started := domain.BookedInterval{AppointmentID: uuid.New(), Range: interval(t, ten, time.Hour), Status: domain.StatusInProgress}
	repo.On("FindActiveOverlapping", mock.Anything, shopID, mock.Anything,
		mock.MatchedBy(func(active []domain.Status) bool {
			return slices.Contains(active, domain.StatusInProgress) && slices.Contains(active, domain.StatusScheduled)
		}), mock.Anything).
		Return([]domain.BookedInterval{started}, nil)

	res, err := NewCheckConflictsHandler(repo, nil).Handle(context.Background(),
		CheckConflictsQuery{ShopID: shopID, Start: ten.Add(15 * time.Minute), End: ten.Add(45 * time.Minute)})

	require.NoError(t, err)
	assert.False(t, res.Available)
	repo.AssertExpectations(t)
}

func TestAppointmentsHandler(t *testing.T) {
	repo := new(mockAppointmentRepo)
	shopID := uuid.New()
	first, err := domain.NewAppointment(domain.AppointmentDetails{ShopID: shopID, PetID: uuid.New(), Service: "bath"}, interval(t, ten, 45*time.Minute), nil)
	require.NoError(t, err)
	second, err := domain.NewAppointment(domain.AppointmentDetails{ShopID: shopID, PetID: uuid.New(), Service: "cut"}, interval(t, ten.Add(time.Hour), time.Hour), nil)
	require.NoError(t, err)
	require.NoError(t, second.Confirm())

	from, to := ten.Add(-time.Hour), ten.Add(24*time.Hour)
	repo.On("ListByShopAndRange", mock.Anything, shopID, from, to).Return([]*domain.Appointment{first, second}, nil)
	repo.On("FindByID", mock.Anything, first.ID()).Return(first, nil)
	handler := NewAppointmentsHandler(repo)
	ctx := context.Background()

	all, err := handler.List(ctx, ListAppointmentsQuery{ShopID: shopID, From: from, To: to})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	confirmed, err := handler.List(ctx, ListAppointmentsQuery{ShopID: shopID, From: from, To: to, Status: domain.StatusConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "cut", confirmed[0].Service)

	dto, err := handler.Get(ctx, GetAppointmentQuery{AppointmentID: first.ID()})
	require.NoError(t, err)
	assert.Equal(t, 45, dto.DurationMinutes)
	assert.Equal(t, "SCHEDULED", dto.Status)
	assert.Contains(t, dto.Allowed, "CONFIRMED")
}
