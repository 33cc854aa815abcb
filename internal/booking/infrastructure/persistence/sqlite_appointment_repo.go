package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/groomly/internal/booking/domain"
	sharedPersistence "github.com/felixgeelhaar/groomly/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

var sqliteAppointmentSelect = "SELECT " + strings.Join(appointmentColumns, ", ") + " FROM appointments"

// SQLiteAppointmentRepository implements domain.AppointmentRepository for local mode.
type SQLiteAppointmentRepository struct {
	db *sql.DB
}

// NewSQLiteAppointmentRepository creates a new SQLite appointment repository.
func NewSQLiteAppointmentRepository(db *sql.DB) *SQLiteAppointmentRepository {
	return &SQLiteAppointmentRepository{db: db}
}

// Save inserts or updates with the same version rules as the PostgreSQL repository.
func (r *SQLiteAppointmentRepository) Save(ctx context.Context, appt *domain.Appointment) error {
	exec := sharedPersistence.SQLiteExecutorFromContext(ctx, r.db)
	next := appt.Version() + 1

	var (
		res sql.Result
		err error
	)
	if appt.Version() == 0 {
		res, err = exec.ExecContext(ctx, `
			INSERT INTO appointments (`+strings.Join(appointmentColumns, ", ")+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			appt.ID().String(), appt.ShopID().String(), appt.PetID().String(), appt.CustomerID().String(),
			appt.Service(),
			sharedPersistence.FormatSQLiteTime(appt.StartTime()),
			sharedPersistence.FormatSQLiteTime(appt.EndTime()),
			string(appt.Status()), appt.Vocabulary().Name(), appt.Notes(), appt.CancellationReason(), next,
			sharedPersistence.FormatSQLiteTime(appt.CreatedAt()),
			sharedPersistence.FormatSQLiteTime(appt.UpdatedAt()),
		)
	} else {
		res, err = exec.ExecContext(ctx, `
			UPDATE appointments
			SET start_time = ?, end_time = ?, status = ?, notes = ?, cancellation_reason = ?, version = ?, updated_at = ?
			WHERE id = ? AND version = ?`,
			sharedPersistence.FormatSQLiteTime(appt.StartTime()),
			sharedPersistence.FormatSQLiteTime(appt.EndTime()),
			string(appt.Status()), appt.Notes(), appt.CancellationReason(), next,
			sharedPersistence.FormatSQLiteTime(appt.UpdatedAt()),
			appt.ID().String(), appt.Version(),
		)
	}
	if err != nil {
		return fmt.Errorf("save appointment: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrConcurrentModification
	}
	appt.SetVersion(next)
	return nil
}

// FindByID returns ErrAppointmentNotFound when id is unknown.
func (r *SQLiteAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	row := sharedPersistence.SQLiteExecutorFromContext(ctx, r.db).
		QueryRowContext(ctx, sqliteAppointmentSelect+" WHERE id = ?", id.String())
	appt, err := scanSQLiteAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAppointmentNotFound
	}
	return appt, err
}

// FindActiveOverlapping compares the fixed-width UTC timestamps as text.
func (r *SQLiteAppointmentRepository) FindActiveOverlapping(
	ctx context.Context,
	shopID uuid.UUID,
	interval domain.TimeRange,
	active []domain.Status,
	excludeID *uuid.UUID,
) ([]domain.BookedInterval, error) {
	if len(active) == 0 {
		return nil, nil
	}

	query := `SELECT id, start_time, end_time, status FROM appointments
		WHERE shop_id = ? AND start_time <= ? AND end_time >= ?
		AND status IN (?` + strings.Repeat(", ?", len(active)-1) + `)`
	args := []any{
		shopID.String(),
		sharedPersistence.FormatSQLiteTime(interval.End()),
		sharedPersistence.FormatSQLiteTime(interval.Start()),
	}
	for _, s := range active {
		args = append(args, string(s))
	}
	if excludeID != nil {
		query += " AND id <> ?"
		args = append(args, excludeID.String())
	}
	query += " ORDER BY start_time"

	rows, err := sharedPersistence.SQLiteExecutorFromContext(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find overlapping appointments: %w", err)
	}
	defer rows.Close()

	var booked []domain.BookedInterval
	for rows.Next() {
		var id, start, end, status string
		if err := rows.Scan(&id, &start, &end, &status); err != nil {
			return nil, err
		}
		b, err := toBookedInterval(id, start, end, status)
		if err != nil {
			return nil, err
		}
		booked = append(booked, b)
	}
	return booked, rows.Err()
}

// ListByShopAndRange returns appointments starting in [from, to).
func (r *SQLiteAppointmentRepository) ListByShopAndRange(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]*domain.Appointment, error) {
	rows, err := sharedPersistence.SQLiteExecutorFromContext(ctx, r.db).QueryContext(ctx,
		sqliteAppointmentSelect+" WHERE shop_id = ? AND start_time >= ? AND start_time < ? ORDER BY start_time, id",
		shopID.String(),
		sharedPersistence.FormatSQLiteTime(from),
		sharedPersistence.FormatSQLiteTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appts []*domain.Appointment
	for rows.Next() {
		appt, err := scanSQLiteAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

type sqliteScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAppointment(s sqliteScanner) (*domain.Appointment, error) {
	var (
		id, shopID, petID, customerID string
		start, end, created, updated  string
		r                             appointmentRow
	)
	if err := s.Scan(
		&id, &shopID, &petID, &customerID, &r.Service, &start, &end,
		&r.Status, &r.Vocabulary, &r.Notes, &r.CancellationReason, &r.Version, &created, &updated,
	); err != nil {
		return nil, err
	}

	var err error
	for _, f := range []struct {
		dst *uuid.UUID
		src string
	}{{&r.ID, id}, {&r.ShopID, shopID}, {&r.PetID, petID}, {&r.CustomerID, customerID}} {
		if *f.dst, err = uuid.Parse(f.src); err != nil {
			return nil, err
		}
	}
	for _, f := range []struct {
		dst *time.Time
		src string
	}{{&r.StartTime, start}, {&r.EndTime, end}, {&r.CreatedAt, created}, {&r.UpdatedAt, updated}} {
		if *f.dst, err = sharedPersistence.ParseSQLiteTime(f.src); err != nil {
			return nil, err
		}
	}
	return r.toDomain()
}

func toBookedInterval(id, start, end, status string) (domain.BookedInterval, error) {
	appointmentID, err := uuid.Parse(id)
	if err != nil {
		return domain.BookedInterval{}, err
	}
	s, err := sharedPersistence.ParseSQLiteTime(start)
	if err != nil {
		return domain.BookedInterval{}, err
	}
	e, err := sharedPersistence.ParseSQLiteTime(end)
	if err != nil {
		return domain.BookedInterval{}, err
	}
	rng, err := domain.NewTimeRange(s, e)
	if err != nil {
		return domain.BookedInterval{}, err
	}
	return domain.BookedInterval{AppointmentID: appointmentID, Range: rng, Status: domain.Status(status)}, nil
}
