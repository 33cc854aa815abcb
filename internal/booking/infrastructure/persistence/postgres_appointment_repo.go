package persistence

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/groomly/internal/booking/domain"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/database"
	sharedPersistence "github.com/felixgeelhaar/groomly/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresAppointmentRepository implements domain.AppointmentRepository using PostgreSQL.
type PostgresAppointmentRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAppointmentRepository creates a new PostgreSQL appointment repository.
func NewPostgresAppointmentRepository(pool *pgxpool.Pool) *PostgresAppointmentRepository {
	return &PostgresAppointmentRepository{pool: pool}
}

// Save inserts new appointments and updates loaded ones with a version check.
// Exclusion-constraint errors are returned unchanged for the caller to map.
func (r *PostgresAppointmentRepository) Save(ctx context.Context, appt *domain.Appointment) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	next := appt.Version() + 1

	if appt.Version() == 0 {
		query, args, err := psql.Insert("appointments").
			Columns(appointmentColumns...).
			Values(
				appt.ID(), appt.ShopID(), appt.PetID(), appt.CustomerID(), appt.Service(),
				appt.StartTime(), appt.EndTime(), string(appt.Status()), appt.Vocabulary().Name(),
				appt.Notes(), appt.CancellationReason(), next, appt.CreatedAt(), appt.UpdatedAt(),
			).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := exec.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		appt.SetVersion(next)
		return nil
	}

	query, args, err := psql.Update("appointments").
		Set("start_time", appt.StartTime()).
		Set("end_time", appt.EndTime()).
		Set("status", string(appt.Status())).
		Set("notes", appt.Notes()).
		Set("cancellation_reason", appt.CancellationReason()).
		Set("version", next).
		Set("updated_at", appt.UpdatedAt()).
		Where(sq.Eq{"id": appt.ID(), "version": appt.Version()}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := exec.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	appt.SetVersion(next)
	return nil
}

// FindByID returns ErrAppointmentNotFound when id is unknown.
func (r *PostgresAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	query, args, err := psql.Select(appointmentColumns...).
		From("appointments").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	row := sharedPersistence.Executor(ctx, r.pool).QueryRow(ctx, query, args...)
	appt, err := scanAppointment(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrAppointmentNotFound
	}
	return appt, err
}

// FindActiveOverlapping uses an inclusive comparison on both ends so that
// touching bookings reach the detector.
func (r *PostgresAppointmentRepository) FindActiveOverlapping(
	ctx context.Context,
	shopID uuid.UUID,
	interval domain.TimeRange,
	active []domain.Status,
	excludeID *uuid.UUID,
) ([]domain.BookedInterval, error) {
	if len(active) == 0 {
		return nil, nil
	}
	builder := psql.Select("id", "start_time", "end_time", "status").
		From("appointments").
		Where(sq.Eq{"shop_id": shopID, "status": statusStrings(active)}).
		Where(sq.LtOrEq{"start_time": interval.End()}).
		Where(sq.GtOrEq{"end_time": interval.Start()}).
		OrderBy("start_time")
	if excludeID != nil {
		builder = builder.Where(sq.NotEq{"id": *excludeID})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find overlapping appointments: %w", err)
	}
	defer rows.Close()

	var booked []domain.BookedInterval
	for rows.Next() {
		var (
			id         uuid.UUID
			start, end time.Time
			status     string
		)
		if err := rows.Scan(&id, &start, &end, &status); err != nil {
			return nil, err
		}
		rng, err := domain.NewTimeRange(start.UTC(), end.UTC())
		if err != nil {
			return nil, err
		}
		booked = append(booked, domain.BookedInterval{AppointmentID: id, Range: rng, Status: domain.Status(status)})
	}
	return booked, rows.Err()
}

// ListByShopAndRange returns appointments starting in [from, to).
func (r *PostgresAppointmentRepository) ListByShopAndRange(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]*domain.Appointment, error) {
	query, args, err := psql.Select(appointmentColumns...).
		From("appointments").
		Where(sq.Eq{"shop_id": shopID}).
		Where(sq.GtOrEq{"start_time": from}).
		Where(sq.Lt{"start_time": to}).
		OrderBy("start_time", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := sharedPersistence.Executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appts []*domain.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var r appointmentRow
	if err := row.Scan(
		&r.ID, &r.ShopID, &r.PetID, &r.CustomerID, &r.Service, &r.StartTime, &r.EndTime,
		&r.Status, &r.Vocabulary, &r.Notes, &r.CancellationReason, &r.Version, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return r.toDomain()
}
