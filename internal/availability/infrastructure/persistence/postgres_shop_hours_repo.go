package persistence

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/groomly/internal/availability/domain"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/database"
	sharedPersistence "github.com/felixgeelhaar/groomly/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresShopHoursRepository implements domain.ShopHoursRepository using PostgreSQL.
type PostgresShopHoursRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresShopHoursRepository creates a new PostgreSQL shop hours repository.
func NewPostgresShopHoursRepository(pool *pgxpool.Pool) *PostgresShopHoursRepository {
	return &PostgresShopHoursRepository{pool: pool}
}

// Save writes the header row, then replaces windows and closures.
func (r *PostgresShopHoursRepository) Save(ctx context.Context, hours *domain.ShopHours) error {
	if _, ok := sharedPersistence.TxInfoFromContext(ctx); ok {
		return r.save(ctx, sharedPersistence.Executor(ctx, r.pool), hours)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return r.save(ctx, tx, hours)
	})
}

func (r *PostgresShopHoursRepository) save(ctx context.Context, exec sharedPersistence.DBExecutor, hours *domain.ShopHours) error {
	next := hours.Version() + 1

	if hours.Version() == 0 {
		query, args, err := psql.Insert("shop_hours").
			Columns("shop_id", "timezone", "version", "created_at", "updated_at").
			Values(hours.ShopID(), hours.Location().String(), next, hours.CreatedAt(), hours.UpdatedAt()).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := exec.Exec(ctx, query, args...); err != nil {
			if database.IsUniqueViolation(err) {
				return domain.ErrConcurrentModification
			}
			return fmt.Errorf("insert shop hours: %w", err)
		}
	} else {
		query, args, err := psql.Update("shop_hours").
			Set("timezone", hours.Location().String()).
			Set("version", next).
			Set("updated_at", hours.UpdatedAt()).
			Where(sq.Eq{"shop_id": hours.ShopID(), "version": hours.Version()}).
			ToSql()
		if err != nil {
			return err
		}
		tag, err := exec.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update shop hours: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrConcurrentModification
		}
	}

	if err := r.replaceChildren(ctx, exec, hours); err != nil {
		return err
	}
	hours.SetVersion(next)
	return nil
}

func (r *PostgresShopHoursRepository) replaceChildren(ctx context.Context, exec sharedPersistence.DBExecutor, hours *domain.ShopHours) error {
	for _, table := range []string{"shop_hour_windows", "shop_closures"} {
		query, args, err := psql.Delete(table).Where(sq.Eq{"shop_id": hours.ShopID()}).ToSql()
		if err != nil {
			return err
		}
		if _, err := exec.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	windows := psql.Insert("shop_hour_windows").
		Columns("shop_id", "position", "day_of_week", "start_minute", "end_minute")
	for i, w := range hours.Weekly().Windows() {
		windows = windows.Values(hours.ShopID(), i, int(w.Day()), w.StartMinute(), w.EndMinute())
	}
	query, args, err := windows.ToSql()
	if err != nil {
		return err
	}
	if _, err := exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert windows: %w", err)
	}

	closures := hours.ClosureDetails()
	if len(closures) == 0 {
		return nil
	}
	insert := psql.Insert("shop_closures").Columns("shop_id", "closed_on", "reason")
	for _, c := range closures {
		insert = insert.Values(hours.ShopID(), c.Date.Midnight(time.UTC), c.Reason)
	}
	query, args, err = insert.ToSql()
	if err != nil {
		return err
	}
	if _, err := exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert closures: %w", err)
	}
	return nil
}

// FindByShopID loads hours with their windows and closures.
func (r *PostgresShopHoursRepository) FindByShopID(ctx context.Context, shopID uuid.UUID) (*domain.ShopHours, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query, args, err := psql.Select("timezone", "version", "created_at", "updated_at").
		From("shop_hours").
		Where(sq.Eq{"shop_id": shopID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var (
		tz                   string
		version              int
		createdAt, updatedAt time.Time
	)
	if err := exec.QueryRow(ctx, query, args...).Scan(&tz, &version, &createdAt, &updatedAt); err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrShopHoursNotFound
		}
		return nil, fmt.Errorf("load shop hours: %w", err)
	}

	weekly, err := r.loadWindows(ctx, exec, shopID)
	if err != nil {
		return nil, err
	}
	closures, err := r.loadClosures(ctx, exec, shopID)
	if err != nil {
		return nil, err
	}
	return rehydrate(shopID, tz, weekly, closures, version, createdAt, updatedAt)
}

func (r *PostgresShopHoursRepository) loadWindows(ctx context.Context, exec sharedPersistence.DBExecutor, shopID uuid.UUID) (domain.WeeklyAvailability, error) {
	query, args, err := psql.Select("day_of_week", "start_minute", "end_minute").
		From("shop_hour_windows").
		Where(sq.Eq{"shop_id": shopID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return domain.WeeklyAvailability{}, err
	}
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return domain.WeeklyAvailability{}, fmt.Errorf("load windows: %w", err)
	}
	defer rows.Close()

	var stored []storedWindow
	for rows.Next() {
		var w storedWindow
		if err := rows.Scan(&w.day, &w.start, &w.end); err != nil {
			return domain.WeeklyAvailability{}, err
		}
		stored = append(stored, w)
	}
	if err := rows.Err(); err != nil {
		return domain.WeeklyAvailability{}, err
	}
	return toWeekly(stored)
}

func (r *PostgresShopHoursRepository) loadClosures(ctx context.Context, exec sharedPersistence.DBExecutor, shopID uuid.UUID) ([]storedClosure, error) {
	query, args, err := psql.Select("closed_on", "reason").
		From("shop_closures").
		Where(sq.Eq{"shop_id": shopID}).
		OrderBy("closed_on").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load closures: %w", err)
	}
	defer rows.Close()

	var closures []storedClosure
	for rows.Next() {
		var (
			d      time.Time
			reason string
		)
		if err := rows.Scan(&d, &reason); err != nil {
			return nil, err
		}
		closures = append(closures, storedClosure{date: domain.DateOf(d.UTC()), reason: reason})
	}
	return closures, rows.Err()
}
