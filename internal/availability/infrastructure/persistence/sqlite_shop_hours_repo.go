package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/groomly/internal/availability/domain"
	sharedPersistence "github.com/felixgeelhaar/groomly/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
)

// SQLiteShopHoursRepository implements domain.ShopHoursRepository for local mode.
type SQLiteShopHoursRepository struct {
	db *sql.DB
}

// NewSQLiteShopHoursRepository creates a new SQLite shop hours repository.
func NewSQLiteShopHoursRepository(db *sql.DB) *SQLiteShopHoursRepository {
	return &SQLiteShopHoursRepository{db: db}
}

// Save writes the header row, then replaces windows and closures.
func (r *SQLiteShopHoursRepository) Save(ctx context.Context, hours *domain.ShopHours) error {
	if _, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		return r.save(ctx, sharedPersistence.SQLiteExecutorFromContext(ctx, r.db), hours)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.save(ctx, tx, hours); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLiteShopHoursRepository) save(ctx context.Context, exec sharedPersistence.SQLiteExecutor, hours *domain.ShopHours) error {
	shopID := hours.ShopID().String()
	next := hours.Version() + 1

	var (
		res sql.Result
		err error
	)
	if hours.Version() == 0 {
		res, err = exec.ExecContext(ctx, `
			INSERT INTO shop_hours (shop_id, timezone, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (shop_id) DO NOTHING`,
			shopID, hours.Location().String(), next,
			sharedPersistence.FormatSQLiteTime(hours.CreatedAt()),
			sharedPersistence.FormatSQLiteTime(hours.UpdatedAt()),
		)
	} else {
		res, err = exec.ExecContext(ctx, `
			UPDATE shop_hours SET timezone = ?, version = ?, updated_at = ?
			WHERE shop_id = ? AND version = ?`,
			hours.Location().String(), next,
			sharedPersistence.FormatSQLiteTime(hours.UpdatedAt()),
			shopID, hours.Version(),
		)
	}
	if err != nil {
		return fmt.Errorf("save shop hours: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return domain.ErrConcurrentModification
	}

	if _, err := exec.ExecContext(ctx, `DELETE FROM shop_hour_windows WHERE shop_id = ?`, shopID); err != nil {
		return fmt.Errorf("clear windows: %w", err)
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM shop_closures WHERE shop_id = ?`, shopID); err != nil {
		return fmt.Errorf("clear closures: %w", err)
	}
	for i, w := range hours.Weekly().Windows() {
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO shop_hour_windows (shop_id, position, day_of_week, start_minute, end_minute)
			VALUES (?, ?, ?, ?, ?)`,
			shopID, i, int(w.Day()), w.StartMinute(), w.EndMinute(),
		); err != nil {
			return fmt.Errorf("insert window: %w", err)
		}
	}
	for _, c := range hours.ClosureDetails() {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO shop_closures (shop_id, closed_on, reason) VALUES (?, ?, ?)`,
			shopID, c.Date.String(), c.Reason,
		); err != nil {
			return fmt.Errorf("insert closure: %w", err)
		}
	}

	hours.SetVersion(next)
	return nil
}

// FindByShopID loads hours with their windows and closures.
func (r *SQLiteShopHoursRepository) FindByShopID(ctx context.Context, shopID uuid.UUID) (*domain.ShopHours, error) {
	exec := sharedPersistence.SQLiteExecutorFromContext(ctx, r.db)

	var (
		tz, createdAt, updatedAt string
		version                  int
	)
	err := exec.QueryRowContext(ctx,
		`SELECT timezone, version, created_at, updated_at FROM shop_hours WHERE shop_id = ?`,
		shopID.String(),
	).Scan(&tz, &version, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrShopHoursNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load shop hours: %w", err)
	}
	created, err := sharedPersistence.ParseSQLiteTime(createdAt)
	if err != nil {
		return nil, err
	}
	updated, err := sharedPersistence.ParseSQLiteTime(updatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT day_of_week, start_minute, end_minute FROM shop_hour_windows
		WHERE shop_id = ? ORDER BY position`, shopID.String())
	if err != nil {
		return nil, fmt.Errorf("load windows: %w", err)
	}
	stored, err := scanSQLiteWindows(rows)
	if err != nil {
		return nil, err
	}
	weekly, err := toWeekly(stored)
	if err != nil {
		return nil, err
	}

	rows, err = exec.QueryContext(ctx,
		`SELECT closed_on, reason FROM shop_closures WHERE shop_id = ? ORDER BY closed_on`, shopID.String())
	if err != nil {
		return nil, fmt.Errorf("load closures: %w", err)
	}
	defer rows.Close()
	var closures []storedClosure
	for rows.Next() {
		var s, reason string
		if err := rows.Scan(&s, &reason); err != nil {
			return nil, err
		}
		d, err := domain.ParseDate(s)
		if err != nil {
			return nil, err
		}
		closures = append(closures, storedClosure{date: d, reason: reason})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rehydrate(shopID, tz, weekly, closures, version, created, updated)
}

func scanSQLiteWindows(rows *sql.Rows) ([]storedWindow, error) {
	defer rows.Close()
	var stored []storedWindow
	for rows.Next() {
		var w storedWindow
		if err := rows.Scan(&w.day, &w.start, &w.end); err != nil {
			return nil, err
		}
		stored = append(stored, w)
	}
	return stored, rows.Err()
}
