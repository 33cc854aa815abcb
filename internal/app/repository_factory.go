package app

import (
	"database/sql"
	"fmt"

	availabilityDomain "github.com/felixgeelhaar/groomly/internal/availability/domain"
	availabilityPersistence "github.com/felixgeelhaar/groomly/internal/availability/infrastructure/persistence"
	bookingDomain "github.com/felixgeelhaar/groomly/internal/booking/domain"
	bookingPersistence "github.com/felixgeelhaar/groomly/internal/booking/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/groomly/internal/shared/application"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/groomly/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// ShopHoursRepository creates a shop hours repository for the configured driver.
func (f *RepositoryFactory) ShopHoursRepository() (availabilityDomain.ShopHoursRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return availabilityPersistence.NewPostgresShopHoursRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return availabilityPersistence.NewSQLiteShopHoursRepository(db), nil

	default:
		return nil, fmt.Errorf("%w: %s", database.ErrUnsupportedDriver, f.driver)
	}
}

// AppointmentRepository creates an appointment repository for the configured driver.
func (f *RepositoryFactory) AppointmentRepository() (bookingDomain.AppointmentRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return bookingPersistence.NewPostgresAppointmentRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return bookingPersistence.NewSQLiteAppointmentRepository(db), nil

	default:
		return nil, fmt.Errorf("%w: %s", database.ErrUnsupportedDriver, f.driver)
	}
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return outbox.NewPostgresRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return outbox.NewSQLiteRepository(db), nil

	default:
		return nil, fmt.Errorf("%w: %s", database.ErrUnsupportedDriver, f.driver)
	}
}

// UnitOfWork creates a unit of work. serializable only affects PostgreSQL;
// the single SQLite connection already serializes writers.
func (f *RepositoryFactory) UnitOfWork(serializable bool) (sharedApplication.UnitOfWork, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		if serializable {
			return sharedPersistence.NewSerializablePostgresUnitOfWork(pool), nil
		}
		return sharedPersistence.NewPostgresUnitOfWork(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return sharedPersistence.NewSQLiteUnitOfWork(db), nil

	default:
		return nil, fmt.Errorf("%w: %s", database.ErrUnsupportedDriver, f.driver)
	}
}

// Helper methods to get underlying database connections

func (f *RepositoryFactory) getPostgresPool() (*pgxpool.Pool, error) {
	pgConn, ok := f.conn.(interface{ Pool() *pgxpool.Pool })
	if !ok {
		return nil, fmt.Errorf("postgres connection does not expose Pool()")
	}
	return pgConn.Pool(), nil
}

func (f *RepositoryFactory) getSQLiteDB() (*sql.DB, error) {
	sqliteConn, ok := f.conn.(interface{ DB() *sql.DB })
	if !ok {
		return nil, fmt.Errorf("sqlite connection does not expose DB()")
	}
	return sqliteConn.DB(), nil
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
