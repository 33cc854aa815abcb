package app

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availabilityDomain "github.com/felixgeelhaar/groomly/internal/availability/domain"
	bookingDomain "github.com/felixgeelhaar/groomly/internal/booking/domain"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/migrations"

	_ "modernc.org/sqlite"
)

// mockSQLiteConnection implements database.Connection for testing.
type mockSQLiteConnection struct {
	db *sql.DB
}

func (m *mockSQLiteConnection) Driver() database.Driver {
	return database.DriverSQLite
}

func (m *mockSQLiteConnection) DB() *sql.DB {
	return m.db
}

func (m *mockSQLiteConnection) Close() error {
	return m.db.Close()
}

func (m *mockSQLiteConnection) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// opaqueConnection exposes neither Pool() nor DB().
type opaqueConnection struct {
	driver database.Driver
}

func (o opaqueConnection) Driver() database.Driver    { return o.driver }
func (o opaqueConnection) Close() error               { return nil }
func (o opaqueConnection) Ping(context.Context) error { return nil }

// setupTestDB creates an in-memory SQLite database with schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), sqlDB))
	return sqlDB
}

func TestRepositoryFactory_SQLiteRepositories(t *testing.T) {
	conn := &mockSQLiteConnection{db: setupTestDB(t)}
	factory := NewRepositoryFactory(conn)
	ctx := context.Background()

	hoursRepo, err := factory.ShopHoursRepository()
	require.NoError(t, err)
	window, err := availabilityDomain.NewTimeWindow(time.Friday, "08:00", "12:00")
	require.NoError(t, err)
	weekly, err := availabilityDomain.NewWeeklyAvailability(window)
	require.NoError(t, err)
	hours, err := availabilityDomain.NewShopHours(uuid.New(), weekly, time.UTC)
	require.NoError(t, err)
	require.NoError(t, hoursRepo.Save(ctx, hours))

	apptRepo, err := factory.AppointmentRepository()
	require.NoError(t, err)
	rng, err := bookingDomain.NewTimeRangeFor(time.Date(2025, time.June, 6, 8, 0, 0, 0, time.UTC), time.Hour)
	require.NoError(t, err)
	appt, err := bookingDomain.NewAppointment(bookingDomain.AppointmentDetails{
		ShopID:  hours.ShopID(),
		PetID:   uuid.New(),
		Service: "nail trim",
	}, rng, nil)
	require.NoError(t, err)
	require.NoError(t, apptRepo.Save(ctx, appt))

	found, err := apptRepo.FindByID(ctx, appt.ID())
	require.NoError(t, err)
	assert.Equal(t, "nail trim", found.Service())

	outboxRepo, err := factory.OutboxRepository()
	require.NoError(t, err)
	assert.NotNil(t, outboxRepo)

	uow, err := factory.UnitOfWork(true)
	require.NoError(t, err)
	assert.NotNil(t, uow)
}

func TestRepositoryFactory_MissingAccessor(t *testing.T) {
	for _, driver := range []database.Driver{database.DriverPostgres, database.DriverSQLite} {
		factory := NewRepositoryFactory(opaqueConnection{driver: driver})

		_, err := factory.AppointmentRepository()
		assert.Error(t, err, driver)
		_, err = factory.ShopHoursRepository()
		assert.Error(t, err, driver)
		_, err = factory.UnitOfWork(false)
		assert.Error(t, err, driver)
	}
}

func TestRepositoryFactory_UnsupportedDriver(t *testing.T) {
	factory := NewRepositoryFactory(opaqueConnection{driver: "mysql"})

	_, err := factory.OutboxRepository()
	assert.ErrorIs(t, err, database.ErrUnsupportedDriver)
}

func TestRepositoryFactory_Driver(t *testing.T) {
	conn := &mockSQLiteConnection{db: setupTestDB(t)}
	factory := NewRepositoryFactory(conn)

	assert.Equal(t, database.DriverSQLite, factory.Driver())
	assert.Equal(t, conn, factory.Connection())
}
