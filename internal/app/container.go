package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	availabilityCommands "github.com/felixgeelhaar/groomly/internal/availability/application/commands"
	availabilityQueries "github.com/felixgeelhaar/groomly/internal/availability/application/queries"
	availabilityDomain "github.com/felixgeelhaar/groomly/internal/availability/domain"
	bookingCommands "github.com/felixgeelhaar/groomly/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/groomly/internal/booking/application/queries"
	bookingDomain "github.com/felixgeelhaar/groomly/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/groomly/internal/shared/application"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/groomly/internal/shared/infrastructure/database/postgres"
	_ "github.com/felixgeelhaar/groomly/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/lock"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/groomly/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/groomly/pkg/config"
	"github.com/felixgeelhaar/groomly/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics
	Health  *observability.HealthRegistry

	// Infrastructure
	DBDriver       database.Driver
	DBConn         database.Connection
	DB             *pgxpool.Pool
	RedisClient    *redis.Client
	EventPublisher eventbus.Publisher
	Locker         sharedApplication.Locker

	// Repositories
	ShopHoursRepo   availabilityDomain.ShopHoursRepository
	AppointmentRepo bookingDomain.AppointmentRepository
	OutboxRepo      outbox.Repository
	UnitOfWork      sharedApplication.UnitOfWork
	// BookingUnitOfWork runs at serializable isolation on PostgreSQL.
	BookingUnitOfWork sharedApplication.UnitOfWork

	// Scheduling policy
	Vocabulary *bookingDomain.StatusVocabulary
	Detector   *bookingDomain.ConflictDetector

	// Availability handlers
	SetShopHoursHandler *availabilityCommands.SetShopHoursHandler
	ClosureHandler      *availabilityCommands.ClosureHandler
	AvailabilityHandler *availabilityQueries.AvailabilityHandler

	// Booking handlers
	BookAppointmentHandler       *bookingCommands.BookAppointmentHandler
	TransitionAppointmentHandler *bookingCommands.TransitionAppointmentHandler
	RescheduleAppointmentHandler *bookingCommands.RescheduleAppointmentHandler
	AppointmentsHandler          *bookingQueries.AppointmentsHandler
	CheckConflictsHandler        *bookingQueries.CheckConflictsHandler

	// Outbox
	OutboxProcessor *outbox.Processor
}

// Option customizes a container before handlers are built.
type Option func(*Container)

// WithMetrics replaces the no-op metrics sink.
func WithMetrics(metrics observability.Metrics) Option {
	return func(c *Container) {
		c.Metrics = metrics
	}
}

// New builds the container for the configured driver.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	driver, err := database.ParseDriver(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	if driver == database.DriverSQLite {
		return NewLocalContainer(ctx, cfg, logger, opts...)
	}
	return NewContainer(ctx, cfg, logger, opts...)
}

func newContainer(cfg *config.Config, logger *slog.Logger, opts []Option) *Container {
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NoopMetrics{},
		Health:  observability.NewHealthRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewContainer creates a container backed by PostgreSQL, Redis and RabbitMQ.
// In development Redis and RabbitMQ are optional.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	c := newContainer(cfg, logger, opts)

	conn, err := database.NewConnection(ctx, database.Config{
		Driver: database.DriverPostgres,
		URL:    cfg.DatabaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	factory := NewRepositoryFactory(conn)
	pool, err := factory.getPostgresPool()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.DBDriver = database.DriverPostgres
	c.DBConn = conn
	c.DB = pool
	logger.Info("connected to database")

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	c.Health.Register("database", observability.PingChecker("postgres", observability.HealthStatusUnhealthy, conn.Ping))

	// Connect to Redis (optional in development)
	c.Locker = lock.NewMemoryLocker()
	if cfg.RedisURL != "" {
		if err := c.connectRedis(ctx); err != nil {
			if !cfg.IsDevelopment() {
				c.Close()
				return nil, err
			}
			logger.Warn("Redis not available, appointment locks are process-local", "error", err)
		}
	}

	// Create event publisher
	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		// Fall back to noop publisher in development
		if !cfg.IsDevelopment() {
			c.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		c.EventPublisher = eventbus.NewNoopPublisher(logger)
	} else {
		c.Health.Register("rabbitmq", observability.PingChecker("rabbitmq", observability.HealthStatusDegraded, publisher.Check))
		c.EventPublisher = eventbus.NewBreakerPublisher(publisher, eventbus.BreakerConfig{
			Name:             "rabbitmq",
			FailureThreshold: cfg.BreakerFailureThreshold,
			MaxRequests:      1,
			Timeout:          cfg.BreakerOpenTimeout,
		}, logger, c.recordBreakerState)
	}

	if err := c.wire(factory); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// NewLocalContainer creates a container for local mode with SQLite.
// This provides zero-config operation without requiring PostgreSQL, Redis, or RabbitMQ.
func NewLocalContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	c := newContainer(cfg, logger, opts)

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
	}
	factory := NewRepositoryFactory(conn)
	db, err := factory.getSQLiteDB()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.DBDriver = database.DriverSQLite
	c.DBConn = conn

	logger.Debug("running SQLite migrations")
	if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	c.Health.Register("database", observability.PingChecker("sqlite", observability.HealthStatusUnhealthy, conn.Ping))

	c.Locker = lock.NewMemoryLocker()

	// Events are delivered in-process and logged.
	bus := eventbus.NewInProcessEventBus(logger)
	bus.RegisterConsumer(NewEventLogConsumer(logger))
	c.EventPublisher = bus

	if err := c.wire(factory); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	c.RedisClient = client
	locker := lock.NewRedisLocker(client, "")
	c.Locker = locker
	c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, locker.Ping))
	c.Logger.Info("connected to Redis")
	return nil
}

// wire builds repositories and handlers shared by both drivers.
func (c *Container) wire(factory *RepositoryFactory) error {
	var err error
	if c.ShopHoursRepo, err = factory.ShopHoursRepository(); err != nil {
		return fmt.Errorf("failed to create shop hours repository: %w", err)
	}
	if c.AppointmentRepo, err = factory.AppointmentRepository(); err != nil {
		return fmt.Errorf("failed to create appointment repository: %w", err)
	}
	if c.OutboxRepo, err = factory.OutboxRepository(); err != nil {
		return fmt.Errorf("failed to create outbox repository: %w", err)
	}
	if c.UnitOfWork, err = factory.UnitOfWork(false); err != nil {
		return fmt.Errorf("failed to create unit of work: %w", err)
	}
	if c.BookingUnitOfWork, err = factory.UnitOfWork(true); err != nil {
		return fmt.Errorf("failed to create booking unit of work: %w", err)
	}

	if c.Vocabulary, err = bookingDomain.VocabularyByName(c.Config.StatusVocabulary); err != nil {
		return err
	}
	policy, err := bookingDomain.ConflictPolicyByName(c.Config.ConflictPolicy)
	if err != nil {
		return err
	}
	c.Detector = bookingDomain.NewConflictDetector(policy)

	// Availability
	c.SetShopHoursHandler = availabilityCommands.NewSetShopHoursHandler(c.ShopHoursRepo, c.OutboxRepo, c.UnitOfWork, c.Logger)
	c.ClosureHandler = availabilityCommands.NewClosureHandler(c.ShopHoursRepo, c.OutboxRepo, c.UnitOfWork, c.Logger)
	c.AvailabilityHandler = availabilityQueries.NewAvailabilityHandler(c.ShopHoursRepo, c.Config.HorizonDays, c.Metrics, c.Logger)

	// Booking
	deps := bookingCommands.Dependencies{
		Appointments: c.AppointmentRepo,
		Outbox:       c.OutboxRepo,
		UnitOfWork:   c.BookingUnitOfWork,
		Locker:       c.Locker,
		Detector:     c.Detector,
		Vocabulary:   c.Vocabulary,
		OpeningHours: c.AvailabilityHandler,
		Metrics:      c.Metrics,
		Logger:       c.Logger,
		MaxAttempts:  c.Config.BookingAttempts,
	}
	c.BookAppointmentHandler = bookingCommands.NewBookAppointmentHandler(deps)
	c.TransitionAppointmentHandler = bookingCommands.NewTransitionAppointmentHandler(deps)
	c.RescheduleAppointmentHandler = bookingCommands.NewRescheduleAppointmentHandler(deps)
	c.AppointmentsHandler = bookingQueries.NewAppointmentsHandler(c.AppointmentRepo)
	c.CheckConflictsHandler = bookingQueries.NewCheckConflictsHandler(c.AppointmentRepo, c.Detector)

	// Outbox
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, c.processorConfig(), c.Logger, c.Metrics)
	return nil
}

func (c *Container) processorConfig() outbox.ProcessorConfig {
	pc := outbox.DefaultProcessorConfig()
	if c.Config.OutboxPollInterval > 0 {
		pc.PollInterval = c.Config.OutboxPollInterval
	}
	if c.Config.OutboxBatchSize > 0 {
		pc.BatchSize = c.Config.OutboxBatchSize
	}
	if c.Config.OutboxMaxRetries > 0 {
		pc.MaxRetries = c.Config.OutboxMaxRetries
	}
	if c.Config.OutboxRetentionDays > 0 {
		pc.Retention = time.Duration(c.Config.OutboxRetentionDays) * 24 * time.Hour
	}
	if c.Config.OutboxCleanupInterval > 0 {
		pc.CleanupInterval = c.Config.OutboxCleanupInterval
	}
	return pc
}

func (c *Container) recordBreakerState(to gobreaker.State) {
	c.Metrics.Gauge(observability.MetricBreakerState, float64(to), observability.T("breaker", "rabbitmq"))
}

// Flush delivers pending outbox messages once. Local mode has no worker, so
// the CLI calls this after each command.
func (c *Container) Flush(ctx context.Context) {
	if c.OutboxProcessor == nil {
		return
	}
	n, err := c.OutboxProcessor.ProcessOnce(ctx)
	if err != nil {
		c.Logger.Warn("outbox flush failed", "error", err)
		return
	}
	if n > 0 {
		c.Logger.Debug("outbox flushed", "messages", n)
	}
}

// Close releases all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Debug("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err, "driver", c.DBDriver)
		} else {
			c.Logger.Debug("database connection closed", "driver", c.DBDriver)
		}
	}
}
