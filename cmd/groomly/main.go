package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/groomly/adapter/cli"
	"github.com/felixgeelhaar/groomly/adapter/cli/appt"
	"github.com/felixgeelhaar/groomly/adapter/cli/hours"
	"github.com/felixgeelhaar/groomly/internal/app"
	"github.com/felixgeelhaar/groomly/pkg/config"
	"github.com/felixgeelhaar/groomly/pkg/observability"
)

func main() {
	cli.SetInitializer(initialize)

	cli.AddCommand(hours.Cmd)
	cli.AddCommand(hours.ClosureCmd)
	cli.AddCommand(appt.Cmd)

	cli.Execute()
}

// initialize loads configuration and builds the container once flags are parsed.
func initialize(ctx context.Context, configPath string, verbose bool) (*cli.App, func(), error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := observability.DefaultLogConfig()
	logCfg.Level = observability.LogLevel(cfg.LogLevel)
	logCfg.Format = observability.LogFormat(cfg.LogFormat)
	if verbose {
		logCfg.Level = observability.LogLevelDebug
	}
	logger := observability.NewLogger(logCfg)
	cli.SetLogger(logger)

	loc, err := time.LoadLocation(cfg.ShopTimezone)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid shop timezone %q: %w", cfg.ShopTimezone, err)
	}

	container, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize groomly: %w", err)
	}

	cliApp := cli.NewApp(
		container.SetShopHoursHandler,
		container.ClosureHandler,
		container.AvailabilityHandler,
		container.BookAppointmentHandler,
		container.TransitionAppointmentHandler,
		container.RescheduleAppointmentHandler,
		container.AppointmentsHandler,
		container.CheckConflictsHandler,
	)
	cliApp.SetLocation(loc, cfg.ShopTimezone)
	cliApp.SetHealthCheck(container.Health.Check)
	if cfg.LocalMode() || !cfg.OutboxProcessorEnabled {
		// No worker drains the outbox, so each write flushes it.
		cliApp.SetFlusher(container.Flush)
	}

	logger.Debug("groomly initialized",
		"driver", cfg.DatabaseDriver,
		"vocabulary", cfg.StatusVocabulary,
		"timezone", cfg.ShopTimezone,
		"pid", os.Getpid(),
	)
	return cliApp, container.Close, nil
}
