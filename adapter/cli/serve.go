package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/groomly/adapter/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the booking API over HTTP",
	Long: `Serve opening hours and appointments as a JSON API until interrupted.

Examples:
  groomly serve --addr 127.0.0.1:8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		cfg := api.DefaultServerConfig()
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}
		srv := api.NewServer(cfg, HandlersFor(app), logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()
		fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", cfg.Addr)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("api server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// HandlersFor exposes the App's use cases to the HTTP API.
func HandlersFor(app *App) api.Handlers {
	return api.Handlers{
		SetShopHours:   app.SetShopHoursHandler,
		Closures:       app.ClosureHandler,
		Availability:   app.AvailabilityHandler,
		Book:           app.BookAppointmentHandler,
		Transition:     app.TransitionAppointmentHandler,
		Reschedule:     app.RescheduleAppointmentHandler,
		Appointments:   app.AppointmentsHandler,
		CheckConflicts: app.CheckConflictsHandler,
		Flush:          app.Flush,
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default 127.0.0.1:8080)")
	rootCmd.AddCommand(serveCmd)
}
