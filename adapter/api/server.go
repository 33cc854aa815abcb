// Package api serves the booking and availability use cases over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	availabilityCommands "github.com/felixgeelhaar/groomly/internal/availability/application/commands"
	availabilityQueries "github.com/felixgeelhaar/groomly/internal/availability/application/queries"
	bookingCommands "github.com/felixgeelhaar/groomly/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/groomly/internal/booking/application/queries"
	"github.com/felixgeelhaar/groomly/pkg/observability"
)

// Handlers are the use cases the API exposes.
type Handlers struct {
	SetShopHours   *availabilityCommands.SetShopHoursHandler
	Closures       *availabilityCommands.ClosureHandler
	Availability   *availabilityQueries.AvailabilityHandler
	Book           *bookingCommands.BookAppointmentHandler
	Transition     *bookingCommands.TransitionAppointmentHandler
	Reschedule     *bookingCommands.RescheduleAppointmentHandler
	Appointments   *bookingQueries.AppointmentsHandler
	CheckConflicts *bookingQueries.CheckConflictsHandler

	// Flush runs after each successful write when set.
	Flush func(ctx context.Context)
}

// Server is the HTTP API server.
type Server struct {
	router   *mux.Router
	server   *http.Server
	logger   *slog.Logger
	handlers Handlers
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "127.0.0.1:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, handlers Handlers, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:   mux.NewRouter(),
		logger:   logger,
		handlers: handlers,
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(s.correlation)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	// Opening hours
	v1.HandleFunc("/shops/{shopID}/hours", s.setHours).Methods(http.MethodPut)
	v1.HandleFunc("/shops/{shopID}/hours", s.getHours).Methods(http.MethodGet)
	v1.HandleFunc("/shops/{shopID}/closures", s.addClosure).Methods(http.MethodPost)
	v1.HandleFunc("/shops/{shopID}/closures/{date}", s.removeClosure).Methods(http.MethodDelete)
	v1.HandleFunc("/shops/{shopID}/open", s.isOpen).Methods(http.MethodGet)
	v1.HandleFunc("/shops/{shopID}/next-opening", s.nextOpening).Methods(http.MethodGet)

	// Appointments
	v1.HandleFunc("/shops/{shopID}/appointments", s.listAppointments).Methods(http.MethodGet)
	v1.HandleFunc("/shops/{shopID}/conflicts", s.checkConflicts).Methods(http.MethodGet)
	v1.HandleFunc("/appointments", s.bookAppointment).Methods(http.MethodPost)
	v1.HandleFunc("/appointments/{id}", s.getAppointment).Methods(http.MethodGet)
	v1.HandleFunc("/appointments/{id}/transitions", s.transitionAppointment).Methods(http.MethodPost)
	v1.HandleFunc("/appointments/{id}/reschedule", s.rescheduleAppointment).Methods(http.MethodPost)
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// correlation tags each request context with a correlation ID.
func (s *Server) correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Correlation-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := observability.WithCorrelationID(r.Context(), id)
		w.Header().Set("X-Correlation-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) flush(ctx context.Context) {
	if s.handlers.Flush != nil {
		s.handlers.Flush(ctx)
	}
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting groomly API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down groomly API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
