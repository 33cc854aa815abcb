package cli

import (
	"context"
	"time"

	availabilityCommands "github.com/felixgeelhaar/groomly/internal/availability/application/commands"
	availabilityQueries "github.com/felixgeelhaar/groomly/internal/availability/application/queries"
	bookingCommands "github.com/felixgeelhaar/groomly/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/groomly/internal/booking/application/queries"
	"github.com/felixgeelhaar/groomly/pkg/observability"
	"github.com/google/uuid"
)

// App holds the CLI application dependencies.
type App struct {
	// Availability
	SetShopHoursHandler *availabilityCommands.SetShopHoursHandler
	ClosureHandler      *availabilityCommands.ClosureHandler
	AvailabilityHandler *availabilityQueries.AvailabilityHandler

	// Booking
	BookAppointmentHandler       *bookingCommands.BookAppointmentHandler
	TransitionAppointmentHandler *bookingCommands.TransitionAppointmentHandler
	RescheduleAppointmentHandler *bookingCommands.RescheduleAppointmentHandler
	AppointmentsHandler          *bookingQueries.AppointmentsHandler
	CheckConflictsHandler        *bookingQueries.CheckConflictsHandler

	// Location interprets times entered without a UTC offset.
	Location *time.Location
	// DefaultTimezone is used by "hours set" when --timezone is omitted.
	DefaultTimezone string
	// ActorID is recorded on emitted events.
	ActorID uuid.UUID

	flush       func(ctx context.Context)
	healthCheck func(ctx context.Context) observability.OverallHealth
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	setShopHoursHandler *availabilityCommands.SetShopHoursHandler,
	closureHandler *availabilityCommands.ClosureHandler,
	availabilityHandler *availabilityQueries.AvailabilityHandler,
	bookAppointmentHandler *bookingCommands.BookAppointmentHandler,
	transitionAppointmentHandler *bookingCommands.TransitionAppointmentHandler,
	rescheduleAppointmentHandler *bookingCommands.RescheduleAppointmentHandler,
	appointmentsHandler *bookingQueries.AppointmentsHandler,
	checkConflictsHandler *bookingQueries.CheckConflictsHandler,
) *App {
	return &App{
		SetShopHoursHandler:          setShopHoursHandler,
		ClosureHandler:               closureHandler,
		AvailabilityHandler:          availabilityHandler,
		BookAppointmentHandler:       bookAppointmentHandler,
		TransitionAppointmentHandler: transitionAppointmentHandler,
		RescheduleAppointmentHandler: rescheduleAppointmentHandler,
		AppointmentsHandler:          appointmentsHandler,
		CheckConflictsHandler:        checkConflictsHandler,
		Location:                     time.UTC,
		DefaultTimezone:              "UTC",
	}
}

// SetLocation updates the input time zone.
func (a *App) SetLocation(loc *time.Location, name string) {
	a.Location = loc
	a.DefaultTimezone = name
}

// SetActorID updates the actor recorded on events.
func (a *App) SetActorID(id uuid.UUID) {
	a.ActorID = id
}

// SetHealthCheck registers the dependency checks run by the health command.
func (a *App) SetHealthCheck(fn func(ctx context.Context) observability.OverallHealth) {
	a.healthCheck = fn
}

// SetFlusher registers the function run after each successful write.
func (a *App) SetFlusher(fn func(ctx context.Context)) {
	a.flush = fn
}

// Flush delivers pending events when a flusher is registered.
func (a *App) Flush(ctx context.Context) {
	if a.flush != nil {
		a.flush(ctx)
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
