package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	bookingCommands "github.com/felixgeelhaar/groomly/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/groomly/internal/booking/application/queries"
	bookingDomain "github.com/felixgeelhaar/groomly/internal/booking/domain"
)

// POST /api/v1/appointments
func (s *Server) bookAppointment(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, badRequest("invalid request body"))
		return
	}

	result, err := s.handlers.Book.Handle(r.Context(), bookingCommands.BookAppointmentCommand{
		ShopID:     req.ShopID,
		PetID:      req.PetID,
		CustomerID: req.CustomerID,
		Service:    req.Service,
		Start:      req.Start,
		End:        req.End,
		Notes:      req.Notes,
	})
	if err != nil {
		s.failBooking(w, r, "book appointment", err)
		return
	}
	s.flush(r.Context())
	s.respondAppointment(w, r, result.AppointmentID, http.StatusCreated)
}

// GET /api/v1/appointments/{id}
func (s *Server) getAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	s.respondAppointment(w, r, id, http.StatusOK)
}

// POST /api/v1/appointments/{id}/transitions
func (s *Server) transitionAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req TransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, badRequest("invalid request body"))
		return
	}
	action, err := bookingCommands.ParseAction(req.Action)
	if err != nil {
		s.fail(w, r, "transition appointment", err)
		return
	}

	_, err = s.handlers.Transition.Handle(r.Context(), bookingCommands.TransitionAppointmentCommand{
		AppointmentID: id,
		Action:        action,
		Reason:        req.Reason,
	})
	if err != nil {
		s.failBooking(w, r, "transition appointment", err)
		return
	}
	s.flush(r.Context())
	s.respondAppointment(w, r, id, http.StatusOK)
}

// POST /api/v1/appointments/{id}/reschedule
func (s *Server) rescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req RescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, badRequest("invalid request body"))
		return
	}

	_, err := s.handlers.Reschedule.Handle(r.Context(), bookingCommands.RescheduleAppointmentCommand{
		AppointmentID: id,
		Start:         req.Start,
		End:           req.End,
	})
	if err != nil {
		s.failBooking(w, r, "reschedule appointment", err)
		return
	}
	s.flush(r.Context())
	s.respondAppointment(w, r, id, http.StatusOK)
}

// GET /api/v1/shops/{shopID}/appointments?from=&to=&status=
func (s *Server) listAppointments(w http.ResponseWriter, r *http.Request) {
	shopID, ok := s.pathID(w, r, "shopID")
	if !ok {
		return
	}
	now := time.Now().UTC()
	from, ok := queryTime(w, r, "from", now.Truncate(24*time.Hour))
	if !ok {
		return
	}
	to, ok := queryTime(w, r, "to", from.AddDate(0, 0, 1))
	if !ok {
		return
	}

	appts, err := s.handlers.Appointments.List(r.Context(), bookingQueries.ListAppointmentsQuery{
		ShopID: shopID,
		From:   from,
		To:     to,
		Status: bookingDomain.Status(strings.ToUpper(r.URL.Query().Get("status"))),
	})
	if err != nil {
		s.fail(w, r, "list appointments", err)
		return
	}
	out := make([]appointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, fromAppointment(&appts[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": out})
}

// GET /api/v1/shops/{shopID}/conflicts?start=&end=&exclude=
func (s *Server) checkConflicts(w http.ResponseWriter, r *http.Request) {
	shopID, ok := s.pathID(w, r, "shopID")
	if !ok {
		return
	}
	start, ok := queryTime(w, r, "start", time.Time{})
	if !ok {
		return
	}
	end, ok := queryTime(w, r, "end", time.Time{})
	if !ok {
		return
	}
	var exclude *uuid.UUID
	if raw := r.URL.Query().Get("exclude"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, badRequest("invalid exclude"))
			return
		}
		exclude = &id
	}

	res, err := s.handlers.CheckConflicts.Handle(r.Context(), bookingQueries.CheckConflictsQuery{
		ShopID:    shopID,
		Start:     start,
		End:       end,
		ExcludeID: exclude,
	})
	if err != nil {
		s.fail(w, r, "check conflicts", err)
		return
	}
	conflicts := make([]conflictResponse, 0, len(res.Conflicts))
	for _, c := range res.Conflicts {
		conflicts = append(conflicts, conflictResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": res.Available, "conflicts": conflicts})
}

func (s *Server) respondAppointment(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	dto, err := s.handlers.Appointments.Get(r.Context(), bookingQueries.GetAppointmentQuery{AppointmentID: id})
	if err != nil {
		s.fail(w, r, "get appointment", err)
		return
	}
	writeJSON(w, status, fromAppointment(dto))
}

// failBooking reports the blocking appointments along with a slot conflict.
func (s *Server) failBooking(w http.ResponseWriter, r *http.Request, op string, err error) {
	var conflict *bookingDomain.SlotConflictError
	if errors.As(err, &conflict) {
		s.logger.WarnContext(r.Context(), op+" rejected", "conflicts", len(conflict.Conflicts))
		writeJSON(w, http.StatusConflict, slotConflictBody{
			Code:      "slot_unavailable",
			Message:   err.Error(),
			Conflicts: fromBookedIntervals(conflict.Conflicts),
		})
		return
	}
	s.fail(w, r, op, err)
}
