package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	availabilityCommands "github.com/felixgeelhaar/groomly/internal/availability/application/commands"
	availabilityQueries "github.com/felixgeelhaar/groomly/internal/availability/application/queries"
	availabilityDomain "github.com/felixgeelhaar/groomly/internal/availability/domain"
)

// PUT /api/v1/shops/{shopID}/hours
func (s *Server) setHours(w http.ResponseWriter, r *http.Request) {
	shopID, ok := s.pathID(w, r, "shopID")
	if !ok {
		return
	}
	var req SetHoursRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, badRequest("invalid request body"))
		return
	}

	windows := make([]availabilityCommands.WindowInput, 0, len(req.Windows))
	for _, win := range req.Windows {
		windows = append(windows, availabilityCommands.WindowInput{
			Day:   time.Weekday(win.Day),
			Start: win.Start,
			End:   win.End,
		})
	}
	result, err := s.handlers.SetShopHours.Handle(r.Context(), availabilityCommands.SetShopHoursCommand{
		ShopID:   shopID,
		Timezone: req.Timezone,
		Windows:  windows,
	})
	if err != nil {
		s.fail(w, r, "set hours", err)
		return
	}
	s.flush(r.Context())

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	s.respondHours(w, r, shopID, status)
}

// GET /api/v1/shops/{shopID}/hours
func (s *Server) getHours(w http.ResponseWriter, r *http.Request) {
	shopID, ok := s.pathID(w, r, "shopID")
	if !ok {
		return
	}
	s.respondHours(w, r, shopID, http.StatusOK)
}

func (s *Server) respondHours(w http.ResponseWriter, r *http.Request, shopID uuid.UUID, status int) {
	dto, err := s.handlers.Availability.GetShopHours(r.Context(), availabilityQueries.GetShopHoursQuery{ShopID: shopID})
	if err != nil {
		s.fail(w, r, "get hours", err)
		return
	}
	writeJSON(w, status, fromShopHours(dto))
}

// POST /api/v1/shops/{shopID}/closures
func (s *Server) addClosure(w http.ResponseWriter, r *http.Request) {
	shopID, ok := s.pathID(w, r, "shopID")
	if !ok {
		return
	}
	var req ClosureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, badRequest("invalid request body"))
		return
	}
	date, err := availabilityDomain.ParseDate(req.Date)
	if err != nil {
		writeError(w, badRequest("date must be YYYY-MM-DD"))
		return
	}

	err = s.handlers.Closures.Add(r.Context(), availabilityCommands.AddClosureCommand{
		ShopID: shopID,
		Date:   date,
		Reason: req.Reason,
	})
	if err != nil {
		s.fail(w, r, "add closure", err)
		return
	}
	s.flush(r.Context())
	s.respondHours(w, r, shopID, http.StatusOK)
}

// DELETE /api/v1/shops/{shopID}/closures/{date}
func (s *Server) removeClosure(w http.ResponseWriter, r *http.Request) {
	shopID, ok := s.pathID(w, r, "shopID")
	if !ok {
		return
	}
	date, err := availabilityDomain.ParseDate(mux.Vars(r)["date"])
	if err != nil {
		writeError(w, badRequest("date must be YYYY-MM-DD"))
		return
	}

	err = s.handlers.Closures.Remove(r.Context(), availabilityCommands.RemoveClosureCommand{
		ShopID: shopID,
		Date:   date,
	})
	if err != nil {
		s.fail(w, r, "remove closure", err)
		return
	}
	s.flush(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/shops/{shopID}/open?at=RFC3339
func (s *Server) isOpen(w http.ResponseWriter, r *http.Request) {
	shopID, ok := s.pathID(w, r, "shopID")
	if !ok {
		return
	}
	at, ok := queryTime(w, r, "at", time.Now())
	if !ok {
		return
	}

	res, err := s.handlers.Availability.IsOpen(r.Context(), availabilityQueries.IsOpenQuery{ShopID: shopID, At: at})
	if err != nil {
		s.fail(w, r, "is open", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"open":       res.Open,
		"closed_day": res.ClosedDay,
		"local_time": res.LocalTime.Format(time.RFC3339),
	})
}

// GET /api/v1/shops/{shopID}/next-opening?from=RFC3339&horizon=days
func (s *Server) nextOpening(w http.ResponseWriter, r *http.Request) {
	shopID, ok := s.pathID(w, r, "shopID")
	if !ok {
		return
	}
	from, ok := queryTime(w, r, "from", time.Now())
	if !ok {
		return
	}
	horizon := 0
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, badRequest("horizon must be a number of days"))
			return
		}
		horizon = n
	}

	res, err := s.handlers.Availability.NextOpening(r.Context(), availabilityQueries.NextOpeningQuery{
		ShopID:      shopID,
		From:        from,
		HorizonDays: horizon,
	})
	if err != nil {
		s.fail(w, r, "next opening", err)
		return
	}
	body := map[string]any{"found": res.Found, "horizon_days": res.HorizonDays}
	if res.Found {
		body["at"] = res.At.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeError(w, badRequest("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func queryTime(w http.ResponseWriter, r *http.Request, name string, def time.Time) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, badRequest(name+" must be RFC 3339"))
		return time.Time{}, false
	}
	return t, true
}

// fail logs and writes the mapped error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), op+" failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.WarnContext(r.Context(), op+" rejected", "path", r.URL.Path, "error", err)
	}
	writeError(w, apiErr)
}
