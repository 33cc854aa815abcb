package api

import (
	"errors"
	"fmt"
	"net/http"

	availabilityDomain "github.com/felixgeelhaar/groomly/internal/availability/domain"
	bookingCommands "github.com/felixgeelhaar/groomly/internal/booking/application/commands"
	bookingDomain "github.com/felixgeelhaar/groomly/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/groomly/internal/shared/application"
)

// APIError represents an API error.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common API errors
var (
	ErrBadRequest = &APIError{
		Status:  http.StatusBadRequest,
		Code:    "bad_request",
		Message: "Invalid request",
	}
	ErrNotFound = &APIError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "Resource not found",
	}
	ErrInternalServer = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "Internal server error",
	}
)

var badRequestErrors = []error{
	availabilityDomain.ErrInvalidTime,
	availabilityDomain.ErrInvalidOrdering,
	availabilityDomain.ErrInvalidDay,
	availabilityDomain.ErrEmptySet,
	availabilityDomain.ErrInvalidException,
	availabilityDomain.ErrOverlappingWindows,
	availabilityDomain.ErrInvalidTimezone,
	availabilityDomain.ErrMissingShopID,
	bookingDomain.ErrInvalidInterval,
	bookingDomain.ErrUnknownStatus,
	bookingDomain.ErrMissingShopID,
	bookingDomain.ErrMissingPetID,
	bookingDomain.ErrMissingService,
	bookingCommands.ErrUnknownAction,
}

// toAPIError maps a use case error to a response.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, bookingDomain.ErrAppointmentNotFound),
		errors.Is(err, availabilityDomain.ErrShopHoursNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "not_found", Message: err.Error()}
	case errors.Is(err, bookingDomain.ErrSlotUnavailable):
		return &APIError{Status: http.StatusConflict, Code: "slot_unavailable", Message: err.Error()}
	case errors.Is(err, bookingDomain.ErrInvalidTransition),
		errors.Is(err, bookingDomain.ErrCannotReschedule):
		return &APIError{Status: http.StatusConflict, Code: "invalid_transition", Message: err.Error()}
	case errors.Is(err, bookingDomain.ErrConcurrentModification),
		errors.Is(err, availabilityDomain.ErrConcurrentModification),
		errors.Is(err, sharedApplication.ErrLockNotAcquired):
		return &APIError{Status: http.StatusConflict, Code: "concurrent_modification", Message: err.Error()}
	case errors.Is(err, bookingDomain.ErrOutsideOpeningHours):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "outside_opening_hours", Message: err.Error()}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return &APIError{Status: http.StatusBadRequest, Code: "bad_request", Message: err.Error()}
		}
	}
	return ErrInternalServer
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, err *APIError) {
	writeJSON(w, err.Status, err)
}

func badRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "bad_request", Message: message}
}
