package domain

import "errors"

var (
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrUnknownStatus          = errors.New("unknown status")
	ErrUnknownVocabulary      = errors.New("unknown status vocabulary")
	ErrUnknownConflictPolicy  = errors.New("unknown conflict policy")
	ErrInvalidInterval        = errors.New("interval end must be after start")
	ErrAppointmentNotFound    = errors.New("appointment not found")
	ErrCannotReschedule       = errors.New("appointment can no longer be rescheduled")
	ErrSlotUnavailable        = errors.New("time slot is not available")
	ErrOutsideOpeningHours    = errors.New("appointment is outside opening hours")
	ErrConcurrentModification = errors.New("appointment was modified concurrently")
	ErrMissingShopID          = errors.New("shop id is required")
	ErrMissingPetID           = errors.New("pet id is required")
	ErrMissingService         = errors.New("service is required")
)
