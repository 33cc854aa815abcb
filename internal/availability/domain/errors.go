package domain

import "errors"

var (
	ErrInvalidTime            = errors.New("time must be HH:MM in 24-hour range")
	ErrInvalidOrdering        = errors.New("end time must be after start time")
	ErrInvalidDay             = errors.New("day of week must be between 0 and 6")
	ErrEmptySet               = errors.New("availability must contain at least one time window")
	ErrInvalidException       = errors.New("exception date is invalid")
	ErrOverlappingWindows     = errors.New("time windows on the same day overlap")
	ErrInvalidTimezone        = errors.New("unknown timezone")
	ErrShopHoursNotFound      = errors.New("shop hours not found")
	ErrConcurrentModification = errors.New("shop hours were modified concurrently")
	ErrMissingShopID          = errors.New("shop id is required")
)
