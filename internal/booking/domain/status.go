package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Status is an appointment lifecycle state.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusCanceled   Status = "CANCELED"
	StatusNoShow     Status = "NO_SHOW"
)

const (
	VocabularyExtended    = "extended"
	VocabularyAppointment = "appointment"
)

// TransitionError names the rejected move. It matches ErrInvalidTransition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// StatusVocabulary is a set of statuses together with the moves allowed
// between them. All transition checks go through Transition.
type StatusVocabulary struct {
	name        string
	cancelled   Status
	statuses    []Status
	transitions map[Status][]Status
}

var extendedVocabulary = &StatusVocabulary{
	name:      VocabularyExtended,
	cancelled: StatusCancelled,
	statuses: []Status{
		StatusScheduled, StatusConfirmed, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusNoShow,
	},
	transitions: map[Status][]Status{
		StatusScheduled:  {StatusConfirmed, StatusInProgress, StatusCompleted, StatusNoShow, StatusCancelled},
		StatusConfirmed:  {StatusInProgress, StatusCompleted, StatusNoShow, StatusCancelled},
		StatusInProgress: {StatusCompleted, StatusCancelled},
		StatusNoShow:     {StatusScheduled},
	},
}

var appointmentVocabulary = &StatusVocabulary{
	name:      VocabularyAppointment,
	cancelled: StatusCanceled,
	statuses: []Status{
		StatusScheduled, StatusConfirmed, StatusCanceled,
		StatusCompleted, StatusNoShow,
	},
	transitions: map[Status][]Status{
		StatusScheduled: {StatusConfirmed, StatusCompleted, StatusNoShow, StatusCanceled},
		StatusConfirmed: {StatusCompleted, StatusNoShow, StatusCanceled},
		StatusNoShow:    {StatusScheduled},
	},
}

// ExtendedVocabulary has six states including IN_PROGRESS and spells CANCELLED.
func ExtendedVocabulary() *StatusVocabulary { return extendedVocabulary }

// AppointmentVocabulary has five states and spells CANCELED.
func AppointmentVocabulary() *StatusVocabulary { return appointmentVocabulary }

// Vocabularies lists every vocabulary a stored appointment may use.
func Vocabularies() []*StatusVocabulary {
	return []*StatusVocabulary{extendedVocabulary, appointmentVocabulary}
}

// VocabularyByName resolves "extended" or "appointment".
func VocabularyByName(name string) (*StatusVocabulary, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case VocabularyExtended, "":
		return extendedVocabulary, nil
	case VocabularyAppointment:
		return appointmentVocabulary, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVocabulary, name)
}

func (v *StatusVocabulary) Name() string { return v.name }

// Initial is the status every new appointment starts in.
func (v *StatusVocabulary) Initial() Status { return StatusScheduled }

// Cancelled is this vocabulary's spelling of the cancelled state.
func (v *StatusVocabulary) Cancelled() Status { return v.cancelled }

// Statuses lists the vocabulary in declaration order.
func (v *StatusVocabulary) Statuses() []Status { return slices.Clone(v.statuses) }

// Contains reports whether s belongs to the vocabulary.
func (v *StatusVocabulary) Contains(s Status) bool {
	return slices.Contains(v.statuses, s)
}

// Parse accepts a status name in any case.
func (v *StatusVocabulary) Parse(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !v.Contains(status) {
		return "", fmt.Errorf("%w: %q in %s vocabulary", ErrUnknownStatus, s, v.name)
	}
	return status, nil
}

// IsTerminal reports whether no transition leaves s.
func (v *StatusVocabulary) IsTerminal(s Status) bool {
	return len(v.transitions[s]) == 0
}

// CanTransition reports whether from -> to is allowed.
func (v *StatusVocabulary) CanTransition(from, to Status) bool {
	return slices.Contains(v.transitions[from], to)
}

// Allowed returns the statuses reachable from s in one step.
func (v *StatusVocabulary) Allowed(from Status) []Status {
	return slices.Clone(v.transitions[from])
}

// Transition validates from -> to and returns to, or a *TransitionError.
func (v *StatusVocabulary) Transition(from, to Status) (Status, error) {
	if !v.Contains(from) || !v.Contains(to) || !v.CanTransition(from, to) {
		return from, &TransitionError{From: from, To: to}
	}
	return to, nil
}
