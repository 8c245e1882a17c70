package leads

import "errors"

var (
	// ErrSessionNotFound is returned when no session exists for an id
	ErrSessionNotFound = errors.New("leads: session not found")

	// ErrInvalidSessionID is returned when a session is saved without an id
	ErrInvalidSessionID = errors.New("leads: session id is required")

	// ErrAppointmentExists is returned when a ticket already has an appointment
	ErrAppointmentExists = errors.New("leads: appointment already recorded")

	// ErrUnsupportedSchema is returned for stored sessions written by a newer release
	ErrUnsupportedSchema = errors.New("leads: unsupported session schema version")
)
