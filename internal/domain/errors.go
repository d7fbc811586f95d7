package domain

import "errors"

// Sentinel errors shared across the participation engine. Services return
// these (possibly wrapped) and controllers map them to API error codes.
var (
	ErrNotFound               = errors.New("not found")
	ErrDeadlineExpired        = errors.New("confirmation deadline has passed")
	ErrCapacityExceeded       = errors.New("event is at capacity")
	ErrDuplicateWaitlistEntry = errors.New("already on the waitlist")
	ErrCheckInDisabled        = errors.New("check-in is not required for this event")
	ErrWindowNotOpen          = errors.New("check-in window has not opened yet")
	ErrWindowClosed           = errors.New("check-in window has closed")
	ErrNotConfirmed           = errors.New("no confirmed rsvp for this participant")
	ErrPollInactive           = errors.New("poll is not active")
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrInvalidInput           = errors.New("invalid input")
)
