package domain

import (
	"context"
	"time"
)

// Defaults applied when an event has no explicit check-in window settings.
const (
	DefaultCheckInWindowHours     = 4
	DefaultCheckInDeadlineMinutes = 30
)

// CheckInState classifies "now" against an event's check-in window.
type CheckInState string

const (
	CheckInDisabled   CheckInState = "disabled"
	CheckInNotYetOpen CheckInState = "notYetOpen"
	CheckInOpen       CheckInState = "open"
	CheckInClosed     CheckInState = "closed"
)

// CheckInWindow is the computed window for one event at one instant.
type CheckInWindow struct {
	State    CheckInState `json:"state"`
	OpensAt  time.Time    `json:"opens_at"`
	ClosesAt time.Time    `json:"closes_at"`
}

// CheckInWindowFor computes the event's check-in window relative to now.
// The window opens CheckInWindowHours before the event start and closes
// CheckInDeadlineMinutes before it; the closing instant itself is outside
// the window.
func CheckInWindowFor(event *Event, now time.Time) CheckInWindow {
	if !event.RequireCheckIn {
		return CheckInWindow{State: CheckInDisabled}
	}
	hours := event.CheckInWindowHours
	if hours <= 0 {
		hours = DefaultCheckInWindowHours
	}
	minutes := event.CheckInDeadlineMinutes
	if minutes <= 0 {
		minutes = DefaultCheckInDeadlineMinutes
	}
	opensAt := event.StartAt.Add(-time.Duration(hours) * time.Hour)
	closesAt := event.StartAt.Add(-time.Duration(minutes) * time.Minute)

	w := CheckInWindow{OpensAt: opensAt, ClosesAt: closesAt}
	switch {
	case now.Before(opensAt):
		w.State = CheckInNotYetOpen
	case now.Before(closesAt):
		w.State = CheckInOpen
	default:
		w.State = CheckInClosed
	}
	return w
}

// CheckInService handles self check-in inside the window, the organizer's
// unrestricted toggle, and no-show release after the window closes.
type CheckInService interface {
	// CheckIn records a self check-in for the going participant. Fails with
	// ErrWindowNotOpen/ErrWindowClosed outside the window and
	// ErrNotConfirmed when no going confirmation exists.
	CheckIn(ctx context.Context, eventID, participantEmail string) (*Confirmation, error)
	// ToggleCheckIn flips a confirmation's checked-in flag with no window
	// restriction. Organizer-only.
	ToggleCheckIn(ctx context.Context, eventID, confirmationID string) (*Confirmation, error)
	// SweepNoShows releases no-shows for every event whose window has
	// closed. Failures on one event are logged and do not stop the sweep.
	SweepNoShows(ctx context.Context) (int, error)
	// ManualRelease releases no-shows for one event on organizer demand,
	// returning the count released.
	ManualRelease(ctx context.Context, eventID string) (int, error)
}
