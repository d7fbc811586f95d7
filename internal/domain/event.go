package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle state of an event. Events are owned by the
// external CRUD layer; this subsystem only reads them.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusLive      EventStatus = "live"
	EventStatusEnded     EventStatus = "ended"
)

// Event carries the metadata the participation engine needs: capacity,
// confirmation deadline, and check-in window settings.
// swagger:model Event
type Event struct {
	ID                     string      `json:"id"`
	Name                   string      `json:"name"`
	OwnerID                string      `json:"owner_id"`
	StartAt                time.Time   `json:"start_at"`
	Status                 EventStatus `json:"status"`
	ParticipantLimit       int         `json:"participant_limit"` // <= 0 means unlimited
	ConfirmationDeadline   *time.Time  `json:"confirmation_deadline,omitempty"`
	RequireCheckIn         bool        `json:"require_check_in"`
	CheckInWindowHours     int         `json:"check_in_window_hours"`
	CheckInDeadlineMinutes int         `json:"check_in_deadline_minutes"`
	CreatedAt              time.Time   `json:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at"`
}

// EventRepository defines the read-only view of events this subsystem gets.
// Create/update/delete belong to the external event CRUD layer.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	// ListCheckInSweepCandidates returns events with check-in required, not
	// yet ended, whose check-in window closed at or before now.
	ListCheckInSweepCandidates(ctx context.Context, now time.Time) ([]*Event, error)
}
