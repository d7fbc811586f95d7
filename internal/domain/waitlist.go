package domain

import (
	"context"
	"time"
)

// WaitlistEntry is an append-only overflow record created when a going RSVP
// is rejected for capacity.
// swagger:model WaitlistEntry
type WaitlistEntry struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Name      string    `json:"name"`
	Whatsapp  string    `json:"whatsapp"`
	CreatedAt time.Time `json:"created_at"`
}

// NewWaitlistEntry returns a new WaitlistEntry. ID is set by the repository on create.
func NewWaitlistEntry(eventID, name, whatsapp string, createdAt time.Time) *WaitlistEntry {
	return &WaitlistEntry{
		EventID:   eventID,
		Name:      name,
		Whatsapp:  whatsapp,
		CreatedAt: createdAt,
	}
}

// WaitlistRepository defines storage operations for waitlist entries.
type WaitlistRepository interface {
	Create(ctx context.Context, entry *WaitlistEntry) error
	// Exists reports whether the event already has an entry with the same
	// name or the same whatsapp contact (soft duplicate guard).
	Exists(ctx context.Context, eventID, name, whatsapp string) (bool, error)
	ListByEventID(ctx context.Context, eventID string) ([]*WaitlistEntry, error)
}
