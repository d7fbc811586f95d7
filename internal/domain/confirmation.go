package domain

import (
	"context"
	"time"
)

// RSVPStatus is a participant's declared intent for an event.
type RSVPStatus string

const (
	RSVPGoing    RSVPStatus = "going"
	RSVPMaybe    RSVPStatus = "maybe"
	RSVPDeclined RSVPStatus = "declined"
)

// ValidRSVPStatus reports whether s is one of going/maybe/declined.
func ValidRSVPStatus(s RSVPStatus) bool {
	return s == RSVPGoing || s == RSVPMaybe || s == RSVPDeclined
}

// Confirmation is a participant's RSVP record for one event. There is at most
// one row per (event_id, participant_email); repeat RSVPs mutate it in place.
// swagger:model Confirmation
type Confirmation struct {
	ID               string     `json:"id"`
	EventID          string     `json:"event_id"`
	ParticipantEmail string     `json:"participant_email"`
	ParticipantName  string     `json:"participant_name"`
	Status           RSVPStatus `json:"status"`
	CheckedIn        bool       `json:"checked_in"`
	CheckInTime      *time.Time `json:"check_in_time,omitempty"`
	NoShow           bool       `json:"no_show"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewConfirmation returns a new Confirmation. ID is set by the repository on upsert.
func NewConfirmation(eventID, email, name string, status RSVPStatus, createdAt, updatedAt time.Time) *Confirmation {
	return &Confirmation{
		EventID:          eventID,
		ParticipantEmail: email,
		ParticipantName:  name,
		Status:           status,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}
}

// ConfirmationCounts aggregates an event's confirmations for organizer views
// and for the rsvp:updated broadcast payload.
type ConfirmationCounts struct {
	Going     int `json:"going"`
	Maybe     int `json:"maybe"`
	Declined  int `json:"declined"`
	CheckedIn int `json:"checked_in"`
}

// ConfirmationRepository defines storage operations for confirmations.
type ConfirmationRepository interface {
	// Upsert inserts the confirmation or, if a row exists for the same
	// (event_id, participant_email), updates name and status in place.
	Upsert(ctx context.Context, c *Confirmation) error
	GetByID(ctx context.Context, id string) (*Confirmation, error)
	GetByEventAndEmail(ctx context.Context, eventID, email string) (*Confirmation, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Confirmation, error)
	// CountGoing counts confirmations with status going for the event,
	// excluding any row for excludeEmail (a participant already going does
	// not consume a new slot on re-submit).
	CountGoing(ctx context.Context, eventID, excludeEmail string) (int, error)
	SetCheckedIn(ctx context.Context, id string, checkedIn bool, checkInTime *time.Time) error
	// ReleaseNoShows marks every going, not-checked-in confirmation of the
	// event as declined with no_show set, returning how many rows changed.
	ReleaseNoShows(ctx context.Context, eventID string) (int, error)
}

// RSVPService admits or rejects RSVPs against the event's participant limit
// and redirects overflow to the waitlist.
type RSVPService interface {
	// AdmitRSVP upserts the participant's confirmation. A going RSVP is
	// checked against the participant limit and fails with
	// ErrCapacityExceeded when the event is full.
	AdmitRSVP(ctx context.Context, eventID, email, name string, status RSVPStatus) (*Confirmation, error)
	JoinWaitlist(ctx context.Context, eventID, name, contact string) (*WaitlistEntry, error)
	ListConfirmations(ctx context.Context, eventID string) ([]*Confirmation, *ConfirmationCounts, error)
	ListWaitlist(ctx context.Context, eventID string) ([]*WaitlistEntry, error)
}
