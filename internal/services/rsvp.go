package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"liveparticipation/internal/domain"
)

type rsvpService struct {
	eventRepo        domain.EventRepository
	confirmationRepo domain.ConfirmationRepository
	waitlistRepo     domain.WaitlistRepository
	broadcaster      domain.Broadcaster
	emailService     domain.EmailService
	logger           *slog.Logger
	admissionLocks   *keyedMutex
	contextTimeout   time.Duration
}

// NewRSVPService creates the capacity gate with the given repositories.
// Admission for an event is serialized through an in-process per-event lock
// so the count-then-upsert sequence cannot overbook under concurrent requests.
func NewRSVPService(
	eventRepo domain.EventRepository,
	confirmationRepo domain.ConfirmationRepository,
	waitlistRepo domain.WaitlistRepository,
	broadcaster domain.Broadcaster,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RSVPService {
	return &rsvpService{
		eventRepo:        eventRepo,
		confirmationRepo: confirmationRepo,
		waitlistRepo:     waitlistRepo,
		broadcaster:      broadcaster,
		emailService:     emailService,
		logger:           logger,
		admissionLocks:   newKeyedMutex(),
		contextTimeout:   timeout,
	}
}

func (s *rsvpService) AdmitRSVP(ctx context.Context, eventID, email, name string, status domain.RSVPStatus) (*domain.Confirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}
	if !domain.ValidRSVPStatus(status) {
		return nil, domain.ErrInvalidInput
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.ConfirmationDeadline != nil && time.Now().After(*event.ConfirmationDeadline) {
		return nil, domain.ErrDeadlineExpired
	}

	now := time.Now()
	confirmation := domain.NewConfirmation(eventID, email, name, status, now, now)

	if status == domain.RSVPGoing && event.ParticipantLimit > 0 {
		// Count and upsert under the event's admission lock. The count
		// excludes this participant's own row: someone already going is
		// not a new slot.
		lock := s.admissionLocks.Lock(eventID)
		defer lock.Unlock()

		count, err := s.confirmationRepo.CountGoing(ctx, eventID, email)
		if err != nil {
			return nil, fmt.Errorf("count going confirmations: %w", err)
		}
		if count >= event.ParticipantLimit {
			return nil, domain.ErrCapacityExceeded
		}
		if err := s.confirmationRepo.Upsert(ctx, confirmation); err != nil {
			return nil, fmt.Errorf("upsert confirmation: %w", err)
		}
	} else {
		if err := s.confirmationRepo.Upsert(ctx, confirmation); err != nil {
			return nil, fmt.Errorf("upsert confirmation: %w", err)
		}
	}

	s.broadcastCounts(ctx, eventID)

	if status == domain.RSVPGoing && s.emailService != nil {
		data := &domain.RSVPConfirmedEmailData{
			Email:     email,
			Name:      name,
			EventName: event.Name,
			StartAt:   event.StartAt,
		}
		// Best-effort notification; never gates the RSVP response.
		go func() {
			if err := s.emailService.SendRSVPConfirmed(context.Background(), data); err != nil {
				s.logger.Warn("rsvp confirmation email failed", "event_id", eventID, "err", err)
			}
		}()
	}

	return confirmation, nil
}

func (s *rsvpService) JoinWaitlist(ctx context.Context, eventID, name, contact string) (*domain.WaitlistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	contact = strings.TrimSpace(contact)
	if name == "" || contact == "" {
		return nil, domain.ErrInvalidInput
	}

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	exists, err := s.waitlistRepo.Exists(ctx, eventID, name, contact)
	if err != nil {
		return nil, fmt.Errorf("check waitlist duplicates: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateWaitlistEntry
	}

	entry := domain.NewWaitlistEntry(eventID, name, contact, time.Now())
	if err := s.waitlistRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create waitlist entry: %w", err)
	}
	return entry, nil
}

func (s *rsvpService) ListConfirmations(ctx context.Context, eventID string) ([]*domain.Confirmation, *domain.ConfirmationCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}

	confirmations, err := s.confirmationRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("list confirmations: %w", err)
	}
	return confirmations, countConfirmations(confirmations), nil
}

func (s *rsvpService) ListWaitlist(ctx context.Context, eventID string) ([]*domain.WaitlistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	entries, err := s.waitlistRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return entries, nil
}

func countConfirmations(confirmations []*domain.Confirmation) *domain.ConfirmationCounts {
	counts := &domain.ConfirmationCounts{}
	for _, c := range confirmations {
		switch c.Status {
		case domain.RSVPGoing:
			counts.Going++
		case domain.RSVPMaybe:
			counts.Maybe++
		case domain.RSVPDeclined:
			counts.Declined++
		}
		if c.CheckedIn {
			counts.CheckedIn++
		}
	}
	return counts
}

// broadcastCounts publishes the event's refreshed confirmation counts to its
// room. Failures are logged, never surfaced to the caller.
func (s *rsvpService) broadcastCounts(ctx context.Context, eventID string) {
	if s.broadcaster == nil {
		return
	}
	confirmations, err := s.confirmationRepo.ListByEventID(ctx, eventID)
	if err != nil {
		s.logger.Warn("confirmation counts broadcast skipped", "event_id", eventID, "err", err)
		return
	}
	s.broadcaster.Publish(eventID, domain.BroadcastRSVPUpdated, map[string]any{
		"event_id": eventID,
		"counts":   countConfirmations(confirmations),
	})
}
