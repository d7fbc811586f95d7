package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"liveparticipation/internal/domain"
)

type checkInService struct {
	eventRepo        domain.EventRepository
	confirmationRepo domain.ConfirmationRepository
	broadcaster      domain.Broadcaster
	logger           *slog.Logger
	contextTimeout   time.Duration
}

// NewCheckInService creates the check-in window clock and no-show release.
func NewCheckInService(
	eventRepo domain.EventRepository,
	confirmationRepo domain.ConfirmationRepository,
	broadcaster domain.Broadcaster,
	logger *slog.Logger,
	timeout time.Duration,
) domain.CheckInService {
	return &checkInService{
		eventRepo:        eventRepo,
		confirmationRepo: confirmationRepo,
		broadcaster:      broadcaster,
		logger:           logger,
		contextTimeout:   timeout,
	}
}

func (s *checkInService) CheckIn(ctx context.Context, eventID, participantEmail string) (*domain.Confirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	now := time.Now()
	window := domain.CheckInWindowFor(event, now)
	switch window.State {
	case domain.CheckInDisabled:
		return nil, domain.ErrCheckInDisabled
	case domain.CheckInNotYetOpen:
		return nil, domain.ErrWindowNotOpen
	case domain.CheckInClosed:
		return nil, domain.ErrWindowClosed
	}

	confirmation, err := s.confirmationRepo.GetByEventAndEmail(ctx, eventID, participantEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotConfirmed
		}
		return nil, fmt.Errorf("get confirmation: %w", err)
	}
	if confirmation.Status != domain.RSVPGoing {
		return nil, domain.ErrNotConfirmed
	}

	if err := s.confirmationRepo.SetCheckedIn(ctx, confirmation.ID, true, &now); err != nil {
		return nil, fmt.Errorf("set checked in: %w", err)
	}
	confirmation.CheckedIn = true
	confirmation.CheckInTime = &now
	confirmation.NoShow = false

	s.broadcastCounts(ctx, eventID)
	return confirmation, nil
}

func (s *checkInService) ToggleCheckIn(ctx context.Context, eventID, confirmationID string) (*domain.Confirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	confirmation, err := s.confirmationRepo.GetByID(ctx, confirmationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get confirmation: %w", err)
	}
	if confirmation.EventID != eventID {
		return nil, domain.ErrNotFound
	}

	checkedIn := !confirmation.CheckedIn
	var checkInTime *time.Time
	if checkedIn {
		now := time.Now()
		checkInTime = &now
	}
	if err := s.confirmationRepo.SetCheckedIn(ctx, confirmation.ID, checkedIn, checkInTime); err != nil {
		return nil, fmt.Errorf("set checked in: %w", err)
	}
	confirmation.CheckedIn = checkedIn
	confirmation.CheckInTime = checkInTime
	confirmation.NoShow = false

	s.broadcastCounts(ctx, eventID)
	return confirmation, nil
}

func (s *checkInService) SweepNoShows(ctx context.Context) (int, error) {
	events, err := s.eventRepo.ListCheckInSweepCandidates(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("list sweep candidates: %w", err)
	}

	total := 0
	for _, event := range events {
		released, err := s.confirmationRepo.ReleaseNoShows(ctx, event.ID)
		if err != nil {
			// One bad event must not block release for the others.
			s.logger.Error("no-show release failed", "event_id", event.ID, "err", err)
			continue
		}
		if released > 0 {
			total += released
			s.logger.Info("no-shows released", "event_id", event.ID, "count", released)
			s.broadcastCounts(ctx, event.ID)
		}
	}
	return total, nil
}

func (s *checkInService) ManualRelease(ctx context.Context, eventID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("get event: %w", err)
	}

	released, err := s.confirmationRepo.ReleaseNoShows(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("release no-shows: %w", err)
	}
	if released > 0 {
		s.broadcastCounts(ctx, eventID)
	}
	return released, nil
}

func (s *checkInService) broadcastCounts(ctx context.Context, eventID string) {
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
