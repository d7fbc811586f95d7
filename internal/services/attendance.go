package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"liveparticipation/internal/domain"
)

type attendanceService struct {
	eventRepo        domain.EventRepository
	confirmationRepo domain.ConfirmationRepository
	pollRepo         domain.PollRepository
	contextTimeout   time.Duration
}

// NewAttendanceService creates the effective-participation calculator.
func NewAttendanceService(
	eventRepo domain.EventRepository,
	confirmationRepo domain.ConfirmationRepository,
	pollRepo domain.PollRepository,
	timeout time.Duration,
) domain.AttendanceService {
	return &attendanceService{
		eventRepo:        eventRepo,
		confirmationRepo: confirmationRepo,
		pollRepo:         pollRepo,
		contextTimeout:   timeout,
	}
}

func (s *attendanceService) ComputeEffectiveAttendance(ctx context.Context, eventID string) ([]*domain.AttendanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	confirmations, err := s.confirmationRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list confirmations: %w", err)
	}
	polls, err := s.pollRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	totalPolls := len(polls)

	records := make([]*domain.AttendanceRecord, 0, len(confirmations))
	for _, confirmation := range confirmations {
		record := &domain.AttendanceRecord{
			Confirmation: confirmation,
			TotalPolls:   totalPolls,
		}
		if totalPolls == 0 {
			// No polls to cross-reference; fall back to manual check-in.
			record.EffectivelyAttended = confirmation.CheckedIn
			records = append(records, record)
			continue
		}

		// Vote identifiers are opaque browser tokens; matching them
		// against the confirmation email only works when the client
		// voted with the email as its identifier. Kept as the original
		// behaves; see DESIGN.md.
		participated, err := s.pollRepo.CountPollsVotedByIdentifier(ctx, eventID, confirmation.ParticipantEmail)
		if err != nil {
			return nil, fmt.Errorf("count polls voted: %w", err)
		}
		record.PollsParticipated = participated
		record.ParticipationRate = int(math.Round(float64(participated) / float64(totalPolls) * 100))
		record.EffectivelyAttended = record.ParticipationRate >= domain.EffectiveAttendanceThreshold
		records = append(records, record)
	}
	return records, nil
}
