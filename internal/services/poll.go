package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"liveparticipation/internal/domain"
)

type pollService struct {
	pollRepo       domain.PollRepository
	eventRepo      domain.EventRepository
	broadcaster    domain.Broadcaster
	logger         *slog.Logger
	eventLocks     *keyedMutex // serializes activation per event
	pollLocks      *keyedMutex // serializes vote handling per poll
	contextTimeout time.Duration
}

// NewPollService creates the single-active-poll state machine. Activation is
// serialized per event and vote handling per poll through in-process locks.
func NewPollService(
	pollRepo domain.PollRepository,
	eventRepo domain.EventRepository,
	broadcaster domain.Broadcaster,
	logger *slog.Logger,
	timeout time.Duration,
) domain.PollService {
	return &pollService{
		pollRepo:       pollRepo,
		eventRepo:      eventRepo,
		broadcaster:    broadcaster,
		logger:         logger,
		eventLocks:     newKeyedMutex(),
		pollLocks:      newKeyedMutex(),
		contextTimeout: timeout,
	}
}

func (s *pollService) CreatePoll(ctx context.Context, eventID, question string, options []string, allowMultipleChoice, showResultsAutomatically bool, timerDuration int) (*domain.Poll, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	question = strings.TrimSpace(question)
	if question == "" || len(options) < 2 {
		return nil, domain.ErrInvalidInput
	}
	optionTexts := make([]string, 0, len(options))
	for _, text := range options {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, domain.ErrInvalidInput
		}
		optionTexts = append(optionTexts, text)
	}
	if timerDuration < 0 {
		return nil, domain.ErrInvalidInput
	}

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	now := time.Now()
	poll := &domain.Poll{
		EventID:                  eventID,
		Question:                 question,
		AllowMultipleChoice:      allowMultipleChoice,
		ShowResultsAutomatically: showResultsAutomatically,
		TimerDuration:            timerDuration,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	for _, text := range optionTexts {
		poll.Options = append(poll.Options, &domain.PollOption{Text: text})
	}
	if err := s.pollRepo.Create(ctx, poll); err != nil {
		return nil, fmt.Errorf("create poll: %w", err)
	}
	return poll, nil
}

func (s *pollService) SetActive(ctx context.Context, pollID string, isActive bool) (*domain.Poll, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get poll: %w", err)
	}

	// Concurrent activations in the same event must not leave two polls
	// active; the whole deactivate-then-activate sequence runs locked.
	lock := s.eventLocks.Lock(poll.EventID)
	defer lock.Unlock()

	if isActive {
		if err := s.pollRepo.DeactivateAllForEvent(ctx, poll.EventID); err != nil {
			return nil, fmt.Errorf("deactivate polls: %w", err)
		}
		now := time.Now()
		var expiresAt *time.Time
		if poll.TimerDuration > 0 {
			e := now.Add(time.Duration(poll.TimerDuration) * time.Second)
			expiresAt = &e
		}
		if err := s.pollRepo.SetActive(ctx, pollID, true, &now, expiresAt); err != nil {
			return nil, fmt.Errorf("activate poll: %w", err)
		}
	} else {
		if err := s.pollRepo.SetActive(ctx, pollID, false, nil, nil); err != nil {
			return nil, fmt.Errorf("deactivate poll: %w", err)
		}
	}

	snapshot, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("reload poll: %w", err)
	}
	if s.broadcaster != nil {
		name := domain.BroadcastPollDeactivated
		if isActive {
			name = domain.BroadcastPollActivated
		}
		s.broadcaster.Publish(snapshot.EventID, name, snapshot)
	}
	return snapshot, nil
}

func (s *pollService) Vote(ctx context.Context, pollID, pollOptionID, participantIdentifier string) (*domain.VoteOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	participantIdentifier = strings.TrimSpace(participantIdentifier)
	if participantIdentifier == "" || pollOptionID == "" {
		return nil, domain.ErrInvalidInput
	}

	// Toggle decisions for one poll are serialized; two concurrent votes
	// from the same identifier cannot both see "no existing vote".
	lock := s.pollLocks.Lock(pollID)
	defer lock.Unlock()

	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get poll: %w", err)
	}
	if !poll.IsActive {
		return nil, domain.ErrPollInactive
	}

	optionBelongs := false
	for _, option := range poll.Options {
		if option.ID == pollOptionID {
			optionBelongs = true
			break
		}
	}
	if !optionBelongs {
		return nil, domain.ErrNotFound
	}

	existing, err := s.pollRepo.ListVotes(ctx, pollID, participantIdentifier)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}

	var sameOption *domain.PollVote
	for _, vote := range existing {
		if vote.PollOptionID == pollOptionID {
			sameOption = vote
			break
		}
	}

	action := domain.VoteCast
	switch {
	case sameOption != nil:
		// Re-voting the same option removes the vote.
		if err := s.pollRepo.DeleteVote(ctx, sameOption, true); err != nil {
			return nil, fmt.Errorf("delete vote: %w", err)
		}
		action = domain.VoteRemoved

	case !poll.AllowMultipleChoice && len(existing) > 0:
		// Single choice: transfer the vote. The prior option's counter
		// drops but total_votes stays put; the insert below restores it.
		if err := s.pollRepo.DeleteVote(ctx, existing[0], false); err != nil {
			return nil, fmt.Errorf("delete prior vote: %w", err)
		}
		fallthrough

	default:
		vote := &domain.PollVote{
			PollID:                pollID,
			PollOptionID:          pollOptionID,
			ParticipantIdentifier: participantIdentifier,
			CreatedAt:             time.Now(),
		}
		if err := s.pollRepo.InsertVote(ctx, vote); err != nil {
			return nil, fmt.Errorf("insert vote: %w", err)
		}
	}

	snapshot, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("reload poll: %w", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.Publish(snapshot.EventID, domain.BroadcastPollVote, snapshot)
	}
	return &domain.VoteOutcome{Action: action, Poll: snapshot}, nil
}

func (s *pollService) GetActivePoll(ctx context.Context, eventID string) (*domain.Poll, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.pollRepo.GetActiveByEventID(ctx, eventID)
}

func (s *pollService) ListPolls(ctx context.Context, eventID string) ([]*domain.Poll, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.pollRepo.ListByEventID(ctx, eventID)
}

func (s *pollService) GetResults(ctx context.Context, pollID string) (*domain.PollResults, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get poll: %w", err)
	}

	results := &domain.PollResults{
		PollID:     poll.ID,
		Question:   poll.Question,
		TotalVotes: poll.TotalVotes,
		Options:    make([]*domain.PollOptionResult, 0, len(poll.Options)),
	}
	for _, option := range poll.Options {
		percentage := 0.0
		if poll.TotalVotes > 0 {
			percentage = math.Round(float64(option.VotesCount)/float64(poll.TotalVotes)*1000) / 10
		}
		results.Options = append(results.Options, &domain.PollOptionResult{
			ID:         option.ID,
			Text:       option.Text,
			VotesCount: option.VotesCount,
			Percentage: percentage,
		})
	}
	return results, nil
}

func (s *pollService) ListParticipantVotes(ctx context.Context, pollID, participantIdentifier string) ([]*domain.PollVote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.pollRepo.GetByID(ctx, pollID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get poll: %w", err)
	}
	return s.pollRepo.ListVotes(ctx, pollID, participantIdentifier)
}

func (s *pollService) DeletePoll(ctx context.Context, pollID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	poll, err := s.pollRepo.GetByID(ctx, pollID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get poll: %w", err)
	}

	lock := s.eventLocks.Lock(poll.EventID)
	defer lock.Unlock()

	if err := s.pollRepo.Delete(ctx, pollID); err != nil {
		return fmt.Errorf("delete poll: %w", err)
	}
	if poll.IsActive && s.broadcaster != nil {
		poll.IsActive = false
		s.broadcaster.Publish(poll.EventID, domain.BroadcastPollDeactivated, poll)
	}
	return nil
}

func (s *pollService) ExpireTimedPolls(ctx context.Context) (int, error) {
	polls, err := s.pollRepo.ListExpiredActive(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("list expired polls: %w", err)
	}

	expired := 0
	for _, poll := range polls {
		// activated_at/expires_at stay set: an expired poll is an
		// inactive poll whose expiry has passed, unlike a manual
		// deactivation which clears both.
		if err := s.pollRepo.SetActive(ctx, poll.ID, false, poll.ActivatedAt, poll.ExpiresAt); err != nil {
			s.logger.Error("poll expiry failed", "poll_id", poll.ID, "err", err)
			continue
		}
		expired++
		if s.broadcaster != nil {
			snapshot, err := s.pollRepo.GetByID(ctx, poll.ID)
			if err != nil {
				s.logger.Warn("poll expiry broadcast skipped", "poll_id", poll.ID, "err", err)
				continue
			}
			s.broadcaster.Publish(snapshot.EventID, domain.BroadcastPollDeactivated, snapshot)
		}
	}
	return expired, nil
}
