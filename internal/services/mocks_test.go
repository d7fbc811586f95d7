package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"liveparticipation/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockEventRepository struct {
	events          map[string]*domain.Event
	sweepCandidates []*domain.Event
	err             error
}

func (m *mockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	ev, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (m *mockEventRepository) ListCheckInSweepCandidates(ctx context.Context, now time.Time) ([]*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sweepCandidates, nil
}

// mockConfirmationRepository is safe for concurrent use; the capacity tests
// hammer it from multiple goroutines.
type mockConfirmationRepository struct {
	mu            sync.Mutex
	confirmations []*domain.Confirmation
	nextID        int
	upsertErr     error
	releaseErr    error
	listErr       error
}

func (m *mockConfirmationRepository) Upsert(ctx context.Context, c *domain.Confirmation) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.confirmations {
		if existing.EventID == c.EventID && existing.ParticipantEmail == c.ParticipantEmail {
			existing.ParticipantName = c.ParticipantName
			existing.Status = c.Status
			existing.UpdatedAt = c.UpdatedAt
			c.ID = existing.ID
			c.CheckedIn = existing.CheckedIn
			c.CheckInTime = existing.CheckInTime
			c.NoShow = existing.NoShow
			return nil
		}
	}
	m.nextID++
	c.ID = fmt.Sprintf("c%d", m.nextID)
	stored := *c
	m.confirmations = append(m.confirmations, &stored)
	return nil
}

func (m *mockConfirmationRepository) GetByID(ctx context.Context, id string) (*domain.Confirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.confirmations {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockConfirmationRepository) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Confirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.confirmations {
		if c.EventID == eventID && c.ParticipantEmail == email {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockConfirmationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Confirmation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Confirmation{}
	for _, c := range m.confirmations {
		if c.EventID == eventID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockConfirmationRepository) CountGoing(ctx context.Context, eventID, excludeEmail string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.confirmations {
		if c.EventID == eventID && c.Status == domain.RSVPGoing && c.ParticipantEmail != excludeEmail {
			count++
		}
	}
	return count, nil
}

func (m *mockConfirmationRepository) SetCheckedIn(ctx context.Context, id string, checkedIn bool, checkInTime *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.confirmations {
		if c.ID == id {
			c.CheckedIn = checkedIn
			c.CheckInTime = checkInTime
			c.NoShow = false
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockConfirmationRepository) ReleaseNoShows(ctx context.Context, eventID string) (int, error) {
	if m.releaseErr != nil {
		return 0, m.releaseErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	released := 0
	for _, c := range m.confirmations {
		if c.EventID == eventID && c.Status == domain.RSVPGoing && !c.CheckedIn {
			c.Status = domain.RSVPDeclined
			c.NoShow = true
			released++
		}
	}
	return released, nil
}

type mockWaitlistRepository struct {
	mu      sync.Mutex
	entries []*domain.WaitlistEntry
	nextID  int
	err     error
}

func (m *mockWaitlistRepository) Create(ctx context.Context, entry *domain.WaitlistEntry) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	entry.ID = fmt.Sprintf("w%d", m.nextID)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockWaitlistRepository) Exists(ctx context.Context, eventID, name, whatsapp string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.EventID != eventID {
			continue
		}
		if strings.EqualFold(e.Name, name) || e.Whatsapp == whatsapp {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockWaitlistRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.WaitlistEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.WaitlistEntry{}
	for _, e := range m.entries {
		if e.EventID == eventID {
			out = append(out, e)
		}
	}
	return out, nil
}

// mockPollRepository keeps polls and votes in memory with the same counter
// semantics as the postgres implementation: InsertVote bumps the option and
// the poll total, DeleteVote drops the option counter and optionally the
// total.
type mockPollRepository struct {
	mu     sync.Mutex
	polls  map[string]*domain.Poll
	votes  []*domain.PollVote
	nextID int
	err    error
}

func newMockPollRepository(polls ...*domain.Poll) *mockPollRepository {
	m := &mockPollRepository{polls: make(map[string]*domain.Poll)}
	for _, p := range polls {
		m.polls[p.ID] = p
	}
	return m
}

func (m *mockPollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	poll.ID = fmt.Sprintf("p%d", m.nextID)
	for i, opt := range poll.Options {
		opt.ID = fmt.Sprintf("%s-o%d", poll.ID, i+1)
		opt.PollID = poll.ID
	}
	m.polls[poll.ID] = poll
	return nil
}

func (m *mockPollRepository) GetByID(ctx context.Context, id string) (*domain.Poll, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	poll, ok := m.polls[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return poll, nil
}

func (m *mockPollRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Poll, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Poll{}
	for _, p := range m.polls {
		if p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPollRepository) GetActiveByEventID(ctx context.Context, eventID string) (*domain.Poll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.polls {
		if p.EventID == eventID && p.IsActive {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockPollRepository) DeactivateAllForEvent(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.polls {
		if p.EventID == eventID {
			p.IsActive = false
			p.ActivatedAt = nil
			p.ExpiresAt = nil
		}
	}
	return nil
}

func (m *mockPollRepository) SetActive(ctx context.Context, pollID string, isActive bool, activatedAt, expiresAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	poll, ok := m.polls[pollID]
	if !ok {
		return domain.ErrNotFound
	}
	poll.IsActive = isActive
	poll.ActivatedAt = activatedAt
	poll.ExpiresAt = expiresAt
	return nil
}

func (m *mockPollRepository) Delete(ctx context.Context, pollID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.polls[pollID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.polls, pollID)
	kept := m.votes[:0]
	for _, v := range m.votes {
		if v.PollID != pollID {
			kept = append(kept, v)
		}
	}
	m.votes = kept
	return nil
}

func (m *mockPollRepository) ListExpiredActive(ctx context.Context, now time.Time) ([]*domain.Poll, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Poll{}
	for _, p := range m.polls {
		if p.IsActive && p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPollRepository) ListVotes(ctx context.Context, pollID, participantIdentifier string) ([]*domain.PollVote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.PollVote{}
	for _, v := range m.votes {
		if v.PollID == pollID && v.ParticipantIdentifier == participantIdentifier {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockPollRepository) InsertVote(ctx context.Context, vote *domain.PollVote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	poll, ok := m.polls[vote.PollID]
	if !ok {
		return domain.ErrNotFound
	}
	m.nextID++
	vote.ID = fmt.Sprintf("v%d", m.nextID)
	m.votes = append(m.votes, vote)
	for _, opt := range poll.Options {
		if opt.ID == vote.PollOptionID {
			opt.VotesCount++
		}
	}
	poll.TotalVotes++
	return nil
}

func (m *mockPollRepository) DeleteVote(ctx context.Context, vote *domain.PollVote, decrementTotal bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	poll, ok := m.polls[vote.PollID]
	if !ok {
		return domain.ErrNotFound
	}
	kept := m.votes[:0]
	removed := false
	for _, v := range m.votes {
		if !removed && v.PollID == vote.PollID && v.PollOptionID == vote.PollOptionID && v.ParticipantIdentifier == vote.ParticipantIdentifier {
			removed = true
			continue
		}
		kept = append(kept, v)
	}
	m.votes = kept
	if !removed {
		return domain.ErrNotFound
	}
	for _, opt := range poll.Options {
		if opt.ID == vote.PollOptionID && opt.VotesCount > 0 {
			opt.VotesCount--
		}
	}
	if decrementTotal && poll.TotalVotes > 0 {
		poll.TotalVotes--
	}
	return nil
}

func (m *mockPollRepository) CountPollsVotedByIdentifier(ctx context.Context, eventID, identifier string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	for _, v := range m.votes {
		poll, ok := m.polls[v.PollID]
		if !ok || poll.EventID != eventID {
			continue
		}
		if v.ParticipantIdentifier == identifier {
			seen[v.PollID] = true
		}
	}
	return len(seen), nil
}

type broadcastCall struct {
	eventID string
	name    string
	payload any
}

type mockBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (m *mockBroadcaster) Publish(eventID, name string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, broadcastCall{eventID: eventID, name: name, payload: payload})
}

func (m *mockBroadcaster) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		out = append(out, c.name)
	}
	return out
}
