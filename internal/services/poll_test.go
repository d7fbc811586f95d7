package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"liveparticipation/internal/domain"
)

func makePoll(id, eventID string, allowMultiple bool, optionIDs ...string) *domain.Poll {
	poll := &domain.Poll{
		ID:                  id,
		EventID:             eventID,
		Question:            "Question " + id,
		AllowMultipleChoice: allowMultiple,
	}
	for _, optID := range optionIDs {
		poll.Options = append(poll.Options, &domain.PollOption{ID: optID, PollID: id, Text: "Option " + optID})
	}
	return poll
}

func activate(t *testing.T, svc domain.PollService, pollID string) {
	t.Helper()
	if _, err := svc.SetActive(context.Background(), pollID, true); err != nil {
		t.Fatalf("activate %s: %v", pollID, err)
	}
}

func newPollService(repo *mockPollRepository, broadcaster *mockBroadcaster) domain.PollService {
	eventRepo := &mockEventRepository{events: map[string]*domain.Event{"e1": testEvent(0, nil)}}
	return NewPollService(repo, eventRepo, broadcaster, testLogger, time.Second)
}

func TestPollService_CreatePoll(t *testing.T) {
	tests := []struct {
		name    string
		eventID string
		question string
		options []string
		timer   int
		wantErr error
	}{
		{
			name:     "success",
			eventID:  "e1",
			question: "Best talk so far?",
			options:  []string{"Opening", "Keynote"},
		},
		{
			name:     "fewer than two options",
			eventID:  "e1",
			question: "Best talk so far?",
			options:  []string{"Opening"},
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "blank option",
			eventID:  "e1",
			question: "Best talk so far?",
			options:  []string{"Opening", "   "},
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "negative timer",
			eventID:  "e1",
			question: "Best talk so far?",
			options:  []string{"Opening", "Keynote"},
			timer:    -5,
			wantErr:  domain.ErrInvalidInput,
		},
		{
			name:     "event not found",
			eventID:  "missing",
			question: "Best talk so far?",
			options:  []string{"Opening", "Keynote"},
			wantErr:  domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockPollRepository()
			svc := newPollService(repo, &mockBroadcaster{})

			got, err := svc.CreatePoll(context.Background(), tt.eventID, tt.question, tt.options, false, true, tt.timer)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.IsActive {
				t.Error("a new poll must start inactive")
			}
			if len(got.Options) != len(tt.options) {
				t.Errorf("expected %d options, got %d", len(tt.options), len(got.Options))
			}
		})
	}
}

func TestPollService_SetActive(t *testing.T) {
	p1 := makePoll("p1", "e1", false, "p1-o1", "p1-o2")
	p2 := makePoll("p2", "e1", false, "p2-o1", "p2-o2")
	p2.TimerDuration = 60
	repo := newMockPollRepository(p1, p2)
	broadcaster := &mockBroadcaster{}
	svc := newPollService(repo, broadcaster)

	activate(t, svc, "p1")
	got, err := svc.SetActive(context.Background(), "p2", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsActive || got.ActivatedAt == nil {
		t.Fatalf("expected p2 active with activation time, got %+v", got)
	}
	if got.ExpiresAt == nil {
		t.Fatal("expected expiry set from the timer")
	}
	if p1.IsActive {
		t.Error("activating p2 must deactivate p1")
	}

	got, err = svc.SetActive(context.Background(), "p2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsActive || got.ActivatedAt != nil || got.ExpiresAt != nil {
		t.Fatalf("manual deactivation must clear timestamps, got %+v", got)
	}

	want := []string{domain.BroadcastPollActivated, domain.BroadcastPollActivated, domain.BroadcastPollDeactivated}
	names := broadcaster.names()
	if len(names) != len(want) {
		t.Fatalf("expected broadcasts %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected broadcasts %v, got %v", want, names)
		}
	}

	if _, err := svc.SetActive(context.Background(), "missing", true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// Concurrent activations in one event must never end with two active polls.
func TestPollService_SetActive_Concurrent(t *testing.T) {
	p1 := makePoll("p1", "e1", false, "p1-o1", "p1-o2")
	p2 := makePoll("p2", "e1", false, "p2-o1", "p2-o2")
	p3 := makePoll("p3", "e1", false, "p3-o1", "p3-o2")
	repo := newMockPollRepository(p1, p2, p3)
	svc := newPollService(repo, &mockBroadcaster{})

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pollID := fmt.Sprintf("p%d", i%3+1)
			if _, err := svc.SetActive(context.Background(), pollID, true); err != nil {
				t.Errorf("activate %s: %v", pollID, err)
			}
		}(i)
	}
	wg.Wait()

	active := 0
	for _, p := range []*domain.Poll{p1, p2, p3} {
		if p.IsActive {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active poll, got %d", active)
	}
}

func TestPollService_Vote(t *testing.T) {
	t.Run("toggle removes the vote", func(t *testing.T) {
		poll := makePoll("p1", "e1", false, "o1", "o2")
		repo := newMockPollRepository(poll)
		svc := newPollService(repo, &mockBroadcaster{})
		activate(t, svc, "p1")

		out, err := svc.Vote(context.Background(), "p1", "o1", "anon-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Action != domain.VoteCast {
			t.Fatalf("expected %s, got %s", domain.VoteCast, out.Action)
		}
		if out.Poll.TotalVotes != 1 || out.Poll.Options[0].VotesCount != 1 {
			t.Fatalf("unexpected counters after vote: total=%d o1=%d", out.Poll.TotalVotes, out.Poll.Options[0].VotesCount)
		}

		out, err = svc.Vote(context.Background(), "p1", "o1", "anon-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Action != domain.VoteRemoved {
			t.Fatalf("expected %s, got %s", domain.VoteRemoved, out.Action)
		}
		if out.Poll.TotalVotes != 0 || out.Poll.Options[0].VotesCount != 0 {
			t.Fatalf("expected counters back to zero, got total=%d o1=%d", out.Poll.TotalVotes, out.Poll.Options[0].VotesCount)
		}
	})

	t.Run("single choice transfers the vote", func(t *testing.T) {
		poll := makePoll("p1", "e1", false, "o1", "o2")
		repo := newMockPollRepository(poll)
		svc := newPollService(repo, &mockBroadcaster{})
		activate(t, svc, "p1")

		if _, err := svc.Vote(context.Background(), "p1", "o1", "anon-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out, err := svc.Vote(context.Background(), "p1", "o2", "anon-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Action != domain.VoteCast {
			t.Fatalf("expected %s, got %s", domain.VoteCast, out.Action)
		}
		if out.Poll.TotalVotes != 1 {
			t.Errorf("transfer must keep the total at 1, got %d", out.Poll.TotalVotes)
		}
		if out.Poll.Options[0].VotesCount != 0 || out.Poll.Options[1].VotesCount != 1 {
			t.Errorf("expected o1=0 o2=1, got o1=%d o2=%d", out.Poll.Options[0].VotesCount, out.Poll.Options[1].VotesCount)
		}
	})

	t.Run("multiple choice accumulates", func(t *testing.T) {
		poll := makePoll("p1", "e1", true, "o1", "o2")
		repo := newMockPollRepository(poll)
		svc := newPollService(repo, &mockBroadcaster{})
		activate(t, svc, "p1")

		if _, err := svc.Vote(context.Background(), "p1", "o1", "anon-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out, err := svc.Vote(context.Background(), "p1", "o2", "anon-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Poll.TotalVotes != 2 || out.Poll.Options[0].VotesCount != 1 || out.Poll.Options[1].VotesCount != 1 {
			t.Fatalf("expected both options counted, got total=%d o1=%d o2=%d",
				out.Poll.TotalVotes, out.Poll.Options[0].VotesCount, out.Poll.Options[1].VotesCount)
		}
	})

	t.Run("inactive poll rejects votes", func(t *testing.T) {
		poll := makePoll("p1", "e1", false, "o1", "o2")
		repo := newMockPollRepository(poll)
		svc := newPollService(repo, &mockBroadcaster{})

		if _, err := svc.Vote(context.Background(), "p1", "o1", "anon-1"); !errors.Is(err, domain.ErrPollInactive) {
			t.Fatalf("expected ErrPollInactive, got %v", err)
		}
	})

	t.Run("option of another poll", func(t *testing.T) {
		p1 := makePoll("p1", "e1", false, "o1", "o2")
		p2 := makePoll("p2", "e1", false, "o3", "o4")
		repo := newMockPollRepository(p1, p2)
		svc := newPollService(repo, &mockBroadcaster{})
		activate(t, svc, "p1")

		if _, err := svc.Vote(context.Background(), "p1", "o3", "anon-1"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("blank identifier", func(t *testing.T) {
		poll := makePoll("p1", "e1", false, "o1", "o2")
		repo := newMockPollRepository(poll)
		svc := newPollService(repo, &mockBroadcaster{})
		activate(t, svc, "p1")

		if _, err := svc.Vote(context.Background(), "p1", "o1", "  "); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}

// Many participants vote at once on a single-choice poll; option counters must
// sum to the total afterwards.
func TestPollService_Vote_ConcurrentCounters(t *testing.T) {
	poll := makePoll("p1", "e1", false, "o1", "o2")
	repo := newMockPollRepository(poll)
	svc := newPollService(repo, &mockBroadcaster{})
	activate(t, svc, "p1")

	const voters = 16
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			optionID := "o1"
			if i%2 == 0 {
				optionID = "o2"
			}
			if _, err := svc.Vote(context.Background(), "p1", optionID, fmt.Sprintf("anon-%d", i)); err != nil {
				t.Errorf("vote %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	sum := poll.Options[0].VotesCount + poll.Options[1].VotesCount
	if poll.TotalVotes != voters || sum != voters {
		t.Fatalf("expected total=%d and option sum=%d, got total=%d sum=%d", voters, voters, poll.TotalVotes, sum)
	}
}

func TestPollService_ExpireTimedPolls(t *testing.T) {
	now := time.Now()
	activatedAt := now.Add(-2 * time.Minute)
	expiredAt := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	timed := makePoll("p1", "e1", false, "o1", "o2")
	timed.IsActive = true
	timed.TimerDuration = 60
	timed.ActivatedAt = &activatedAt
	timed.ExpiresAt = &expiredAt

	untimed := makePoll("p2", "e2", false, "o3", "o4")
	untimed.IsActive = true

	running := makePoll("p3", "e3", false, "o5", "o6")
	running.IsActive = true
	running.ActivatedAt = &activatedAt
	running.ExpiresAt = &future

	repo := newMockPollRepository(timed, untimed, running)
	broadcaster := &mockBroadcaster{}
	svc := newPollService(repo, broadcaster)

	expired, err := svc.ExpireTimedPolls(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired poll, got %d", expired)
	}
	if timed.IsActive {
		t.Error("expected the timed poll deactivated")
	}
	if timed.ActivatedAt == nil || timed.ExpiresAt == nil {
		t.Error("expiry must keep activation and expiry timestamps")
	}
	if !untimed.IsActive || !running.IsActive {
		t.Error("polls without a lapsed timer must stay active")
	}

	if _, err := svc.Vote(context.Background(), "p1", "o1", "anon-1"); !errors.Is(err, domain.ErrPollInactive) {
		t.Fatalf("expected ErrPollInactive after expiry, got %v", err)
	}

	// Nothing left to expire on the next tick.
	expired, err = svc.ExpireTimedPolls(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 0 {
		t.Fatalf("expected idempotent second run, got %d", expired)
	}
	names := broadcaster.names()
	if len(names) != 1 || names[0] != domain.BroadcastPollDeactivated {
		t.Errorf("expected one %s broadcast, got %v", domain.BroadcastPollDeactivated, names)
	}
}

func TestPollService_GetResults(t *testing.T) {
	poll := makePoll("p1", "e1", false, "o1", "o2", "o3")
	poll.TotalVotes = 3
	poll.Options[0].VotesCount = 2
	poll.Options[1].VotesCount = 1
	repo := newMockPollRepository(poll)
	svc := newPollService(repo, &mockBroadcaster{})

	got, err := svc.GetResults(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalVotes != 3 {
		t.Fatalf("expected total 3, got %d", got.TotalVotes)
	}
	if got.Options[0].Percentage != 66.7 {
		t.Errorf("expected 66.7%% for o1, got %v", got.Options[0].Percentage)
	}
	if got.Options[1].Percentage != 33.3 {
		t.Errorf("expected 33.3%% for o2, got %v", got.Options[1].Percentage)
	}
	if got.Options[2].Percentage != 0 {
		t.Errorf("expected 0%% for o3, got %v", got.Options[2].Percentage)
	}

	empty := makePoll("p2", "e1", false, "o4", "o5")
	repo2 := newMockPollRepository(empty)
	svc2 := newPollService(repo2, &mockBroadcaster{})
	got, err = svc2.GetResults(context.Background(), "p2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, opt := range got.Options {
		if opt.Percentage != 0 {
			t.Errorf("expected 0%% with no votes, got %v", opt.Percentage)
		}
	}
}

func TestPollService_DeletePoll(t *testing.T) {
	poll := makePoll("p1", "e1", false, "o1", "o2")
	poll.IsActive = true
	repo := newMockPollRepository(poll)
	broadcaster := &mockBroadcaster{}
	svc := newPollService(repo, broadcaster)

	if err := svc.DeletePoll(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected poll gone, got %v", err)
	}
	names := broadcaster.names()
	if len(names) != 1 || names[0] != domain.BroadcastPollDeactivated {
		t.Errorf("deleting an active poll must broadcast %s, got %v", domain.BroadcastPollDeactivated, names)
	}

	if err := svc.DeletePoll(context.Background(), "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
