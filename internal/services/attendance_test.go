package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"liveparticipation/internal/domain"
)

func TestAttendanceService_ComputeEffectiveAttendance(t *testing.T) {
	eventRepo := &mockEventRepository{events: map[string]*domain.Event{"e1": testEvent(0, nil)}}

	t.Run("no polls falls back to manual check-in", func(t *testing.T) {
		confirmationRepo := &mockConfirmationRepository{
			confirmations: []*domain.Confirmation{
				{ID: "c1", EventID: "e1", ParticipantEmail: "a@x.com", Status: domain.RSVPGoing, CheckedIn: true},
				{ID: "c2", EventID: "e1", ParticipantEmail: "b@x.com", Status: domain.RSVPGoing},
			},
		}
		svc := NewAttendanceService(eventRepo, confirmationRepo, newMockPollRepository(), time.Second)

		records, err := svc.ComputeEffectiveAttendance(context.Background(), "e1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if !records[0].EffectivelyAttended || records[1].EffectivelyAttended {
			t.Errorf("expected check-in flags to decide, got %+v and %+v", records[0], records[1])
		}
	})

	t.Run("participation rate against the threshold", func(t *testing.T) {
		p1 := makePoll("p1", "e1", false, "p1-o1", "p1-o2")
		p2 := makePoll("p2", "e1", false, "p2-o1", "p2-o2")
		pollRepo := newMockPollRepository(p1, p2)
		// a@x.com voted in both polls, b@x.com in one, c@x.com in none.
		pollRepo.votes = []*domain.PollVote{
			{ID: "v1", PollID: "p1", PollOptionID: "p1-o1", ParticipantIdentifier: "a@x.com"},
			{ID: "v2", PollID: "p2", PollOptionID: "p2-o1", ParticipantIdentifier: "a@x.com"},
			{ID: "v3", PollID: "p1", PollOptionID: "p1-o2", ParticipantIdentifier: "b@x.com"},
		}
		confirmationRepo := &mockConfirmationRepository{
			confirmations: []*domain.Confirmation{
				{ID: "c1", EventID: "e1", ParticipantEmail: "a@x.com", Status: domain.RSVPGoing},
				{ID: "c2", EventID: "e1", ParticipantEmail: "b@x.com", Status: domain.RSVPGoing, CheckedIn: true},
				{ID: "c3", EventID: "e1", ParticipantEmail: "c@x.com", Status: domain.RSVPGoing},
			},
		}
		svc := NewAttendanceService(eventRepo, confirmationRepo, pollRepo, time.Second)

		records, err := svc.ComputeEffectiveAttendance(context.Background(), "e1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}

		byEmail := map[string]*domain.AttendanceRecord{}
		for _, r := range records {
			byEmail[r.Confirmation.ParticipantEmail] = r
		}

		full := byEmail["a@x.com"]
		if full.ParticipationRate != 100 || !full.EffectivelyAttended {
			t.Errorf("expected 100%% effective, got %+v", full)
		}
		half := byEmail["b@x.com"]
		// 50% is below the threshold even though the participant checked in;
		// with polls present, poll participation is the signal.
		if half.ParticipationRate != 50 || half.EffectivelyAttended {
			t.Errorf("expected 50%% not effective, got %+v", half)
		}
		none := byEmail["c@x.com"]
		if none.ParticipationRate != 0 || none.EffectivelyAttended {
			t.Errorf("expected 0%% not effective, got %+v", none)
		}
	})

	t.Run("event not found", func(t *testing.T) {
		svc := NewAttendanceService(eventRepo, &mockConfirmationRepository{}, newMockPollRepository(), time.Second)
		if _, err := svc.ComputeEffectiveAttendance(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
