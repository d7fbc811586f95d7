package domain

import (
	"context"
	"time"
)

// Poll is a question attached to an event. At most one poll per event is
// active at any instant; only the active poll accepts votes.
// swagger:model Poll
type Poll struct {
	ID                       string     `json:"id"`
	EventID                  string     `json:"event_id"`
	Question                 string     `json:"question"`
	AllowMultipleChoice      bool       `json:"allow_multiple_choice"`
	ShowResultsAutomatically bool       `json:"show_results_automatically"`
	IsActive                 bool       `json:"is_active"`
	TotalVotes               int        `json:"total_votes"`
	TimerDuration            int        `json:"timer_duration"` // seconds, 0 means no timer
	ActivatedAt              *time.Time `json:"activated_at,omitempty"`
	ExpiresAt                *time.Time `json:"expires_at,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`

	Options []*PollOption `json:"options"`
}

// PollOption is one answer choice of a poll. VotesCount mirrors the number of
// poll_votes rows referencing the option.
// swagger:model PollOption
type PollOption struct {
	ID         string `json:"id"`
	PollID     string `json:"poll_id"`
	Text       string `json:"text"`
	VotesCount int    `json:"votes_count"`
}

// PollVote ties a participant identifier (an opaque per-browser token, not
// necessarily a confirmation email) to one option of one poll.
// swagger:model PollVote
type PollVote struct {
	ID                    string    `json:"id"`
	PollID                string    `json:"poll_id"`
	PollOptionID          string    `json:"poll_option_id"`
	ParticipantIdentifier string    `json:"participant_identifier"`
	CreatedAt             time.Time `json:"created_at"`
}

// VoteAction tags the outcome of a vote request.
type VoteAction string

const (
	VoteCast    VoteAction = "voted"
	VoteRemoved VoteAction = "unvoted"
)

// VoteOutcome is the result of Vote: what happened plus the refreshed poll.
type VoteOutcome struct {
	Action VoteAction `json:"action"`
	Poll   *Poll      `json:"poll"`
}

// PollOptionResult is one option with its share of the total vote count.
type PollOptionResult struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	VotesCount int     `json:"votes_count"`
	Percentage float64 `json:"percentage"`
}

// PollResults is the organizer/participant view of a poll's tallies.
type PollResults struct {
	PollID     string              `json:"poll_id"`
	Question   string              `json:"question"`
	TotalVotes int                 `json:"total_votes"`
	Options    []*PollOptionResult `json:"options"`
}

// PollRepository defines storage operations for polls, options, and votes.
// InsertVote and DeleteVote adjust the option and poll counters in the same
// transaction as the row change so counters never drift from row counts.
type PollRepository interface {
	Create(ctx context.Context, poll *Poll) error
	GetByID(ctx context.Context, id string) (*Poll, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Poll, error)
	GetActiveByEventID(ctx context.Context, eventID string) (*Poll, error)
	// DeactivateAllForEvent force-deactivates every poll of the event,
	// clearing activated_at/expires_at.
	DeactivateAllForEvent(ctx context.Context, eventID string) error
	SetActive(ctx context.Context, pollID string, isActive bool, activatedAt, expiresAt *time.Time) error
	Delete(ctx context.Context, pollID string) error
	// ListExpiredActive returns active polls whose expires_at is at or
	// before now.
	ListExpiredActive(ctx context.Context, now time.Time) ([]*Poll, error)

	ListVotes(ctx context.Context, pollID, participantIdentifier string) ([]*PollVote, error)
	InsertVote(ctx context.Context, vote *PollVote) error
	// DeleteVote removes the vote and decrements its option counter.
	// decrementTotal controls whether the poll's total_votes is decremented
	// too (false during a single-choice vote transfer).
	DeleteVote(ctx context.Context, vote *PollVote, decrementTotal bool) error
	// CountPollsVotedByIdentifier counts distinct polls of the event in
	// which the identifier has at least one vote.
	CountPollsVotedByIdentifier(ctx context.Context, eventID, identifier string) (int, error)
}

// PollService is the single-active-poll state machine plus vote admission.
type PollService interface {
	CreatePoll(ctx context.Context, eventID, question string, options []string, allowMultipleChoice, showResultsAutomatically bool, timerDuration int) (*Poll, error)
	// SetActive activates or deactivates a poll. Activation force-deactivates
	// every other poll of the same event first.
	SetActive(ctx context.Context, pollID string, isActive bool) (*Poll, error)
	// Vote toggles, transfers, or casts a vote for the participant.
	Vote(ctx context.Context, pollID, pollOptionID, participantIdentifier string) (*VoteOutcome, error)
	GetActivePoll(ctx context.Context, eventID string) (*Poll, error)
	ListPolls(ctx context.Context, eventID string) ([]*Poll, error)
	GetResults(ctx context.Context, pollID string) (*PollResults, error)
	ListParticipantVotes(ctx context.Context, pollID, participantIdentifier string) ([]*PollVote, error)
	DeletePoll(ctx context.Context, pollID string) error
	// ExpireTimedPolls deactivates every active poll whose timer has run
	// out, returning how many were deactivated.
	ExpireTimedPolls(ctx context.Context) (int, error)
}
