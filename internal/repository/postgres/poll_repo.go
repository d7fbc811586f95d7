package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"liveparticipation/internal/domain"
)

type pollRepository struct {
	DB *sql.DB
}

func NewPollRepository(db *sql.DB) domain.PollRepository {
	return &pollRepository{
		DB: db,
	}
}

const pollColumns = `id, event_id, question, allow_multiple_choice, show_results_automatically,
	is_active, total_votes, COALESCE(timer_duration, 0), activated_at, expires_at, created_at, updated_at`

func scanPoll(row interface{ Scan(...any) error }) (*domain.Poll, error) {
	poll := &domain.Poll{}
	var activatedAt, expiresAt sql.NullTime
	err := row.Scan(
		&poll.ID, &poll.EventID, &poll.Question, &poll.AllowMultipleChoice,
		&poll.ShowResultsAutomatically, &poll.IsActive, &poll.TotalVotes,
		&poll.TimerDuration, &activatedAt, &expiresAt, &poll.CreatedAt, &poll.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if activatedAt.Valid {
		poll.ActivatedAt = &activatedAt.Time
	}
	if expiresAt.Valid {
		poll.ExpiresAt = &expiresAt.Time
	}
	return poll, nil
}

func (r *pollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO polls (event_id, question, allow_multiple_choice, show_results_automatically,
			is_active, total_votes, timer_duration, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, 0, $5, $6, $7)
		RETURNING id
	`
	var timer any
	if poll.TimerDuration > 0 {
		timer = poll.TimerDuration
	}
	if err := tx.QueryRowContext(ctx, query,
		poll.EventID, poll.Question, poll.AllowMultipleChoice, poll.ShowResultsAutomatically,
		timer, poll.CreatedAt, poll.UpdatedAt).Scan(&poll.ID); err != nil {
		return err
	}

	for i, option := range poll.Options {
		option.PollID = poll.ID
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO poll_options (poll_id, text, votes_count, position) VALUES ($1, $2, 0, $3) RETURNING id`,
			poll.ID, option.Text, i).Scan(&option.ID); err != nil {
			return fmt.Errorf("insert poll option: %w", err)
		}
	}

	return tx.Commit()
}

func (r *pollRepository) GetByID(ctx context.Context, id string) (*domain.Poll, error) {
	query := `
		SELECT ` + pollColumns + `
		FROM polls
		WHERE id = $1
	`
	poll, err := scanPoll(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.attachOptions(ctx, []*domain.Poll{poll}); err != nil {
		return nil, err
	}
	return poll, nil
}

func (r *pollRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Poll, error) {
	query := `
		SELECT ` + pollColumns + `
		FROM polls
		WHERE event_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var polls []*domain.Poll
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if polls == nil {
		return []*domain.Poll{}, nil
	}
	if err := r.attachOptions(ctx, polls); err != nil {
		return nil, err
	}
	return polls, nil
}

func (r *pollRepository) GetActiveByEventID(ctx context.Context, eventID string) (*domain.Poll, error) {
	query := `
		SELECT ` + pollColumns + `
		FROM polls
		WHERE event_id = $1 AND is_active = TRUE
		LIMIT 1
	`
	poll, err := scanPoll(r.DB.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.attachOptions(ctx, []*domain.Poll{poll}); err != nil {
		return nil, err
	}
	return poll, nil
}

// attachOptions loads the options of every poll in one query, ordered by
// their position within each poll.
func (r *pollRepository) attachOptions(ctx context.Context, polls []*domain.Poll) error {
	pollIDs := make([]string, 0, len(polls))
	byID := make(map[string]*domain.Poll, len(polls))
	for _, poll := range polls {
		pollIDs = append(pollIDs, poll.ID)
		byID[poll.ID] = poll
		poll.Options = []*domain.PollOption{}
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, poll_id, text, votes_count FROM poll_options WHERE poll_id = ANY($1) ORDER BY position ASC`,
		pq.Array(pollIDs))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		option := &domain.PollOption{}
		if err := rows.Scan(&option.ID, &option.PollID, &option.Text, &option.VotesCount); err != nil {
			return err
		}
		if poll, ok := byID[option.PollID]; ok {
			poll.Options = append(poll.Options, option)
		}
	}
	return rows.Err()
}

func (r *pollRepository) DeactivateAllForEvent(ctx context.Context, eventID string) error {
	query := `
		UPDATE polls
		SET is_active = FALSE, activated_at = NULL, expires_at = NULL, updated_at = NOW()
		WHERE event_id = $1 AND is_active = TRUE
	`
	_, err := r.DB.ExecContext(ctx, query, eventID)
	return err
}

func (r *pollRepository) SetActive(ctx context.Context, pollID string, isActive bool, activatedAt, expiresAt *time.Time) error {
	query := `
		UPDATE polls
		SET is_active = $2, activated_at = $3, expires_at = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, pollID, isActive, activatedAt, expiresAt)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pollRepository) Delete(ctx context.Context, pollID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM poll_votes WHERE poll_id = $1`, pollID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM poll_options WHERE poll_id = $1`, pollID); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM polls WHERE id = $1`, pollID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit()
}

func (r *pollRepository) ListExpiredActive(ctx context.Context, now time.Time) ([]*domain.Poll, error) {
	query := `
		SELECT ` + pollColumns + `
		FROM polls
		WHERE is_active = TRUE AND expires_at IS NOT NULL AND expires_at <= $1
	`
	rows, err := r.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var polls []*domain.Poll
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if polls == nil {
		polls = []*domain.Poll{}
	}
	return polls, nil
}

func (r *pollRepository) ListVotes(ctx context.Context, pollID, participantIdentifier string) ([]*domain.PollVote, error) {
	query := `
		SELECT id, poll_id, poll_option_id, participant_identifier, created_at
		FROM poll_votes
		WHERE poll_id = $1 AND participant_identifier = $2
	`
	rows, err := r.DB.QueryContext(ctx, query, pollID, participantIdentifier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []*domain.PollVote
	for rows.Next() {
		vote := &domain.PollVote{}
		if err := rows.Scan(&vote.ID, &vote.PollID, &vote.PollOptionID, &vote.ParticipantIdentifier, &vote.CreatedAt); err != nil {
			return nil, err
		}
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if votes == nil {
		votes = []*domain.PollVote{}
	}
	return votes, nil
}

func (r *pollRepository) InsertVote(ctx context.Context, vote *domain.PollVote) error {
	// Row insert and counter increments commit together so votes_count and
	// total_votes never drift from the row count.
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO poll_votes (poll_id, poll_option_id, participant_identifier, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, query,
		vote.PollID, vote.PollOptionID, vote.ParticipantIdentifier, vote.CreatedAt).Scan(&vote.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE poll_options SET votes_count = votes_count + 1 WHERE id = $1`, vote.PollOptionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE polls SET total_votes = total_votes + 1, updated_at = NOW() WHERE id = $1`, vote.PollID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *pollRepository) DeleteVote(ctx context.Context, vote *domain.PollVote, decrementTotal bool) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM poll_votes WHERE id = $1`, vote.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE poll_options SET votes_count = GREATEST(votes_count - 1, 0) WHERE id = $1`, vote.PollOptionID); err != nil {
		return err
	}
	if decrementTotal {
		if _, err := tx.ExecContext(ctx,
			`UPDATE polls SET total_votes = GREATEST(total_votes - 1, 0), updated_at = NOW() WHERE id = $1`, vote.PollID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *pollRepository) CountPollsVotedByIdentifier(ctx context.Context, eventID, identifier string) (int, error) {
	query := `
		SELECT COUNT(DISTINCT v.poll_id)
		FROM poll_votes v
		JOIN polls p ON p.id = v.poll_id
		WHERE p.event_id = $1 AND v.participant_identifier = $2
	`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, eventID, identifier).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
