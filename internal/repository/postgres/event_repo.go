package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"liveparticipation/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, name, owner_id, start_at, status, COALESCE(participant_limit, 0),
	confirmation_deadline, require_check_in, check_in_window_hours, check_in_deadline_minutes,
	created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	event := &domain.Event{}
	var deadline sql.NullTime
	err := row.Scan(
		&event.ID, &event.Name, &event.OwnerID, &event.StartAt, &event.Status,
		&event.ParticipantLimit, &deadline, &event.RequireCheckIn,
		&event.CheckInWindowHours, &event.CheckInDeadlineMinutes,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		event.ConfirmationDeadline = &deadline.Time
	}
	return event, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1 AND deleted_at IS NULL
	`
	event, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *eventRepository) ListCheckInSweepCandidates(ctx context.Context, now time.Time) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE deleted_at IS NULL
		  AND require_check_in = TRUE
		  AND status <> 'ended'
		  AND start_at - (check_in_deadline_minutes * interval '1 minute') <= $1
	`
	rows, err := r.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}
