package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"liveparticipation/internal/domain"
)

type confirmationRepository struct {
	DB *sql.DB
}

func NewConfirmationRepository(db *sql.DB) domain.ConfirmationRepository {
	return &confirmationRepository{
		DB: db,
	}
}

func (r *confirmationRepository) Upsert(ctx context.Context, c *domain.Confirmation) error {
	// A repeat RSVP for the same (event, email) mutates the existing row
	// instead of inserting a duplicate; checked_in and no_show are preserved.
	query := `
		INSERT INTO confirmations (event_id, participant_email, participant_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id, participant_email) DO UPDATE
		SET participant_name = EXCLUDED.participant_name,
		    status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, checked_in, check_in_time, no_show, created_at
	`
	var checkInTime sql.NullTime
	err := r.DB.QueryRowContext(ctx, query,
		c.EventID, c.ParticipantEmail, c.ParticipantName, c.Status, c.CreatedAt, c.UpdatedAt).
		Scan(&c.ID, &c.CheckedIn, &checkInTime, &c.NoShow, &c.CreatedAt)
	if err != nil {
		return err
	}
	if checkInTime.Valid {
		c.CheckInTime = &checkInTime.Time
	} else {
		c.CheckInTime = nil
	}
	return nil
}

const confirmationColumns = `id, event_id, participant_email, participant_name, status,
	checked_in, check_in_time, no_show, created_at, updated_at`

func scanConfirmation(row interface{ Scan(...any) error }) (*domain.Confirmation, error) {
	c := &domain.Confirmation{}
	var checkInTime sql.NullTime
	err := row.Scan(
		&c.ID, &c.EventID, &c.ParticipantEmail, &c.ParticipantName, &c.Status,
		&c.CheckedIn, &checkInTime, &c.NoShow, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if checkInTime.Valid {
		c.CheckInTime = &checkInTime.Time
	}
	return c, nil
}

func (r *confirmationRepository) GetByID(ctx context.Context, id string) (*domain.Confirmation, error) {
	query := `
		SELECT ` + confirmationColumns + `
		FROM confirmations
		WHERE id = $1
	`
	c, err := scanConfirmation(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *confirmationRepository) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.Confirmation, error) {
	query := `
		SELECT ` + confirmationColumns + `
		FROM confirmations
		WHERE event_id = $1 AND participant_email = $2
	`
	c, err := scanConfirmation(r.DB.QueryRowContext(ctx, query, eventID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *confirmationRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Confirmation, error) {
	query := `
		SELECT ` + confirmationColumns + `
		FROM confirmations
		WHERE event_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var confirmations []*domain.Confirmation
	for rows.Next() {
		c, err := scanConfirmation(rows)
		if err != nil {
			return nil, err
		}
		confirmations = append(confirmations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if confirmations == nil {
		confirmations = []*domain.Confirmation{}
	}
	return confirmations, nil
}

func (r *confirmationRepository) CountGoing(ctx context.Context, eventID, excludeEmail string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM confirmations
		WHERE event_id = $1 AND status = 'going' AND participant_email <> $2
	`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, eventID, excludeEmail).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *confirmationRepository) SetCheckedIn(ctx context.Context, id string, checkedIn bool, checkInTime *time.Time) error {
	query := `
		UPDATE confirmations
		SET checked_in = $2, check_in_time = $3, no_show = FALSE, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, id, checkedIn, checkInTime)
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

func (r *confirmationRepository) ReleaseNoShows(ctx context.Context, eventID string) (int, error) {
	query := `
		UPDATE confirmations
		SET status = 'declined', no_show = TRUE, updated_at = NOW()
		WHERE event_id = $1 AND status = 'going' AND checked_in = FALSE
	`
	result, err := r.DB.ExecContext(ctx, query, eventID)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
