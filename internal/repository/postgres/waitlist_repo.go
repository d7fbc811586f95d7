package postgres

import (
	"context"
	"database/sql"

	"liveparticipation/internal/domain"
)

type waitlistRepository struct {
	DB *sql.DB
}

func NewWaitlistRepository(db *sql.DB) domain.WaitlistRepository {
	return &waitlistRepository{
		DB: db,
	}
}

func (r *waitlistRepository) Create(ctx context.Context, entry *domain.WaitlistEntry) error {
	query := `
		INSERT INTO waitlist_entries (event_id, name, whatsapp, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, entry.EventID, entry.Name, entry.Whatsapp, entry.CreatedAt).
		Scan(&entry.ID)
}

func (r *waitlistRepository) Exists(ctx context.Context, eventID, name, whatsapp string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM waitlist_entries
			WHERE event_id = $1 AND (LOWER(name) = LOWER($2) OR whatsapp = $3)
		)
	`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, eventID, name, whatsapp).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *waitlistRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.WaitlistEntry, error) {
	query := `
		SELECT id, event_id, name, whatsapp, created_at
		FROM waitlist_entries
		WHERE event_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.WaitlistEntry
	for rows.Next() {
		entry := &domain.WaitlistEntry{}
		if err := rows.Scan(&entry.ID, &entry.EventID, &entry.Name, &entry.Whatsapp, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.WaitlistEntry{}
	}
	return entries, nil
}
