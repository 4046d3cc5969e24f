package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository writes audit events to the audit_events table.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return nil
	}
	return &Repository{db: db}
}

func (r *Repository) Publish(ctx context.Context, event Event) error {
	const op = "audit.Repository.Publish"

	if r == nil || r.db == nil {
		return errors.New("audit repo: nil db")
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if len(event.Context) == 0 {
		event.Context = []byte("{}")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, name, application_id, performing_user_id, context, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID.String(), event.Name, event.ApplicationID.String(), event.PerformingUserID.String(),
		string(event.Context), event.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: insert %s: %w", op, event.Name, err)
	}

	return nil
}
