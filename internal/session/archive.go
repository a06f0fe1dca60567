package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Archive writes ended conversations to PostgreSQL for admin history. The
// live conversation path never depends on it; archiving is best-effort and
// failures are surfaced to the caller for logging only.
type Archive struct {
	db *sql.DB
}

// NewArchive creates a conversation archive. Returns nil when db is nil so
// call sites can stay unconditionally wired.
func NewArchive(db *sql.DB) *Archive {
	if db == nil {
		return nil
	}
	return &Archive{db: db}
}

// Save persists a session and its transcript. Safe on a nil receiver.
func (a *Archive) Save(ctx context.Context, sess *Session) error {
	if a == nil || a.db == nil || sess == nil {
		return nil
	}

	id := uuid.New()
	endedAt := time.Now().UTC()

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO conversations (
			id, session_key, business_type, turn_count, created_at, updated_at, ended_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, sess.Key, sess.BusinessType, len(sess.Turns), sess.CreatedAt, sess.UpdatedAt, endedAt)
	if err != nil {
		return fmt.Errorf("session: failed to archive conversation: %w", err)
	}

	for _, turn := range sess.Turns {
		_, err := a.db.ExecContext(ctx, `
			INSERT INTO conversation_turns (
				id, conversation_id, role, text, created_at
			) VALUES ($1, $2, $3, $4, $5)
		`, uuid.New(), id, string(turn.Role), turn.Text, turn.Timestamp)
		if err != nil {
			return fmt.Errorf("session: failed to archive turn: %w", err)
		}
	}
	return nil
}

// CountConversations reports how many conversations have been archived for a
// business type. The root status endpoint reports it when an archive is
// configured.
func (a *Archive) CountConversations(ctx context.Context, businessType string) (int, error) {
	if a == nil || a.db == nil {
		return 0, nil
	}
	var count int
	err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE business_type = $1`,
		businessType,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("session: failed to count archived conversations: %w", err)
	}
	return count, nil
}
