package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ingest_server/core/domain"
)

// ===== Processed Message Ledger =====

// Chunk size for membership queries against the ledger; keeps the IN
// clause well under parameter limits even for full-history runs.
const filterChunkSize = 100

type ProcessedMessageAdapter struct {
	db *sqlx.DB
}

func NewProcessedMessageAdapter(db *sqlx.DB) *ProcessedMessageAdapter {
	return &ProcessedMessageAdapter{db: db}
}

// FilterUnprocessed returns the ids with no ledger row, preserving the
// caller's order.
func (a *ProcessedMessageAdapter) FilterUnprocessed(ctx context.Context, messageIDs []string) ([]string, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool, len(messageIDs))
	for start := 0; start < len(messageIDs); start += filterChunkSize {
		end := start + filterChunkSize
		if end > len(messageIDs) {
			end = len(messageIDs)
		}
		chunk := messageIDs[start:end]

		query, args, err := sqlx.In(`SELECT message_id FROM processed_messages WHERE message_id IN (?)`, chunk)
		if err != nil {
			return nil, err
		}
		query = a.db.Rebind(query)

		var existing []string
		if err := a.db.SelectContext(ctx, &existing, query, args...); err != nil {
			return nil, err
		}
		for _, id := range existing {
			seen[id] = true
		}
	}

	unprocessed := make([]string, 0, len(messageIDs))
	for _, id := range messageIDs {
		if !seen[id] {
			unprocessed = append(unprocessed, id)
		}
	}
	return unprocessed, nil
}

func (a *ProcessedMessageAdapter) RecordCompleted(ctx context.Context, messageID string, c *domain.Classification) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO processed_messages (id, message_id, status, classification, confidence, processed_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (message_id) DO NOTHING`,
		uuid.New(), messageID, domain.MessageCompleted, c.Classification, c.Confidence)
	return err
}

func (a *ProcessedMessageAdapter) RecordFailed(ctx context.Context, messageID, errMsg string) error {
	// Failure details are capped; stack-trace-sized payloads belong in
	// logs, not the ledger.
	if len(errMsg) > 500 {
		errMsg = errMsg[:500]
	}
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO processed_messages (id, message_id, status, error_message, processed_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (message_id) DO NOTHING`,
		uuid.New(), messageID, domain.MessageFailed, errMsg)
	return err
}

// ===== Mailbox State Adapter =====

type MailboxStateAdapter struct {
	db *sqlx.DB
}

func NewMailboxStateAdapter(db *sqlx.DB) *MailboxStateAdapter {
	return &MailboxStateAdapter{db: db}
}

type mailboxStateEntity struct {
	ID         uuid.UUID    `db:"id"`
	Email      string       `db:"email"`
	IsActive   bool         `db:"is_active"`
	LastSyncAt sql.NullTime `db:"last_sync_at"`
}

func (a *MailboxStateAdapter) GetActive(ctx context.Context) (*domain.MailboxState, error) {
	var e mailboxStateEntity
	err := a.db.GetContext(ctx, &e, `
		SELECT id, email, is_active, last_sync_at
		FROM mailbox_state
		WHERE is_active = true
		LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("no active mailbox configured")
	}
	if err != nil {
		return nil, err
	}

	state := &domain.MailboxState{ID: e.ID, Email: e.Email, IsActive: e.IsActive}
	if e.LastSyncAt.Valid {
		state.LastSyncAt = &e.LastSyncAt.Time
	}
	return state, nil
}

func (a *MailboxStateAdapter) UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := a.db.ExecContext(ctx, `
		UPDATE mailbox_state SET last_sync_at = $1 WHERE id = $2`, at, id)
	return err
}
