package persistence

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ingest_server/core/domain"
)

// ===== Job Offer Adapter =====

type JobOfferAdapter struct {
	db *sqlx.DB
}

func NewJobOfferAdapter(db *sqlx.DB) *JobOfferAdapter {
	return &JobOfferAdapter{db: db}
}

func (a *JobOfferAdapter) Insert(ctx context.Context, o *domain.JobOffer) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	// BCC recipients are stored whether or not they matched a candidate;
	// an empty list is stored as NULL.
	var bcc any
	if len(o.BccRecipients) > 0 {
		bcc = pq.Array(o.BccRecipients)
	}
	// On a retry of an already-stored message the existing row wins and
	// its id is read back, so candidate links land on the real offer.
	return a.db.QueryRowxContext(ctx, `
		INSERT INTO job_offers (id, message_id, subject, body_preview, sent_date,
		        bcc_recipients, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (message_id) DO UPDATE SET
		        subject = EXCLUDED.subject,
		        body_preview = EXCLUDED.body_preview,
		        sent_date = EXCLUDED.sent_date,
		        bcc_recipients = EXCLUDED.bcc_recipients
		RETURNING id`,
		o.ID, o.MessageID, o.Subject, o.BodyPreview, o.SentDate, bcc).Scan(&o.ID)
}

func (a *JobOfferAdapter) LinkCandidate(ctx context.Context, offerID, candidateID uuid.UUID) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO job_offer_candidates (id, job_offer_id, candidate_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (job_offer_id, candidate_id) DO NOTHING`,
		uuid.New(), offerID, candidateID)
	return err
}

// ===== Sync Log Adapter =====

type SyncLogAdapter struct {
	db *sqlx.DB
}

func NewSyncLogAdapter(db *sqlx.DB) *SyncLogAdapter {
	return &SyncLogAdapter{db: db}
}

func (a *SyncLogAdapter) Insert(ctx context.Context, l *domain.SyncLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	var details any
	if l.ErrorDetails != nil {
		b, err := json.Marshal(l.ErrorDetails)
		if err != nil {
			return err
		}
		details = string(b)
	}
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO sync_logs (id, sync_type, status, records_total, records_ok,
		        records_error, duration_ms, error_details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		l.ID, l.SyncType, l.Status, l.RecordsTotal, l.RecordsOk,
		l.RecordsError, l.DurationMs, details)
	return err
}
