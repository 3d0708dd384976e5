package out

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ingest_server/core/domain"
)

// StudentRepository manages canonical roster rows.
type StudentRepository interface {
	ListActive(ctx context.Context) ([]*domain.Student, error)

	// Upsert inserts or updates a student by external portal id, marking
	// it active and stamping the sync time.
	Upsert(ctx context.Context, s *domain.ScrapedStudent, syncedAt time.Time) error

	// DeactivateMissing clears is_active on students whose portal id is
	// not in keep. Returns how many rows changed.
	DeactivateMissing(ctx context.Context, keep []int64) (int, error)
}

// SchoolYearRepository resolves the active school year.
type SchoolYearRepository interface {
	Current(ctx context.Context) (*domain.SchoolYear, error)
}

// YearlyRecordRepository upserts transfer records, one per student per year.
type YearlyRecordRepository interface {
	Upsert(ctx context.Context, r *domain.YearlyRecord) error
}

// SupportRecordRepository upserts support records, one per student per year.
type SupportRecordRepository interface {
	Upsert(ctx context.Context, r *domain.SupportRecord) error
}

// ProcessedMessageRepository is the idempotency ledger for the pipeline.
type ProcessedMessageRepository interface {
	// FilterUnprocessed returns the subset of ids with no ledger row.
	FilterUnprocessed(ctx context.Context, messageIDs []string) ([]string, error)

	RecordCompleted(ctx context.Context, messageID string, c *domain.Classification) error
	RecordFailed(ctx context.Context, messageID, errMsg string) error
}

// CandidateRepository manages candidates and their satellite tables.
type CandidateRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Candidate, error)
	ListByEmails(ctx context.Context, emails []string) ([]*domain.Candidate, error)
	Insert(ctx context.Context, c *domain.Candidate) error
	Update(ctx context.Context, c *domain.Candidate) error

	ReplaceStages(ctx context.Context, candidateID uuid.UUID, stages []string) error
	ReplaceLanguages(ctx context.Context, candidateID uuid.UUID, langs []domain.ExtractedLanguage) error

	MarkDocumentsSuperseded(ctx context.Context, candidateID uuid.UUID) error
	InsertDocument(ctx context.Context, d *domain.CandidateDocument) error

	InsertEmail(ctx context.Context, e *domain.CandidateEmail) error
	UpdateLastContact(ctx context.Context, candidateID uuid.UUID, at time.Time) error
	UpdateLastResponse(ctx context.Context, candidateID uuid.UUID, at time.Time) error

	InsertExtractionLog(ctx context.Context, l *domain.ExtractionLog) error
}

// JobOfferRepository stores sent offers and their candidate links.
type JobOfferRepository interface {
	Insert(ctx context.Context, o *domain.JobOffer) error
	LinkCandidate(ctx context.Context, offerID, candidateID uuid.UUID) error
}

// SyncLogRepository appends roster sync audit rows.
type SyncLogRepository interface {
	Insert(ctx context.Context, l *domain.SyncLog) error
}

// MailboxStateRepository manages the mailbox sync cursor.
type MailboxStateRepository interface {
	GetActive(ctx context.Context) (*domain.MailboxState, error)
	UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error
}
