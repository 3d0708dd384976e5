package domain

import (
	"time"

	"github.com/google/uuid"
)

// Processing outcome of one mailbox message.
const (
	MessageCompleted = "completed"
	MessageFailed    = "failed"
)

// ProcessedMessage is one ledger row. A message id present here is never
// reprocessed, regardless of outcome.
type ProcessedMessage struct {
	ID             uuid.UUID `json:"id"`
	MessageID      string    `json:"message_id"`
	Status         string    `json:"status"`
	Classification *string   `json:"classification,omitempty"`
	Confidence     *float64  `json:"confidence,omitempty"`
	ErrorMessage   *string   `json:"error_message,omitempty"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// MailboxState is the sync cursor for the single configured mailbox.
type MailboxState struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	IsActive   bool       `json:"is_active"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

// PipelineError records one message that failed during a run.
type PipelineError struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// PipelineDetail records the outcome of one successfully handled message.
type PipelineDetail struct {
	MessageID      string  `json:"message_id"`
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
}

// PipelineResult summarizes one ingestion run.
type PipelineResult struct {
	Processed  int              `json:"processed"`
	CV         int              `json:"cv"`
	JobOffer   int              `json:"job_offer"`
	Response   int              `json:"response"`
	Other      int              `json:"other"`
	Skipped    int              `json:"skipped"`
	DurationMs int64            `json:"duration_ms"`
	Errors     []PipelineError  `json:"errors,omitempty"`
	Details    []PipelineDetail `json:"details,omitempty"`
}
