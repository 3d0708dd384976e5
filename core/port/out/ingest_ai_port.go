package out

import (
	"context"

	"ingest_server/core/domain"
)

// ClassifyInput carries the email fields the classifier sees.
type ClassifyInput struct {
	Subject         string
	From            string
	To              []string
	BccCount        int
	AttachmentNames []string
	Body            string
	IsSent          bool
}

// ExtractInput carries one CV document plus its email context for
// structured extraction.
type ExtractInput struct {
	MessageID string
	Filename  string
	MimeType  string
	Content   []byte
	Subject   string
	Body      string
}

// ExtractResult is the extraction output plus the call metadata that goes
// into the audit log.
type ExtractResult struct {
	Extraction       *domain.CandidateExtraction
	Model            string
	PromptTokens     int
	CompletionTokens int
	RawResponse      string
}

// DocumentAIPort abstracts the AI provider for classification and CV
// extraction.
type DocumentAIPort interface {
	Classify(ctx context.Context, in ClassifyInput) (*domain.Classification, error)
	Extract(ctx context.Context, in ExtractInput) (*ExtractResult, error)
}
