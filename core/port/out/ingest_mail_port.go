package out

import (
	"context"
	"time"
)

// MailAttachment is attachment metadata from a provider message. Content
// is fetched separately by attachment id.
type MailAttachment struct {
	AttachmentID string
	Filename     string
	MimeType     string
	Size         int64
}

// MailMessage is a fully fetched mailbox message, flattened from the
// provider's MIME tree.
type MailMessage struct {
	ID          string
	ThreadID    string
	Subject     string
	From        string
	To          []string
	Bcc         []string
	Body        string
	Date        time.Time
	IsSent      bool
	Attachments []MailAttachment
}

// MailLabel is a provider label available for tagging messages.
type MailLabel struct {
	ID   string
	Name string
}

// MailboxPort abstracts the email provider.
type MailboxPort interface {
	// ListMessageIDs returns ids matching the provider query, newest
	// first, up to max.
	ListMessageIDs(ctx context.Context, query string, max int) ([]string, error)

	// GetMessage fetches a full message including headers and body.
	GetMessage(ctx context.Context, messageID string) (*MailMessage, error)

	// GetAttachment fetches decoded attachment bytes.
	GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)

	// ListLabels returns all labels defined on the mailbox.
	ListLabels(ctx context.Context) ([]MailLabel, error)

	// AddLabels applies label ids to a message.
	AddLabels(ctx context.Context, messageID string, labelIDs []string) error
}
