// Package gmail provides the Gmail API mailbox adapter.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"ingest_server/core/port/out"
	"ingest_server/pkg/httputil"
)

const listPageSize = 100

// Attachment types worth extracting. Everything else (inline images,
// signatures) is noise.
var documentMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// Provider implements out.MailboxPort against a single mailbox using the
// offline refresh-token flow. No per-user token storage: the mailbox is a
// fixed piece of infrastructure configured at deploy time.
type Provider struct {
	service *gmail.Service
	email   string
}

type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

func NewProvider(ctx context.Context, creds Credentials) (*Provider, error) {
	cfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailModifyScope},
	}
	baseCtx := context.WithValue(ctx, oauth2.HTTPClient, httputil.GmailClient())
	ts := cfg.TokenSource(baseCtx, &oauth2.Token{RefreshToken: creds.RefreshToken})

	service, err := gmail.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(baseCtx, ts)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	profile, err := service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get mailbox profile: %w", err)
	}

	return &Provider{
		service: service,
		email:   profile.EmailAddress,
	}, nil
}

// Email returns the mailbox address.
func (p *Provider) Email() string {
	return p.email
}

// ListMessageIDs pages through the query until max ids are collected or
// the result set is exhausted.
func (p *Provider) ListMessageIDs(ctx context.Context, query string, max int) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		req := p.service.Users.Messages.List("me").Q(query).MaxResults(listPageSize)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		resp, err := req.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
			if max > 0 && len(ids) >= max {
				return ids, nil
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			return ids, nil
		}
	}
}

// GetMessage fetches a full message and flattens its MIME tree.
func (p *Provider) GetMessage(ctx context.Context, messageID string) (*out.MailMessage, error) {
	msg, err := p.service.Users.Messages.Get("me", messageID).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return parseMessage(msg), nil
}

// GetAttachment fetches and decodes attachment bytes.
func (p *Provider) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	att, err := p.service.Users.Messages.Attachments.Get("me", messageID, attachmentID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}
	return decodeBody(att.Data)
}

// ListLabels retrieves all labels defined on the mailbox.
func (p *Provider) ListLabels(ctx context.Context) ([]out.MailLabel, error) {
	resp, err := p.service.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	labels := make([]out.MailLabel, len(resp.Labels))
	for i, l := range resp.Labels {
		labels[i] = out.MailLabel{ID: l.Id, Name: l.Name}
	}
	return labels, nil
}

// AddLabels applies label ids to a message.
func (p *Provider) AddLabels(ctx context.Context, messageID string, labelIDs []string) error {
	if len(labelIDs) == 0 {
		return nil
	}
	_, err := p.service.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		AddLabelIds: labelIDs,
	}).Context(ctx).Do()
	return err
}

// ===== Message Parsing =====

func parseMessage(msg *gmail.Message) *out.MailMessage {
	m := &out.MailMessage{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Date:     time.UnixMilli(msg.InternalDate),
		IsSent:   contains(msg.LabelIds, "SENT"),
	}

	if msg.Payload == nil {
		return m
	}

	// Header names are case-insensitive on the wire; servers emit
	// "From" and "from" alike.
	for _, header := range msg.Payload.Headers {
		switch strings.ToLower(header.Name) {
		case "from":
			m.From = extractAddress(header.Value)
		case "to":
			m.To = parseAddresses(header.Value)
		case "bcc":
			m.Bcc = parseAddresses(header.Value)
		case "subject":
			m.Subject = header.Value
		}
	}

	m.Body = parseBody(msg.Payload)
	m.Attachments = parseAttachments(msg.Payload, nil)
	return m
}

// parseBody walks the MIME tree preferring text/plain over text/html.
func parseBody(payload *gmail.MessagePart) string {
	if text := findBodyPart(payload, "text/plain"); text != "" {
		return text
	}
	return findBodyPart(payload, "text/html")
}

func findBodyPart(part *gmail.MessagePart, mimeType string) string {
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		if data, err := decodeBody(part.Body.Data); err == nil {
			return string(data)
		}
	}
	for _, p := range part.Parts {
		if body := findBodyPart(p, mimeType); body != "" {
			return body
		}
	}
	return ""
}

func parseAttachments(part *gmail.MessagePart, acc []out.MailAttachment) []out.MailAttachment {
	if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
		if documentMimeTypes[part.MimeType] || hasDocumentExtension(part.Filename) {
			acc = append(acc, out.MailAttachment{
				AttachmentID: part.Body.AttachmentId,
				Filename:     part.Filename,
				MimeType:     part.MimeType,
				Size:         part.Body.Size,
			})
		}
	}
	for _, p := range part.Parts {
		acc = parseAttachments(p, acc)
	}
	return acc
}

func hasDocumentExtension(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".pdf") ||
		strings.HasSuffix(lower, ".doc") ||
		strings.HasSuffix(lower, ".docx")
}

// decodeBody handles both url-safe and standard base64, padded or not.
func decodeBody(data string) ([]byte, error) {
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return b, nil
	}
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(data)
}

func parseAddresses(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	addrs := make([]string, 0, len(parts))
	for _, p := range parts {
		if addr := extractAddress(p); addr != "" {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// extractAddress pulls the bare lowercase address out of a header value
// like `"Nom Cognom" <nom@example.com>`.
func extractAddress(value string) string {
	v := strings.TrimSpace(value)
	if start := strings.Index(v, "<"); start >= 0 {
		if end := strings.Index(v[start:], ">"); end > 0 {
			v = v[start+1 : start+end]
		}
	}
	return strings.ToLower(strings.TrimSpace(v))
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
