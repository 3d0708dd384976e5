package pipeline

import (
	"context"
	"fmt"

	"ingest_server/core/domain"
	"ingest_server/core/port/out"
)

// handleJobOffer records an outbound offer mailing and links it to every
// BCC recipient already known as a candidate. Unknown recipients are kept
// on the offer row only.
func (s *Service) handleJobOffer(ctx context.Context, msg *out.MailMessage) error {
	offer := &domain.JobOffer{
		MessageID:     msg.ID,
		Subject:       msg.Subject,
		BodyPreview:   preview(msg.Body),
		SentDate:      msg.Date,
		BccRecipients: msg.Bcc,
	}
	if err := s.offers.Insert(ctx, offer); err != nil {
		return fmt.Errorf("insert job offer: %w", err)
	}

	matched, err := s.cands.ListByEmails(ctx, msg.Bcc)
	if err != nil {
		return fmt.Errorf("match bcc recipients: %w", err)
	}

	for _, c := range matched {
		if err := s.offers.LinkCandidate(ctx, offer.ID, c.ID); err != nil {
			return fmt.Errorf("link candidate %s: %w", c.Email, err)
		}
		if err := s.cands.InsertEmail(ctx, &domain.CandidateEmail{
			CandidateID: c.ID,
			MessageID:   msg.ID,
			Direction:   domain.EmailOutbound,
			Subject:     msg.Subject,
			FromEmail:   msg.From,
			ToEmails:    []string{c.Email},
			BodyPreview: preview(msg.Body),
			SentDate:    msg.Date,
		}); err != nil {
			return fmt.Errorf("insert outbound email for %s: %w", c.Email, err)
		}
		if err := s.cands.UpdateLastContact(ctx, c.ID, msg.Date); err != nil {
			return fmt.Errorf("update last contact for %s: %w", c.Email, err)
		}
	}
	return nil
}

// handleResponse links an inbound reply to the candidate who sent it.
// Replies from addresses we have never seen a CV from are left alone.
func (s *Service) handleResponse(ctx context.Context, msg *out.MailMessage) error {
	candidate, err := s.cands.GetByEmail(ctx, msg.From)
	if err != nil {
		return fmt.Errorf("look up sender: %w", err)
	}
	if candidate == nil {
		return nil
	}

	if err := s.cands.InsertEmail(ctx, &domain.CandidateEmail{
		CandidateID: candidate.ID,
		MessageID:   msg.ID,
		Direction:   domain.EmailInbound,
		Subject:     msg.Subject,
		FromEmail:   msg.From,
		ToEmails:    msg.To,
		BodyPreview: preview(msg.Body),
		SentDate:    msg.Date,
	}); err != nil {
		return fmt.Errorf("insert inbound email: %w", err)
	}
	if err := s.cands.UpdateLastResponse(ctx, candidate.ID, msg.Date); err != nil {
		return fmt.Errorf("update last response: %w", err)
	}
	return nil
}
