// Package pipeline ingests mailbox messages: classify, dispatch to the
// matching branch, record in the processed-message ledger.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"ingest_server/core/domain"
	"ingest_server/core/port/out"
	"ingest_server/pkg/apperr"
	"ingest_server/pkg/logger"
)

const (
	lockName = "email-pipeline"

	// Query fragments for the two mailbox views. Trash and spam never
	// enter the pipeline; sent mail is fetched separately so the offer
	// branch sees it.
	inboxQuery = "-in:trash -in:spam -in:sent"
	sentQuery  = "in:sent"

	bodyPreviewLen = 500
)

type Config struct {
	SyncMarginHours int
	MaxResults      int
	LockTTLSec      int
}

type Service struct {
	mailbox out.MailboxPort
	ai      out.DocumentAIPort
	ledger  out.ProcessedMessageRepository
	state   out.MailboxStateRepository
	cands   out.CandidateRepository
	offers  out.JobOfferRepository
	store   out.DocumentStorePort
	locks   out.RunLockPort
	cfg     Config
	log     *logger.Logger

	// Label ids fetched once per run, on first use.
	labelIDs map[string]string
}

func NewService(
	mailbox out.MailboxPort,
	ai out.DocumentAIPort,
	ledger out.ProcessedMessageRepository,
	state out.MailboxStateRepository,
	cands out.CandidateRepository,
	offers out.JobOfferRepository,
	store out.DocumentStorePort,
	locks out.RunLockPort,
	cfg Config,
) *Service {
	if cfg.SyncMarginHours == 0 {
		cfg.SyncMarginHours = 24
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = 10000
	}
	if cfg.LockTTLSec == 0 {
		cfg.LockTTLSec = 3600
	}
	return &Service{
		mailbox: mailbox,
		ai:      ai,
		ledger:  ledger,
		state:   state,
		cands:   cands,
		offers:  offers,
		store:   store,
		locks:   locks,
		cfg:     cfg,
		log:     logger.WithField("component", "pipeline"),
	}
}

// RunParams narrows one run to an explicit window. Zero values mean
// "resume from the stored cursor".
type RunParams struct {
	After      string // YYYY/MM/DD
	Before     string // YYYY/MM/DD
	MaxResults int
}

// Run executes one ingestion pass. Individual message failures are
// recorded and counted but never abort the run; the sync cursor advances
// regardless so a poisoned message cannot wedge the pipeline.
func (s *Service) Run(ctx context.Context, params RunParams) (*domain.PipelineResult, error) {
	acquired, err := s.locks.Acquire(ctx, lockName, s.cfg.LockTTLSec)
	if err != nil {
		return nil, apperr.ExternalError("run lock", err)
	}
	if !acquired {
		return nil, apperr.Conflict("an email pipeline run is already in progress")
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), lockName); err != nil {
			s.log.WithError(err).Warn("failed to release pipeline lock")
		}
	}()

	start := time.Now()
	s.labelIDs = nil

	mailboxState, err := s.state.GetActive(ctx)
	if err != nil {
		return nil, apperr.DatabaseError("load mailbox state", err)
	}

	dateFilter := s.dateFilter(params, mailboxState)
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = s.cfg.MaxResults
	}

	ids, err := s.collectMessageIDs(ctx, dateFilter, maxResults)
	if err != nil {
		return nil, err
	}

	unprocessed, err := s.ledger.FilterUnprocessed(ctx, ids)
	if err != nil {
		return nil, apperr.DatabaseError("filter processed messages", err)
	}
	s.log.WithField("listed", len(ids)).WithField("new", len(unprocessed)).Info("pipeline run starting")

	result := &domain.PipelineResult{Skipped: len(ids) - len(unprocessed)}
	for _, id := range unprocessed {
		classification, err := s.processMessage(ctx, id)
		if err != nil {
			result.Errors = append(result.Errors, domain.PipelineError{MessageID: id, Error: err.Error()})
			if recErr := s.ledger.RecordFailed(ctx, id, err.Error()); recErr != nil {
				s.log.WithError(recErr).WithField("message_id", id).Error("failed to record failure")
			}
			continue
		}

		result.Processed++
		switch classification.Classification {
		case domain.ClassificationCV:
			result.CV++
		case domain.ClassificationJobOffer:
			result.JobOffer++
		case domain.ClassificationResponse:
			result.Response++
		default:
			result.Other++
		}
		result.Details = append(result.Details, domain.PipelineDetail{
			MessageID:      id,
			Classification: classification.Classification,
			Confidence:     classification.Confidence,
		})
	}

	// The cursor always moves: failed messages are in the ledger and
	// will not be retried, so there is nothing left behind to re-scan.
	if err := s.state.UpdateLastSync(ctx, mailboxState.ID, time.Now()); err != nil {
		s.log.WithError(err).Error("failed to advance sync cursor")
	}

	result.DurationMs = time.Since(start).Milliseconds()
	s.log.WithField("processed", result.Processed).
		WithField("errors", len(result.Errors)).
		WithDuration(time.Since(start)).
		Info("pipeline run finished")
	return result, nil
}

// dateFilter builds the provider date clause: explicit window if given,
// otherwise the cursor minus a safety margin to absorb clock skew and
// late-arriving mail.
func (s *Service) dateFilter(params RunParams, state *domain.MailboxState) string {
	filter := ""
	if params.After != "" {
		filter += " after:" + params.After
	}
	if params.Before != "" {
		filter += " before:" + params.Before
	}
	if filter != "" {
		return filter
	}

	if state.LastSyncAt != nil {
		margin := time.Duration(s.cfg.SyncMarginHours) * time.Hour
		return " after:" + state.LastSyncAt.Add(-margin).Format("2006/01/02")
	}
	return ""
}

// collectMessageIDs lists inbox and sent mail and merges them, dropping
// duplicates while preserving order.
func (s *Service) collectMessageIDs(ctx context.Context, dateFilter string, max int) ([]string, error) {
	inbox, err := s.mailbox.ListMessageIDs(ctx, inboxQuery+dateFilter, max)
	if err != nil {
		return nil, apperr.ExternalError("list inbox messages", err)
	}
	sent, err := s.mailbox.ListMessageIDs(ctx, sentQuery+dateFilter, max)
	if err != nil {
		return nil, apperr.ExternalError("list sent messages", err)
	}

	seen := make(map[string]bool, len(inbox)+len(sent))
	ids := make([]string, 0, len(inbox)+len(sent))
	for _, id := range append(inbox, sent...) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// processMessage handles one message end to end. The ledger row is
// written only after the branch work commits, so a crash mid-branch
// leaves the message eligible for a clean retry on the next run.
func (s *Service) processMessage(ctx context.Context, messageID string) (*domain.Classification, error) {
	msg, err := s.mailbox.GetMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("fetch message: %w", err)
	}

	attachmentNames := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		attachmentNames = append(attachmentNames, a.Filename)
	}

	classification, err := s.ai.Classify(ctx, out.ClassifyInput{
		Subject:         msg.Subject,
		From:            msg.From,
		To:              msg.To,
		BccCount:        len(msg.Bcc),
		AttachmentNames: attachmentNames,
		Body:            msg.Body,
		IsSent:          msg.IsSent,
	})
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	switch classification.Classification {
	case domain.ClassificationCV:
		err = s.handleCV(ctx, msg)
	case domain.ClassificationJobOffer:
		// Only mail the school actually sent counts as an offer; an
		// inbound message misclassified as one is just recorded.
		if msg.IsSent {
			err = s.handleJobOffer(ctx, msg)
		}
	case domain.ClassificationResponse:
		err = s.handleResponse(ctx, msg)
	}
	if err != nil {
		return nil, err
	}

	if err := s.ledger.RecordCompleted(ctx, messageID, classification); err != nil {
		return nil, fmt.Errorf("record completion: %w", err)
	}
	return classification, nil
}

func preview(body string) string {
	if len(body) > bodyPreviewLen {
		return body[:bodyPreviewLen]
	}
	return body
}
