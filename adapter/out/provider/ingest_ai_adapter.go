// Package provider implements external service adapters for the pipeline.
package provider

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"ingest_server/core/agent/llm"
	"ingest_server/core/domain"
	"ingest_server/core/port/out"
	"ingest_server/pkg/logger"
)

// AIAdapter implements out.DocumentAIPort on top of the OpenAI client,
// with a circuit breaker so a degraded model API fails the run fast
// instead of burning the whole message batch on timeouts.
type AIAdapter struct {
	client *llm.Client
	cb     *gobreaker.CircuitBreaker
	log    *logger.Logger
}

func NewAIAdapter(client *llm.Client) *AIAdapter {
	log := logger.WithField("component", "ai-adapter")

	cbSettings := gobreaker.Settings{
		Name:        "openai-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithField("breaker", name).
				WithField("from", from.String()).
				WithField("to", to.String()).
				Warn("circuit breaker state changed")
		},
	}

	return &AIAdapter{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(cbSettings),
		log:    log,
	}
}

func (a *AIAdapter) Classify(ctx context.Context, in out.ClassifyInput) (*domain.Classification, error) {
	result, err := a.cb.Execute(func() (any, error) {
		return a.client.ClassifyEmail(ctx, in.Subject, in.Body, in.From, in.To, in.BccCount, in.AttachmentNames, in.IsSent)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Classification), nil
}

func (a *AIAdapter) Extract(ctx context.Context, in out.ExtractInput) (*out.ExtractResult, error) {
	result, err := a.cb.Execute(func() (any, error) {
		return a.client.ExtractCandidate(ctx, in.Content, in.MimeType, in.Subject, in.Body)
	})
	if err != nil {
		return nil, err
	}

	outcome := result.(*llm.ExtractionOutcome)
	return &out.ExtractResult{
		Extraction:       outcome.Extraction,
		Model:            outcome.Model,
		PromptTokens:     outcome.PromptTokens,
		CompletionTokens: outcome.CompletionTokens,
		RawResponse:      outcome.RawResponse,
	}, nil
}
