package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"ingest_server/pkg/httputil"
)

type Client struct {
	client        *openai.Client
	classifyModel string
	extractModel  string
	maxTokens     int
	temperature   float32
}

type ClientConfig struct {
	APIKey        string
	ClassifyModel string
	ExtractModel  string
	MaxTokens     int
	Temperature   float64
}

const (
	DefaultClassifyModel = "gpt-4o-mini"
	DefaultExtractModel  = "gpt-4o"
)

func NewClientWithConfig(cfg ClientConfig) *Client {
	classifyModel := cfg.ClassifyModel
	if classifyModel == "" {
		classifyModel = DefaultClassifyModel
	}
	extractModel := cfg.ExtractModel
	if extractModel == "" {
		extractModel = DefaultExtractModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	openaiCfg := openai.DefaultConfig(cfg.APIKey)
	openaiCfg.HTTPClient = httputil.OpenAIClient()

	return &Client{
		client:        openai.NewClientWithConfig(openaiCfg),
		classifyModel: classifyModel,
		extractModel:  extractModel,
		maxTokens:     maxTokens,
		temperature:   float32(cfg.Temperature),
	}
}

// completion carries the response content plus token accounting for the
// extraction audit log.
type completion struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

func (c *Client) completeWithSystem(ctx context.Context, model, systemPrompt, userPrompt string) (*completion, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	out := &completion{
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
	}
	return out, nil
}

func truncateBody(body string, maxLen int) string {
	if len(body) <= maxLen {
		return body
	}
	return body[:maxLen] + "..."
}
