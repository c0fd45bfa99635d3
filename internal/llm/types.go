package llm

import (
	"context"
	"errors"
)

var ErrMissingAPIKey = errors.New("openai api key is not configured")

type Provider interface {
	// Analyze sends the messages to the model and returns its reply
	Analyze(ctx context.Context, systemMessages []string, userMessages []string, opts ...Option) (*Response, error)
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// Option overrides the configured request settings for one call.
type Option func(*Options)

type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

type Response struct {
	Content string
	Usage   Usage
}
