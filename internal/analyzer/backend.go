package analyzer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sozercan/qa-mole/internal/config"
	"github.com/sozercan/qa-mole/internal/llm"
)

// Prediction is a backend's raw answer. Score is in [0, 1].
type Prediction struct {
	Answer string
	Score  float64
}

// Backend extracts an answer to question from passage. Implementations must
// be safe for concurrent use.
type Backend interface {
	Answer(ctx context.Context, question, passage string) (Prediction, error)
	Name() string
}

// LoadFunc builds the backend on first use.
type LoadFunc func() (Backend, error)

// BackendLoader returns the LoadFunc for the configured backend.
func BackendLoader(cfg config.Config) LoadFunc {
	return func() (Backend, error) {
		switch cfg.Model.Backend {
		case config.BackendOpenAI:
			provider, err := llm.NewOpenAI(&cfg.OpenAI)
			if err != nil {
				return nil, err
			}
			return NewLLMBackend(provider), nil
		case config.BackendLexical:
			return NewLexical(), nil
		default:
			return nil, fmt.Errorf("unknown backend %q", cfg.Model.Backend)
		}
	}
}

var ErrMalformedOutput = errors.New("model returned malformed output")

var SystemPrompt = `You are an extractive question answering model.
Given a context passage and a question, copy the shortest span of the context that answers the question.
Never paraphrase and never answer from outside knowledge.
Reply with a single JSON object and nothing else: {"answer": "<exact span or empty string>", "score": <confidence between 0 and 1>}.
If the context does not contain the answer, reply {"answer": "", "score": 0}.`

// LLMBackend asks a chat model for the answer span.
type LLMBackend struct {
	provider llm.Provider
	opts     []llm.Option
}

func NewLLMBackend(provider llm.Provider, opts ...llm.Option) *LLMBackend {
	return &LLMBackend{provider: provider, opts: opts}
}

func (b *LLMBackend) Name() string { return "openai" }

var fenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func (b *LLMBackend) Answer(ctx context.Context, question, passage string) (Prediction, error) {
	userContent := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", passage, question)

	resp, err := b.provider.Analyze(ctx, []string{SystemPrompt}, []string{userContent}, b.opts...)
	if err != nil {
		return Prediction{}, fmt.Errorf("LLM analysis failed: %w", err)
	}

	out := strings.TrimSpace(resp.Content)
	if m := fenceRe.FindStringSubmatch(out); m != nil {
		out = m[1]
	}
	if !gjson.Valid(out) {
		return Prediction{}, fmt.Errorf("%w: %q", ErrMalformedOutput, truncateString(out, 200))
	}

	answer := strings.TrimSpace(gjson.Get(out, "answer").String())
	score := clamp(gjson.Get(out, "score").Float(), 0, 1)

	// the model is told to copy a span; anything else is trusted less
	if answer != "" && !strings.Contains(strings.ToLower(passage), strings.ToLower(answer)) {
		score /= 2
	}

	return Prediction{Answer: answer, Score: score}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func truncateString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "\n[truncated]"
	}
	return s
}
