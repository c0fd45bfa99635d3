package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sozercan/qa-mole/apimodels"
	"github.com/sozercan/qa-mole/internal/examples"
)

const (
	NoAnswerMessage = "Sorry, I couldn't find an answer in the given context."
)

var (
	ErrContextRequired    = errors.New("Context is required")
	ErrQuestionRequired   = errors.New("Question is required")
	ErrBackendUnavailable = errors.New("Failed to load model")
)

// Recorder keeps a history of answered questions.
type Recorder interface {
	RecordPrediction(ctx context.Context, rec examples.PredictionRecord) error
}

type Analyzer struct {
	load     LoadFunc
	recorder Recorder

	mu      sync.Mutex
	backend Backend
}

// New returns an Analyzer that loads its backend lazily. recorder may be nil.
func New(load LoadFunc, recorder Recorder) *Analyzer {
	return &Analyzer{
		load:     load,
		recorder: recorder,
	}
}

// Load builds the backend if it is not loaded yet. A failed load is retried
// on the next call.
func (a *Analyzer) Load() (Backend, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.backend != nil {
		return a.backend, nil
	}

	slog.Info("Loading QA backend")
	backend, err := a.load()
	if err != nil {
		slog.Error("Error loading backend", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	a.backend = backend
	slog.Info("QA backend loaded", "backend", backend.Name())
	return backend, nil
}

func (a *Analyzer) Loaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.backend != nil
}

func (a *Analyzer) Predict(ctx context.Context, req apimodels.PredictRequest) (*apimodels.PredictResponse, error) {
	passage := strings.TrimSpace(req.Context)
	question := strings.TrimSpace(req.Question)

	if passage == "" {
		return nil, ErrContextRequired
	}
	if question == "" {
		return nil, ErrQuestionRequired
	}

	backend, err := a.Load()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var answer string
	var confidence float64

	pred, err := backend.Answer(ctx, question, passage)
	if err != nil {
		// a failed prediction is still a completed request
		slog.Error("Prediction error", "error", err, "backend", backend.Name())
		answer = fmt.Sprintf("Error during prediction: %s", err)
		confidence = 0
	} else {
		answer = strings.TrimSpace(pred.Answer)
		confidence = roundTo(pred.Score*100, 2)
		if answer == "" {
			answer = NoAnswerMessage
			confidence = 0
		}
	}

	slog.Debug("Prediction completed",
		"backend", backend.Name(),
		"confidence", confidence,
		"duration", time.Since(start),
	)

	if a.recorder != nil {
		rec := examples.PredictionRecord{
			Question:   question,
			Answer:     answer,
			Confidence: confidence,
			Backend:    backend.Name(),
		}
		if err := a.recorder.RecordPrediction(ctx, rec); err != nil {
			slog.Warn("Failed to record prediction", "error", err)
		}
	}

	return &apimodels.PredictResponse{
		Answer:         answer,
		Confidence:     confidence,
		Status:         apimodels.StatusSuccess,
		ContextLength:  utf8.RuneCountInString(passage),
		QuestionLength: utf8.RuneCountInString(question),
	}, nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
