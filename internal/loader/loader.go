// Package loader pre-fills the question form with an example payload fetched
// from the service, or with a built-in fallback when the fetch fails.
//
// Each invocation is one best-effort request. There is no retry, no
// deduplication of overlapping invocations and no timeout of its own; the
// caller's context bounds the request.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sozercan/qa-mole/apimodels"
)

const (
	IdleLabel    = "Load Example"
	LoadingLabel = "Loading..."

	FallbackContext  = "The Mars 2020 mission is part of NASA's Mars Exploration Program. The Perseverance rover landed on Mars on February 18, 2021, in Jezero Crater."
	FallbackQuestion = "When did Perseverance land on Mars?"

	SuccessMessage = `Example loaded successfully! You can now click "Get Answer"`

	// reset values of the answer area
	EmptyConfidenceLabel = "--%"
	EmptyAnswerLength    = "0 chars"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// View is the form the loader writes into. Implementations are the UI; the
// loader only calls these methods.
type View interface {
	// Trigger reports the current label and enabled state of the control
	// that starts a load.
	Trigger() (label string, enabled bool)
	SetTrigger(label string, enabled bool)

	SetContext(text string)
	SetQuestion(text string)
	UpdateCounts()

	// ShowAnswerPlaceholder shows the placeholder and hides the answer content.
	ShowAnswerPlaceholder()
	SetConfidence(fill float64, label string)
	SetAnswerLength(label string)
	FocusQuestion()

	Notify(message string, kind Kind)
}

// Source fetches one example payload. A non-success status must be reported
// as an error.
type Source interface {
	LoadExample(ctx context.Context) (*apimodels.ExampleResponse, error)
}

type Payload struct {
	Context  string
	Question string
}

// Fallback is the pair written into the form when loading fails.
func Fallback() Payload {
	return Payload{Context: FallbackContext, Question: FallbackQuestion}
}

var errInvalidResponse = errors.New("Invalid response from server")

// Pending holds the trigger state captured by Begin.
type Pending struct {
	label   string
	enabled bool
}

type Loader struct {
	source Source
}

func New(source Source) *Loader {
	return &Loader{source: source}
}

// Load runs one full invocation against v: Begin, Fetch, Finish.
func (l *Loader) Load(ctx context.Context, v View) {
	pending := l.Begin(v)
	payload, err := l.Fetch(ctx)
	l.Finish(v, pending, payload, err)
}

// Begin puts the trigger into its loading state and remembers what it was.
func (l *Loader) Begin(v View) Pending {
	label, enabled := v.Trigger()
	if label == LoadingLabel {
		// an overlapping invocation must not restore another's loading state
		label, enabled = IdleLabel, true
	}
	v.SetTrigger(LoadingLabel, false)
	return Pending{label: label, enabled: enabled}
}

// Fetch performs the single request. It touches no UI and may run on any
// goroutine.
func (l *Loader) Fetch(ctx context.Context) (payload Payload, err error) {
	defer func() {
		// a misbehaving source is one more way for the load to fail
		if r := recover(); r != nil {
			payload, err = Payload{}, fmt.Errorf("example source panicked: %v", r)
		}
	}()

	resp, err := l.source.LoadExample(ctx)
	if err != nil {
		return Payload{}, err
	}
	if resp == nil || resp.Status != apimodels.StatusSuccess {
		return Payload{}, errInvalidResponse
	}
	return Payload{Context: resp.Context, Question: resp.Question}, nil
}

// Finish reflects the outcome of Fetch into v and restores the trigger.
func (l *Loader) Finish(v View, p Pending, payload Payload, err error) {
	defer v.SetTrigger(p.label, p.enabled)

	if err != nil {
		slog.Error("Error loading example", "error", err)
		v.Notify(fmt.Sprintf("Failed to load example: %s", err), KindError)

		fallback := Fallback()
		v.SetContext(fallback.Context)
		v.SetQuestion(fallback.Question)
		v.UpdateCounts()
		return
	}

	v.SetContext(payload.Context)
	v.SetQuestion(payload.Question)
	v.UpdateCounts()

	v.ShowAnswerPlaceholder()
	v.SetConfidence(0, EmptyConfidenceLabel)
	v.SetAnswerLength(EmptyAnswerLength)

	v.FocusQuestion()
	v.Notify(SuccessMessage, KindSuccess)
}
