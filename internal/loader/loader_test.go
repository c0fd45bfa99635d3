package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sozercan/qa-mole/apimodels"
	"github.com/sozercan/qa-mole/internal/client"
)

type note struct {
	message string
	kind    Kind
}

// formView records what the loader does to the form.
type formView struct {
	label   string
	enabled bool

	context  string
	question string
	counts   int

	placeholder     bool
	fill            float64
	confidenceLabel string
	answerLength    string
	focused         bool

	notes []note

	// trigger states seen while the request was in flight
	duringFetch []string
}

func newFormView() *formView {
	return &formView{
		label:           IdleLabel,
		enabled:         true,
		fill:            0.87,
		confidenceLabel: "87.00%",
		answerLength:    "17 chars",
	}
}

func (f *formView) Trigger() (string, bool) { return f.label, f.enabled }
func (f *formView) SetTrigger(label string, on bool) { f.label, f.enabled = label, on }
func (f *formView) SetContext(text string) { f.context = text }
func (f *formView) SetQuestion(text string) { f.question = text }
func (f *formView) UpdateCounts() { f.counts++ }
func (f *formView) ShowAnswerPlaceholder() { f.placeholder = true }
func (f *formView) SetConfidence(fill float64, l string) { f.fill, f.confidenceLabel = fill, l }
func (f *formView) SetAnswerLength(label string) { f.answerLength = label }
func (f *formView) FocusQuestion() { f.focused = true }
func (f *formView) Notify(message string, kind Kind) { f.notes = append(f.notes, note{message, kind}) }

type sourceFunc func(ctx context.Context) (*apimodels.ExampleResponse, error)

func (s sourceFunc) LoadExample(ctx context.Context) (*apimodels.ExampleResponse, error) {
	return s(ctx)
}

func serverSource(t *testing.T, status int, body string) Source {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/load_example", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return client.New(ts.URL, 5*time.Second)
}

func TestLoadSuccess(t *testing.T) {
	v := newFormView()
	New(serverSource(t, http.StatusOK, `{"status":"success","context":"C","question":"Q?"}`)).Load(context.Background(), v)

	assert.Equal(t, "C", v.context)
	assert.Equal(t, "Q?", v.question)
	assert.Equal(t, 1, v.counts)

	assert.True(t, v.placeholder)
	assert.Zero(t, v.fill)
	assert.Equal(t, "--%", v.confidenceLabel)
	assert.Equal(t, "0 chars", v.answerLength)
	assert.True(t, v.focused)

	require.Len(t, v.notes, 1)
	assert.Equal(t, KindSuccess, v.notes[0].kind)
	assert.Equal(t, SuccessMessage, v.notes[0].message)

	assert.Equal(t, IdleLabel, v.label)
	assert.True(t, v.enabled)
}

func TestLoadFailuresUseFallback(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "status error", status: http.StatusOK, body: `{"status":"error"}`, wantMsg: "Invalid response from server"},
		{name: "http 500", status: http.StatusInternalServerError, body: "", wantMsg: "HTTP 500: Internal Server Error"},
		{name: "http 404", status: http.StatusNotFound, body: "not here", wantMsg: "HTTP 404: Not Found"},
		{name: "malformed json", status: http.StatusOK, body: `{"status":`, wantMsg: "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newFormView()
			New(serverSource(t, tt.status, tt.body)).Load(context.Background(), v)

			assertFallback(t, v)
			assert.Contains(t, v.notes[0].message, tt.wantMsg)
		})
	}
}

func TestLoadNetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	v := newFormView()
	New(client.New(url, time.Second)).Load(context.Background(), v)

	assertFallback(t, v)
}

func TestLoadSourcePanics(t *testing.T) {
	v := newFormView()
	New(sourceFunc(func(ctx context.Context) (*apimodels.ExampleResponse, error) {
		panic("nil map")
	})).Load(context.Background(), v)

	assertFallback(t, v)
	assert.Contains(t, v.notes[0].message, "panicked")
}

func TestLoadNilResponse(t *testing.T) {
	v := newFormView()
	New(sourceFunc(func(ctx context.Context) (*apimodels.ExampleResponse, error) {
		return nil, nil
	})).Load(context.Background(), v)

	assertFallback(t, v)
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := newFormView()
	New(sourceFunc(func(ctx context.Context) (*apimodels.ExampleResponse, error) {
		return nil, ctx.Err()
	})).Load(ctx, v)

	assertFallback(t, v)
	assert.Contains(t, v.notes[0].message, context.Canceled.Error())
}

func assertFallback(t *testing.T, v *formView) {
	t.Helper()

	assert.Equal(t, FallbackContext, v.context)
	assert.Equal(t, FallbackQuestion, v.question)
	assert.True(t, strings.Contains(v.context, "Mars 2020"))
	assert.Equal(t, 1, v.counts)

	require.Len(t, v.notes, 1)
	assert.Equal(t, KindError, v.notes[0].kind)
	assert.True(t, strings.HasPrefix(v.notes[0].message, "Failed to load example: "))

	// the failure path leaves the previous answer untouched
	assert.False(t, v.placeholder)
	assert.Equal(t, "87.00%", v.confidenceLabel)
	assert.False(t, v.focused)

	assert.Equal(t, IdleLabel, v.label)
	assert.True(t, v.enabled)
}

func TestTriggerIsDisabledWhileLoading(t *testing.T) {
	v := newFormView()
	src := sourceFunc(func(ctx context.Context) (*apimodels.ExampleResponse, error) {
		label, enabled := v.Trigger()
		v.duringFetch = append(v.duringFetch, label)
		assert.False(t, enabled)
		return &apimodels.ExampleResponse{Status: apimodels.StatusSuccess, Context: "C", Question: "Q?"}, nil
	})

	New(src).Load(context.Background(), v)
	assert.Equal(t, []string{LoadingLabel}, v.duringFetch)
	assert.Equal(t, IdleLabel, v.label)
	assert.True(t, v.enabled)
}

func TestTriggerRestoredToPriorState(t *testing.T) {
	v := newFormView()
	v.label, v.enabled = "Try an example", false

	New(sourceFunc(func(ctx context.Context) (*apimodels.ExampleResponse, error) {
		return nil, errors.New("offline")
	})).Load(context.Background(), v)

	assert.Equal(t, "Try an example", v.label)
	assert.False(t, v.enabled)
}

func TestOverlappingInvocationsEndIdle(t *testing.T) {
	v := newFormView()
	l := New(sourceFunc(func(ctx context.Context) (*apimodels.ExampleResponse, error) {
		return &apimodels.ExampleResponse{Status: apimodels.StatusSuccess, Context: "C", Question: "Q?"}, nil
	}))

	first := l.Begin(v)
	second := l.Begin(v)

	payload, err := l.Fetch(context.Background())
	l.Finish(v, first, payload, err)
	payload, err = l.Fetch(context.Background())
	l.Finish(v, second, payload, err)

	assert.Equal(t, IdleLabel, v.label)
	assert.True(t, v.enabled)
	assert.Len(t, v.notes, 2)
}
