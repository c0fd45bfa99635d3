package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sozercan/qa-mole/apimodels"
	"github.com/sozercan/qa-mole/internal/loader"
)

type exampleSource struct {
	resp *apimodels.ExampleResponse
	err  error
}

func (s exampleSource) LoadExample(ctx context.Context) (*apimodels.ExampleResponse, error) {
	return s.resp, s.err
}

type predictorFunc func(ctx context.Context, passage, question string) (*apimodels.PredictResponse, error)

func (f predictorFunc) Predict(ctx context.Context, passage, question string) (*apimodels.PredictResponse, error) {
	return f(ctx, passage, question)
}

func newModel(src loader.Source, p Predictor) Model {
	return New(context.Background(), loader.New(src), p)
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

// step feeds msg to m and returns the updated model and command.
func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestLoadExampleFillsForm(t *testing.T) {
	m := newModel(exampleSource{resp: &apimodels.ExampleResponse{
		Status: apimodels.StatusSuccess, Context: "The rover landed.", Question: "Q?",
	}}, nil)
	m.answer, m.showAnswer = "old", true

	m, cmd := step(t, m, key(tea.KeyCtrlE))
	require.NotNil(t, cmd)
	assert.Equal(t, loader.LoadingLabel, m.triggerLabel)
	assert.False(t, m.triggerEnabled)
	assert.Contains(t, m.View(), loader.LoadingLabel)

	msg := cmd()
	require.IsType(t, exampleLoadedMsg{}, msg)

	m, cmd = step(t, m, msg)
	assert.NotNil(t, cmd, "notification should be cleared later")

	assert.Equal(t, "The rover landed.", m.context.Value())
	assert.Equal(t, "Q?", m.question.Value())
	assert.Equal(t, 17, m.contextCount)
	assert.Equal(t, 2, m.questionCount)
	assert.False(t, m.showAnswer)
	assert.Equal(t, "--%", m.confidenceLabel)
	assert.Equal(t, "0 chars", m.answerLength)
	assert.Equal(t, questionField, m.focus)
	assert.Equal(t, loader.SuccessMessage, m.notice)
	assert.Equal(t, loader.KindSuccess, m.noticeKind)
	assert.Equal(t, loader.IdleLabel, m.triggerLabel)
	assert.True(t, m.triggerEnabled)

	view := m.View()
	assert.Contains(t, view, Placeholder)
	assert.Contains(t, view, "Example loaded successfully!")
}

func TestLoadExampleFailureWritesFallback(t *testing.T) {
	m := newModel(exampleSource{err: errors.New("connection refused")}, nil)

	m, cmd := step(t, m, key(tea.KeyCtrlE))
	m, _ = step(t, m, cmd())

	assert.Equal(t, loader.FallbackContext, m.context.Value())
	assert.Equal(t, loader.FallbackQuestion, m.question.Value())
	assert.Equal(t, len(loader.FallbackQuestion), m.questionCount)
	assert.Equal(t, "Failed to load example: connection refused", m.notice)
	assert.Equal(t, loader.KindError, m.noticeKind)
	assert.Equal(t, loader.IdleLabel, m.triggerLabel)
	assert.True(t, m.triggerEnabled)
}

func TestDisabledTriggerIgnoresKey(t *testing.T) {
	m := newModel(exampleSource{}, nil)

	m, first := step(t, m, key(tea.KeyCtrlE))
	require.NotNil(t, first)

	_, second := step(t, m, key(tea.KeyCtrlE))
	assert.Nil(t, second)
}

func TestNoticeClearsOnlyLatest(t *testing.T) {
	m := newModel(exampleSource{err: errors.New("offline")}, nil)

	m, cmd := step(t, m, key(tea.KeyCtrlE))
	m, _ = step(t, m, cmd())
	stale := m.noticeSeq

	m.Notify("newer", loader.KindError)
	m, _ = step(t, m, clearNoticeMsg{seq: stale})
	assert.Equal(t, "newer", m.notice)

	m, _ = step(t, m, clearNoticeMsg{seq: m.noticeSeq})
	assert.Empty(t, m.notice)
}

func TestAskShowsAnswer(t *testing.T) {
	var gotPassage, gotQuestion string
	m := newModel(exampleSource{}, predictorFunc(func(ctx context.Context, passage, question string) (*apimodels.PredictResponse, error) {
		gotPassage, gotQuestion = passage, question
		return &apimodels.PredictResponse{Answer: "February 18, 2021", Confidence: 87.5, Status: apimodels.StatusSuccess}, nil
	}))
	m.SetContext("passage")
	m.SetQuestion("when?")

	m, cmd := step(t, m, key(tea.KeyCtrlS))
	require.NotNil(t, cmd)
	assert.True(t, m.asking)

	m, _ = step(t, m, cmd())
	assert.Equal(t, "passage", gotPassage)
	assert.Equal(t, "when?", gotQuestion)
	assert.False(t, m.asking)
	assert.True(t, m.showAnswer)
	assert.InDelta(t, 0.875, m.fill, 1e-9)
	assert.Equal(t, "87.50%", m.confidenceLabel)
	assert.Equal(t, "17 chars", m.answerLength)
	assert.Contains(t, m.View(), "February 18, 2021")
}

func TestAskError(t *testing.T) {
	m := newModel(exampleSource{}, predictorFunc(func(ctx context.Context, passage, question string) (*apimodels.PredictResponse, error) {
		return nil, errors.New("Context is required")
	}))

	m, cmd := step(t, m, key(tea.KeyCtrlS))
	m, _ = step(t, m, cmd())
	assert.False(t, m.asking)
	assert.False(t, m.showAnswer)
	assert.Equal(t, "Context is required", m.notice)
	assert.Equal(t, loader.KindError, m.noticeKind)
}

func TestTabSwitchesFocusAndTypingCounts(t *testing.T) {
	m := newModel(exampleSource{}, nil)
	assert.Equal(t, contextField, m.focus)

	m, _ = step(t, m, key(tea.KeyTab))
	assert.Equal(t, questionField, m.focus)

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("why")})
	assert.Equal(t, "why", m.question.Value())
	assert.Equal(t, 3, m.questionCount)

	m, _ = step(t, m, key(tea.KeyTab))
	assert.Equal(t, contextField, m.focus)
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		_, cmd := step(t, newModel(exampleSource{}, nil), key(k))
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestViewShowsEmptyState(t *testing.T) {
	view := newModel(exampleSource{}, nil).View()
	for _, want := range []string{apimodels.ServiceName, loader.IdleLabel, AskLabel, Placeholder, "--%", "0 chars"} {
		assert.True(t, strings.Contains(view, want), "view missing %q", want)
	}
}
