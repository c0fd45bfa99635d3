// Package tui is the terminal form for asking questions about a passage.
//
// The form implements loader.View, so "Load Example" (ctrl+e) behaves like
// the button of the web page: the request runs as a tea.Cmd and its result
// is applied on the update loop.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sozercan/qa-mole/apimodels"
	"github.com/sozercan/qa-mole/internal/loader"
)

const (
	AskLabel       = "Get Answer"
	AskingLabel    = "Thinking..."
	Placeholder    = "Your answer will appear here."
	noticeDuration = 4 * time.Second
)

// Predictor asks the service for an answer.
type Predictor interface {
	Predict(ctx context.Context, passage, question string) (*apimodels.PredictResponse, error)
}

type field int

const (
	contextField field = iota
	questionField
)

type exampleLoadedMsg struct {
	pending loader.Pending
	payload loader.Payload
	err     error
}

type answerMsg struct {
	resp *apimodels.PredictResponse
	err  error
}

type clearNoticeMsg struct {
	seq int
}

type Model struct {
	ctx       context.Context
	loader    *loader.Loader
	predictor Predictor

	context  textarea.Model
	question textinput.Model
	focus    field

	contextCount  int
	questionCount int

	triggerLabel   string
	triggerEnabled bool
	asking         bool

	answer          string
	showAnswer      bool
	confidence      progress.Model
	fill            float64
	confidenceLabel string
	answerLength    string

	notice     string
	noticeKind loader.Kind
	noticeSeq  int

	width  int
	styles Styles
}

func New(ctx context.Context, l *loader.Loader, predictor Predictor) Model {
	ta := textarea.New()
	ta.Placeholder = "Paste a passage..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(8)
	ta.Focus()

	ti := textinput.New()
	ti.Placeholder = "Ask something about the passage"

	return Model{
		ctx:             ctx,
		loader:          l,
		predictor:       predictor,
		context:         ta,
		question:        ti,
		focus:           contextField,
		triggerLabel:    loader.IdleLabel,
		triggerEnabled:  true,
		confidence:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		confidenceLabel: loader.EmptyConfidenceLabel,
		answerLength:    loader.EmptyAnswerLength,
		width:           80,
		styles:          DefaultStyles(),
	}
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+e":
			cmd := m.loadExample()
			return m, cmd
		case "ctrl+s":
			cmd := m.ask()
			return m, cmd
		case "tab", "shift+tab":
			m.toggleFocus()
			return m, nil
		}

	case exampleLoadedMsg:
		seq := m.noticeSeq
		m.loader.Finish(&m, msg.pending, msg.payload, msg.err)
		return m, m.clearNoticeAfter(seq)

	case answerMsg:
		seq := m.noticeSeq
		m.applyAnswer(msg)
		return m, m.clearNoticeAfter(seq)

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == contextField {
		m.context, cmd = m.context.Update(msg)
	} else {
		m.question, cmd = m.question.Update(msg)
	}
	m.UpdateCounts()
	return m, cmd
}

// loadExample starts a load the way a click on the trigger does. A disabled
// trigger ignores the key.
func (m *Model) loadExample() tea.Cmd {
	if !m.triggerEnabled {
		return nil
	}
	pending := m.loader.Begin(m)

	ctx, l := m.ctx, m.loader
	return func() tea.Msg {
		payload, err := l.Fetch(ctx)
		return exampleLoadedMsg{pending: pending, payload: payload, err: err}
	}
}

func (m *Model) ask() tea.Cmd {
	if m.asking {
		return nil
	}
	m.asking = true

	ctx, p := m.ctx, m.predictor
	passage, question := m.context.Value(), m.question.Value()
	return func() tea.Msg {
		resp, err := p.Predict(ctx, passage, question)
		return answerMsg{resp: resp, err: err}
	}
}

func (m *Model) applyAnswer(msg answerMsg) {
	m.asking = false
	if msg.err != nil {
		m.Notify(msg.err.Error(), loader.KindError)
		return
	}

	m.answer = msg.resp.Answer
	m.showAnswer = true
	m.SetConfidence(msg.resp.Confidence/100, fmt.Sprintf("%.2f%%", msg.resp.Confidence))
	m.SetAnswerLength(fmt.Sprintf("%d chars", utf8.RuneCountInString(msg.resp.Answer)))
}

func (m *Model) clearNoticeAfter(prev int) tea.Cmd {
	if m.noticeSeq == prev {
		return nil
	}
	seq := m.noticeSeq
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func (m *Model) toggleFocus() {
	if m.focus == contextField {
		m.FocusQuestion()
		return
	}
	m.focus = contextField
	m.question.Blur()
	m.context.Focus()
}

func (m *Model) setWidth(w int) {
	m.width = w
	inner := max(w-4, 20)
	m.context.SetWidth(inner)
	m.question.Width = inner
	m.confidence.Width = max(inner-24, 10)
}

// loader.View

func (m *Model) Trigger() (string, bool) { return m.triggerLabel, m.triggerEnabled }

func (m *Model) SetTrigger(label string, enabled bool) {
	m.triggerLabel, m.triggerEnabled = label, enabled
}

func (m *Model) SetContext(text string) { m.context.SetValue(text) }

func (m *Model) SetQuestion(text string) { m.question.SetValue(text) }

func (m *Model) UpdateCounts() {
	m.contextCount = utf8.RuneCountInString(m.context.Value())
	m.questionCount = utf8.RuneCountInString(m.question.Value())
}

func (m *Model) ShowAnswerPlaceholder() {
	m.showAnswer = false
	m.answer = ""
}

func (m *Model) SetConfidence(fill float64, label string) {
	m.fill, m.confidenceLabel = fill, label
}

func (m *Model) SetAnswerLength(label string) { m.answerLength = label }

func (m *Model) FocusQuestion() {
	m.focus = questionField
	m.context.Blur()
	m.question.Focus()
}

func (m *Model) Notify(message string, kind loader.Kind) {
	m.notice, m.noticeKind = message, kind
	m.noticeSeq++
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Title.Render(apimodels.ServiceName) + "\n\n")

	sb.WriteString(m.styles.Label.Render("Context") + " " +
		m.styles.Count.Render(fmt.Sprintf("%d chars", m.contextCount)) + "\n")
	sb.WriteString(m.context.View() + "\n\n")

	sb.WriteString(m.styles.Label.Render("Question") + " " +
		m.styles.Count.Render(fmt.Sprintf("%d chars", m.questionCount)) + "\n")
	sb.WriteString(m.question.View() + "\n\n")

	trigger := m.styles.Button
	if !m.triggerEnabled {
		trigger = m.styles.ButtonOff
	}
	askLabel, asker := AskLabel, m.styles.Button
	if m.asking {
		askLabel, asker = AskingLabel, m.styles.ButtonOff
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Center,
		trigger.Render(m.triggerLabel), "  ", asker.Render(askLabel)) + "\n\n")

	answer := m.styles.Placeholder.Render(Placeholder)
	if m.showAnswer {
		answer = m.styles.Answer.Render(m.answer)
	}
	meter := lipgloss.JoinHorizontal(lipgloss.Center,
		m.confidence.ViewAs(m.fill), "  ", m.confidenceLabel, "  ", m.styles.Count.Render(m.answerLength))
	sb.WriteString(m.styles.Panel.Render(answer+"\n\n"+meter) + "\n")

	if m.notice != "" {
		style := m.styles.Success
		if m.noticeKind == loader.KindError {
			style = m.styles.Error
		}
		sb.WriteString(style.Render(m.notice) + "\n")
	}

	sb.WriteString(m.styles.Help.Render("ctrl+e load example • ctrl+s get answer • tab switch field • esc quit"))
	return sb.String()
}

// Run starts the form and blocks until the user quits.
func Run(ctx context.Context, l *loader.Loader, predictor Predictor) error {
	_, err := tea.NewProgram(New(ctx, l, predictor), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
