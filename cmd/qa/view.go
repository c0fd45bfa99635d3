package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/sozercan/qa-mole/internal/loader"
)

var (
	labelStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A96A8"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E53935"))
	answerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
)

type notice struct {
	message string
	kind    loader.Kind
}

// consoleView is a loader.View that keeps the form in memory and prints it
// once the load is over.
type consoleView struct {
	label   string
	enabled bool

	context  string
	question string

	contextCount  int
	questionCount int

	answerHidden    bool
	confidenceLabel string
	answerLength    string
	focused         bool

	notices []notice
}

func newConsoleView() *consoleView {
	return &consoleView{
		label:           loader.IdleLabel,
		enabled:         true,
		confidenceLabel: loader.EmptyConfidenceLabel,
		answerLength:    loader.EmptyAnswerLength,
	}
}

func (v *consoleView) Trigger() (string, bool) { return v.label, v.enabled }

func (v *consoleView) SetTrigger(label string, enabled bool) { v.label, v.enabled = label, enabled }

func (v *consoleView) SetContext(text string) { v.context = text }

func (v *consoleView) SetQuestion(text string) { v.question = text }

func (v *consoleView) UpdateCounts() {
	v.contextCount = utf8.RuneCountInString(v.context)
	v.questionCount = utf8.RuneCountInString(v.question)
}

func (v *consoleView) ShowAnswerPlaceholder() { v.answerHidden = true }

func (v *consoleView) SetConfidence(_ float64, label string) { v.confidenceLabel = label }

func (v *consoleView) SetAnswerLength(label string) { v.answerLength = label }

func (v *consoleView) FocusQuestion() { v.focused = true }

func (v *consoleView) Notify(message string, kind loader.Kind) {
	v.notices = append(v.notices, notice{message: message, kind: kind})
}

func (v *consoleView) render(w io.Writer) {
	for _, n := range v.notices {
		style, mark := successStyle, "✓"
		if n.kind == loader.KindError {
			style, mark = errorStyle, "✗"
		}
		fmt.Fprintln(w, style.Render(mark+" "+n.message))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n%s\n\n", labelStyle.Render("Context"),
		mutedStyle.Render(fmt.Sprintf("(%d chars)", v.contextCount)), strings.TrimSpace(v.context))
	fmt.Fprintf(w, "%s %s\n%s\n", labelStyle.Render("Question"),
		mutedStyle.Render(fmt.Sprintf("(%d chars)", v.questionCount)), strings.TrimSpace(v.question))
}
