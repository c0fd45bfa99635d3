package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sozercan/qa-mole/internal/examples"
)

func TestLexicalSeedExamples(t *testing.T) {
	seed, err := examples.DefaultSeed()
	require.NoError(t, err)

	want := map[string]string{
		"mars-2020":   "February 18, 2021",
		"ingenuity":   "72",
		"golden-gate": "Joseph Strauss",
	}

	l := NewLexical()
	for _, ex := range seed {
		expected, ok := want[ex.ID]
		if !ok {
			continue
		}
		t.Run(ex.ID, func(t *testing.T) {
			pred, err := l.Answer(context.Background(), ex.Question, ex.Context)
			require.NoError(t, err)
			assert.Equal(t, expected, pred.Answer)
			assert.Greater(t, pred.Score, 0.5)
			assert.LessOrEqual(t, pred.Score, 1.0)
		})
	}
}

func TestLexicalNoOverlap(t *testing.T) {
	pred, err := NewLexical().Answer(context.Background(), "Who painted the Mona Lisa?", "The rover landed in a crater.")
	require.NoError(t, err)
	assert.Empty(t, pred.Answer)
	assert.Zero(t, pred.Score)
}

func TestLexicalFallsBackToSentence(t *testing.T) {
	passage := "Rovers use radioisotope power. Helicopters use solar panels."
	pred, err := NewLexical().Answer(context.Background(), "What do helicopters use?", passage)
	require.NoError(t, err)
	assert.Equal(t, "Helicopters use solar panels", pred.Answer)
	assert.InDelta(t, 0.6, pred.Score, 1e-9)
}

func TestLexicalCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLexical().Answer(ctx, "When?", "Now.")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two? Three! Version 2.0 is out. Trailing")
	assert.Equal(t, []string{"One.", "Two?", "Three!", "Version 2.0 is out.", "Trailing"}, got)
}

func TestStem(t *testing.T) {
	assert.Equal(t, stem("landed"), stem("land"))
	assert.Equal(t, stem("completed"), stem("complete"))
	assert.Equal(t, stem("flights"), stem("flight"))
	assert.Equal(t, "nasa", stem("nasa's"))
}
