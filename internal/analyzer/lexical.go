package analyzer

import (
	"context"
	"regexp"
	"strings"
	"unicode"
)

// Lexical is an offline extractive answerer. It picks the passage sentence
// sharing the most terms with the question, then narrows it to a span whose
// shape fits the question word (a date for "when", a number for "how many",
// a name for "who"/"where").
type Lexical struct{}

func NewLexical() *Lexical {
	return &Lexical{}
}

func (l *Lexical) Name() string { return "lexical" }

var (
	monthPattern = `(?:January|February|March|April|May|June|July|August|September|October|November|December)`
	datePattern  = regexp.MustCompile(monthPattern + `\s+\d{1,2},\s*\d{4}|` + monthPattern + `\s+\d{4}|\d{4}-\d{2}-\d{2}|\b\d{4}\b`)
	numberRe     = regexp.MustCompile(`\b\d[\d,.]*\b(?:\s+(?:percent|million|billion|thousand|hundred))?`)
	properNounRe = regexp.MustCompile(`\b[A-Z][\w'-]*(?:\s+(?:of\s+)?[A-Z][\w'-]*)*`)
	wordRe       = regexp.MustCompile(`[\p{L}\p{N}']+`)
)

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "on": true, "in": true, "at": true, "to": true,
	"for": true, "by": true, "with": true, "from": true, "and": true, "or": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "been": true, "do": true, "does": true,
	"did": true, "what": true, "when": true, "where": true, "who": true, "whom": true, "which": true,
	"why": true, "how": true, "many": true, "much": true, "it": true, "its": true, "this": true,
	"that": true, "as": true, "has": true, "have": true, "had": true,
}

type questionKind int

const (
	kindOther questionKind = iota
	kindWhen
	kindCount
	kindPerson
	kindPlace
)

func classify(question string) questionKind {
	q := strings.ToLower(strings.TrimSpace(question))
	switch {
	case strings.HasPrefix(q, "when"), strings.HasPrefix(q, "what year"), strings.HasPrefix(q, "what date"):
		return kindWhen
	case strings.HasPrefix(q, "how many"), strings.HasPrefix(q, "how much"), strings.HasPrefix(q, "how long"):
		return kindCount
	case strings.HasPrefix(q, "who"), strings.HasPrefix(q, "whom"):
		return kindPerson
	case strings.HasPrefix(q, "where"):
		return kindPlace
	}
	return kindOther
}

// Answer never fails; an empty answer with score 0 means nothing matched.
func (l *Lexical) Answer(ctx context.Context, question, passage string) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	terms := contentTerms(question)
	if len(terms) == 0 {
		return Prediction{}, nil
	}

	best, overlap := "", 0
	for _, sentence := range splitSentences(passage) {
		n := overlapCount(terms, sentence)
		if n > overlap {
			best, overlap = sentence, n
		}
	}
	if overlap == 0 {
		return Prediction{}, nil
	}

	coverage := float64(overlap) / float64(len(terms))
	if span := extractSpan(classify(question), best, terms); span != "" {
		return Prediction{Answer: span, Score: 0.5 + 0.5*coverage}, nil
	}
	return Prediction{Answer: strings.TrimRight(best, ".!?"), Score: 0.6 * coverage}, nil
}

func extractSpan(kind questionKind, sentence string, terms map[string]bool) string {
	switch kind {
	case kindWhen:
		return datePattern.FindString(sentence)
	case kindCount:
		return numberRe.FindString(sentence)
	case kindPerson, kindPlace:
		return longestNewName(sentence, terms)
	}
	return ""
}

// longestNewName returns the longest capitalized run not already named in the
// question. Ties keep the earlier run.
func longestNewName(sentence string, terms map[string]bool) string {
	best := ""
	for _, run := range properNounRe.FindAllString(sentence, -1) {
		words := wordRe.FindAllString(run, -1)
		novel := false
		for _, w := range words {
			if !terms[stem(strings.ToLower(w))] && !stopwords[strings.ToLower(w)] {
				novel = true
				break
			}
		}
		if !novel {
			continue
		}
		if len(words) > len(wordRe.FindAllString(best, -1)) {
			best = run
		}
	}
	return best
}

func contentTerms(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if stopwords[w] {
			continue
		}
		terms[stem(w)] = true
	}
	return terms
}

func overlapCount(terms map[string]bool, sentence string) int {
	seen := make(map[string]bool)
	for t := range contentTerms(sentence) {
		if terms[t] {
			seen[t] = true
		}
	}
	return len(seen)
}

// stem strips a few English suffixes so "landed" and "land" compare equal.
func stem(w string) string {
	w = strings.TrimSuffix(w, "'s")
	for _, suffix := range []string{"ing", "ed", "es", "s"} {
		if len(w) > len(suffix)+2 && strings.HasSuffix(w, suffix) {
			return strings.TrimSuffix(w, suffix)
		}
	}
	// "complete" and "completed" share "complet"
	if len(w) > 4 && strings.HasSuffix(w, "e") {
		return strings.TrimSuffix(w, "e")
	}
	return w
}

func splitSentences(passage string) []string {
	var out []string
	start := 0
	runes := []rune(passage)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}
