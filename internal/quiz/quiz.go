// Package quiz builds self-check questions from a document's key points and
// grades the learner's responses.
package quiz

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"tutor/internal/chunker"
	"tutor/internal/domain"
	"tutor/internal/vocabulary"
)

// ErrNoQuestions is returned when the document names no vocabulary term
// that a question could be built around.
var ErrNoQuestions = errors.New("no quiz questions could be built from this document")

// Type is the kind of a quiz question.
type Type string

const (
	FillBlank Type = "fill-blank"
	TrueFalse Type = "true-false"
)

const (
	Blank              = "_____"
	DefaultQuestions   = 5
	minutesPerQuestion = 2
)

type Question struct {
	ID          string `json:"id"`
	Type        Type   `json:"type"`
	Prompt      string `json:"prompt"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
	Topic       string `json:"topic"`
}

type Quiz struct {
	DocumentID       string     `json:"document_id"`
	Questions        []Question `json:"questions"`
	EstimatedMinutes int        `json:"estimated_minutes"`
}

// Result is the grading of one response.
type Result struct {
	Correct     bool   `json:"correct"`
	Response    string `json:"response"`
	Expected    string `json:"expected"`
	Explanation string `json:"explanation"`
}

// Generator derives questions deterministically: the same document and
// summary always give the same quiz.
type Generator struct {
	vocab    *vocabulary.Index
	splitter *chunker.Splitter
}

func NewGenerator(vocab *vocabulary.Index, splitter *chunker.Splitter) *Generator {
	if splitter == nil {
		splitter = chunker.NewSplitter(0)
	}
	return &Generator{vocab: vocab, splitter: splitter}
}

type item struct {
	sentence string
	key      string
	surface  string
}

// Generate builds up to n questions, alternating fill-in-the-blank and
// true/false. Key points are used first, then the remaining sentences of
// the document. Every other true/false statement is made false by
// swapping its term for another term of the document.
func (g *Generator) Generate(doc domain.Document, summary domain.Summary, n int) (Quiz, error) {
	if n <= 0 {
		n = DefaultQuestions
	}
	sentences := append([]string(nil), summary.KeyPoints...)
	for _, s := range g.splitter.Sentences(doc.Text) {
		sentences = append(sentences, s.Text)
	}

	var items []item
	var keys []string
	usedKey := make(map[string]bool)
	usedSentence := make(map[string]bool)
	for _, s := range sentences {
		if usedSentence[s] {
			continue
		}
		usedSentence[s] = true
		for _, it := range g.terms(s) {
			if usedKey[it.key] {
				continue
			}
			usedKey[it.key] = true
			keys = append(keys, it.key)
			items = append(items, it)
			break
		}
	}
	if len(items) == 0 {
		return Quiz{DocumentID: doc.ID}, ErrNoQuestions
	}

	q := Quiz{DocumentID: doc.ID}
	trueFalse := 0
	for i, it := range items {
		if len(q.Questions) == n {
			break
		}
		question := Question{ID: fmt.Sprintf("q%d", i+1), Topic: it.key}
		if i%2 == 0 {
			question.Type = FillBlank
			question.Prompt = "Fill in the blank: " + replaceTerm(it.sentence, it.surface, Blank)
			question.Answer = it.key
			question.Explanation = it.sentence
			if term, ok := g.vocab.Lookup(it.key); ok && term.Definition != "" {
				question.Explanation += " " + term.Definition
			}
		} else {
			question.Type = TrueFalse
			statement, answer := it.sentence, "true"
			if trueFalse%2 == 1 {
				if swap := swapKey(keys, it); swap != "" {
					statement, answer = replaceTerm(it.sentence, it.surface, swap), "false"
				}
			}
			trueFalse++
			question.Prompt = "True or false: " + statement
			question.Answer = answer
			question.Explanation = "The document says: " + it.sentence
		}
		q.Questions = append(q.Questions, question)
	}
	q.EstimatedMinutes = len(q.Questions) * minutesPerQuestion
	return q, nil
}

// Evaluate grades response against q. A fill-in-the-blank response is
// correct when one of its words or word pairs names the expected term (by
// key, synonym or plural); true/false accepts true/t/yes/y and
// false/f/no/n.
func (g *Generator) Evaluate(q Question, response string) Result {
	r := Result{Response: response, Expected: q.Answer, Explanation: q.Explanation}
	switch q.Type {
	case TrueFalse:
		got, ok := parseBool(response)
		r.Correct = ok && fmt.Sprint(got) == q.Answer
	default:
		want, ok := g.vocab.Canonical(q.Answer)
		if !ok {
			want = vocabulary.Stem(q.Answer)
		}
		tokens := vocabulary.Tokenize(response)
		for i, tok := range tokens {
			if g.names(tok, want) || (i+1 < len(tokens) && g.names(tok+" "+tokens[i+1], want)) {
				r.Correct = true
				break
			}
		}
	}
	return r
}

// Score is the number of correct results.
func Score(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Correct {
			n++
		}
	}
	return n
}

func (g *Generator) names(word, key string) bool {
	if k, ok := g.vocab.Canonical(word); ok {
		return k == key
	}
	return vocabulary.Stem(word) == key
}

// terms lists the vocabulary terms of sentence in order of appearance,
// with the surface form used in the sentence. Two-word terms win over
// single words.
func (g *Generator) terms(sentence string) []item {
	tokens := vocabulary.Tokenize(sentence)
	var out []item
	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) {
			pair := tokens[i] + " " + tokens[i+1]
			if key, ok := g.vocab.Canonical(pair); ok {
				out = append(out, item{sentence: sentence, key: key, surface: pair})
				i++
				continue
			}
		}
		if vocabulary.IsStopword(tokens[i]) {
			continue
		}
		if key, ok := g.vocab.Canonical(tokens[i]); ok {
			out = append(out, item{sentence: sentence, key: key, surface: tokens[i]})
		}
	}
	return out
}

// swapKey picks the next document term after it.key that the sentence
// does not already mention.
func swapKey(keys []string, it item) string {
	start := 0
	for i, k := range keys {
		if k == it.key {
			start = i
			break
		}
	}
	lower := strings.ToLower(it.sentence)
	for i := 1; i < len(keys); i++ {
		k := keys[(start+i)%len(keys)]
		if !strings.Contains(lower, k) {
			return k
		}
	}
	return ""
}

// replaceTerm replaces the first whole-word, case-insensitive occurrence of
// surface in sentence, keeping a capital letter at the start.
func replaceTerm(sentence, surface, with string) string {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(surface) + `\b`)
	loc := re.FindStringIndex(sentence)
	if loc == nil {
		return sentence
	}
	if loc[0] == 0 && with != Blank {
		r, size := utf8.DecodeRuneInString(with)
		with = string(unicode.ToUpper(r)) + with[size:]
	}
	return sentence[:loc[0]] + with + sentence[loc[1]:]
}

func parseBool(s string) (bool, bool) {
	words := strings.Fields(vocabulary.Normalize(s))
	if len(words) == 0 {
		return false, false
	}
	switch words[0] {
	case "true", "t", "yes", "y":
		return true, true
	case "false", "f", "no", "n":
		return false, true
	}
	return false, false
}
