// Package qa answers questions about a document by lexical overlap between
// the question's vocabulary-expanded terms and the document's sentences.
package qa

import (
	"math"
	"strings"

	"tutor/internal/chunker"
	"tutor/internal/domain"
	"tutor/internal/logger"
	"tutor/internal/vocabulary"
)

const (
	DefaultMinRelevance = 0.3
	DefaultHeadingBoost = 1.5
	// SynonymFactor discounts matches found through a synonym rather than
	// the question's own word.
	SynonymFactor = 0.8

	FallbackText = "I don't have enough information in this document to answer that."
)

// Context carries per-question parameters. Span and Depth are set when the
// user asks to go deeper into a previous answer. Topic, when set, replaces
// the topic detected in the question.
type Context struct {
	Grade Grade
	Depth int
	Span  *domain.Span
	Topic string
}

// Matcher scores document sentences against a question.
type Matcher struct {
	vocab        *vocabulary.Index
	splitter     *chunker.Splitter
	minRelevance float64
	headingBoost float64
}

type Option func(*Matcher)

func WithMinRelevance(v float64) Option {
	return func(m *Matcher) {
		if v >= 0 && v <= 1 {
			m.minRelevance = v
		}
	}
}

func WithHeadingBoost(v float64) Option {
	return func(m *Matcher) {
		if v >= 1 {
			m.headingBoost = v
		}
	}
}

func NewMatcher(vocab *vocabulary.Index, splitter *chunker.Splitter, opts ...Option) *Matcher {
	if splitter == nil {
		splitter = chunker.NewSplitter(0)
	}
	m := &Matcher{
		vocab:        vocab,
		splitter:     splitter,
		minRelevance: DefaultMinRelevance,
		headingBoost: DefaultHeadingBoost,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// queryTerm is one content term of the question. Forms are stemmed token
// sequences so that multi-word terms match as phrases.
type queryTerm struct {
	weight   float64
	direct   [][]string
	synonyms [][]string
}

type candidate struct {
	sentence chunker.Sentence
	score    float64
}

// Answer returns the best matching span of text for question. It never
// fails: when nothing relevant is found the fallback answer is returned
// with its computed confidence.
func (m *Matcher) Answer(question, text string, qctx Context) domain.Answer {
	topic, _ := m.vocab.Topic(question)
	if qctx.Topic != "" {
		topic = qctx.Topic
	}
	terms := m.query(question)
	sentences := m.splitter.Sentences(text)

	if qctx.Depth > 0 && qctx.Span != nil && !qctx.Span.IsZero() {
		if ans, ok := m.deeper(terms, sentences, topic, qctx); ok {
			return ans
		}
	}

	total := totalWeight(terms)
	var best *candidate
	for _, s := range sentences {
		score := m.score(terms, s)
		logger.Debug("sentence %d score %.3f", s.Index, score)
		if best == nil || score > best.score {
			best = &candidate{sentence: s, score: score}
		}
	}

	confidence := 0.0
	if best != nil {
		confidence = Confidence(best.score, total)
	}
	if best == nil || confidence < m.minRelevance {
		return domain.Answer{Text: FallbackText, Confidence: confidence, Fallback: true, Topic: topic}
	}
	span := spanOf(best.sentence)
	return domain.Answer{
		Text:        qctx.Grade.Wrap(span.Text, topic),
		Confidence:  confidence,
		MatchedSpan: span,
		Topic:       topic,
	}
}

// Confidence maps an overlap score to [0,1). It grows with score and is
// normalized by the question's total weight.
func Confidence(score, questionWeight float64) float64 {
	if score <= 0 || questionWeight <= 0 {
		return 0
	}
	return 1 - math.Exp(-score/questionWeight)
}

// deeper extends a previous span with up to Depth following sentences of
// the same section and appends the topic's definition.
func (m *Matcher) deeper(terms []queryTerm, sentences []chunker.Sentence, topic string, qctx Context) (domain.Answer, bool) {
	first := -1
	for i, s := range sentences {
		if s.Start >= qctx.Span.Start && s.End <= qctx.Span.End {
			first = i
			break
		}
	}
	if first < 0 {
		return domain.Answer{}, false
	}
	last := first
	for last+1 < len(sentences) && sentences[last+1].End <= qctx.Span.End {
		last++
	}
	for added := 0; added < qctx.Depth && last+1 < len(sentences) &&
		sentences[last+1].Section == sentences[first].Section; added++ {
		last++
	}

	parts := make([]string, 0, last-first+1)
	score := 0.0
	for _, s := range sentences[first : last+1] {
		parts = append(parts, s.Text)
		score += m.score(terms, s)
	}
	span := domain.Span{
		Start:        sentences[first].Start,
		End:          sentences[last].End,
		Text:         strings.Join(parts, " "),
		SectionTitle: sentences[first].SectionTitle,
	}

	body := span.Text
	if topic == "" {
		if found := m.vocab.TermsIn(vocabulary.Tokenize(span.Text)); len(found) > 0 {
			topic = found[0]
		}
	}
	if term, ok := m.vocab.Lookup(topic); ok && term.Definition != "" && !strings.Contains(body, term.Definition) {
		body += " " + term.Definition
	}

	return domain.Answer{
		Text:        qctx.Grade.Wrap(body, topic),
		Confidence:  Confidence(score, totalWeight(terms)),
		MatchedSpan: span,
		Topic:       topic,
		Depth:       qctx.Depth,
	}, true
}

// query builds the weighted, expanded terms of a question. Two-word
// vocabulary terms are recognized before single words; stopwords are
// dropped and repeated terms counted once.
func (m *Matcher) query(question string) []queryTerm {
	tokens := vocabulary.Tokenize(question)
	seen := make(map[string]struct{})
	var out []queryTerm
	add := func(surface string) {
		key, ok := m.vocab.Canonical(surface)
		if !ok {
			key = vocabulary.Stem(surface)
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		expanded := m.vocab.Expand(surface)
		qt := queryTerm{weight: m.vocab.Weight(surface), direct: [][]string{stems(expanded[0])}}
		for _, form := range expanded[1:] {
			f := stems(form)
			if !samePhrase(f, qt.direct[0]) {
				qt.synonyms = append(qt.synonyms, f)
			}
		}
		out = append(out, qt)
	}
	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) {
			pair := tokens[i] + " " + tokens[i+1]
			if _, ok := m.vocab.Canonical(pair); ok {
				add(pair)
				i++
				continue
			}
		}
		if vocabulary.IsStopword(tokens[i]) {
			continue
		}
		add(tokens[i])
	}
	return out
}

func totalWeight(terms []queryTerm) float64 {
	sum := 0.0
	for _, t := range terms {
		sum += t.weight
	}
	return sum
}

// score sums term weights over matching occurrences in the sentence,
// discounting synonym matches, and applies the heading boost when the
// sentence's section title mentions a question term.
func (m *Matcher) score(terms []queryTerm, s chunker.Sentence) float64 {
	body := stems(s.Text)
	title := stems(s.SectionTitle)
	score := 0.0
	boosted := false
	for _, t := range terms {
		for _, f := range t.direct {
			score += float64(occurrences(body, f)) * t.weight
			boosted = boosted || occurrences(title, f) > 0
		}
		for _, f := range t.synonyms {
			score += float64(occurrences(body, f)) * t.weight * SynonymFactor
			boosted = boosted || occurrences(title, f) > 0
		}
	}
	if boosted && score > 0 {
		score *= m.headingBoost
	}
	return score
}

func stems(text string) []string {
	tokens := vocabulary.Tokenize(text)
	for i, t := range tokens {
		tokens[i] = vocabulary.Stem(t)
	}
	return tokens
}

func samePhrase(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func occurrences(haystack, phrase []string) int {
	if len(phrase) == 0 {
		return 0
	}
	n := 0
	for i := 0; i+len(phrase) <= len(haystack); i++ {
		if samePhrase(haystack[i:i+len(phrase)], phrase) {
			n++
		}
	}
	return n
}

func spanOf(s chunker.Sentence) domain.Span {
	return domain.Span{Start: s.Start, End: s.End, Text: s.Text, SectionTitle: s.SectionTitle}
}
