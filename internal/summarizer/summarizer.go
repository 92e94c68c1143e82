// Package summarizer ranks document sentences by vocabulary weight to build
// an overview and a deduplicated list of key points.
package summarizer

import (
	"math"
	"sort"
	"strings"

	"tutor/internal/chunker"
	"tutor/internal/domain"
	"tutor/internal/vocabulary"
)

const (
	DefaultOverviewSentences = 3
	DefaultMinKeyPoints      = 3
	DefaultMaxKeyPoints      = 7
	DefaultMaxTopics         = 5
	// DuplicateJaccard is the term-set similarity at which two key points
	// are considered the same point.
	DuplicateJaccard = 0.6
	wordsPerMinute   = 200
)

// VocabularySummarizer implements domain.Summarizer.
type VocabularySummarizer struct {
	vocab             *vocabulary.Index
	splitter          *chunker.Splitter
	overviewSentences int
	minKeyPoints      int
	maxKeyPoints      int
	maxTopics         int
}

type Option func(*VocabularySummarizer)

func WithOverviewSentences(n int) Option {
	return func(s *VocabularySummarizer) {
		if n > 0 {
			s.overviewSentences = n
		}
	}
}

// WithKeyPoints sets the key point bounds. Invalid bounds are ignored.
func WithKeyPoints(min, max int) Option {
	return func(s *VocabularySummarizer) {
		if min > 0 && max >= min {
			s.minKeyPoints, s.maxKeyPoints = min, max
		}
	}
}

func WithMaxTopics(n int) Option {
	return func(s *VocabularySummarizer) {
		if n > 0 {
			s.maxTopics = n
		}
	}
}

func New(vocab *vocabulary.Index, splitter *chunker.Splitter, opts ...Option) *VocabularySummarizer {
	if splitter == nil {
		splitter = chunker.NewSplitter(0)
	}
	s := &VocabularySummarizer{
		vocab:             vocab,
		splitter:          splitter,
		overviewSentences: DefaultOverviewSentences,
		minKeyPoints:      DefaultMinKeyPoints,
		maxKeyPoints:      DefaultMaxKeyPoints,
		maxTopics:         DefaultMaxTopics,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type scored struct {
	idx   int
	text  string
	score float64
	terms map[string]struct{}
}

// Summarize builds the overview, key points, topics and reading statistics
// of text. DocumentID is left for the caller to fill.
func (s *VocabularySummarizer) Summarize(text string) (domain.Summary, error) {
	sentences := s.splitter.Sentences(text)
	if len(sentences) == 0 {
		return domain.Summary{}, domain.ErrEmptyText
	}

	ranked := make([]scored, len(sentences))
	for i, sent := range sentences {
		ranked[i] = scored{idx: i, text: sent.Text, score: s.sentenceScore(sent.Text), terms: termSet(sent.Text)}
	}
	byScore := make([]scored, len(ranked))
	copy(byScore, ranked)
	sort.SliceStable(byScore, func(i, j int) bool { return byScore[i].score > byScore[j].score })

	words := len(vocabulary.Tokenize(text))
	return domain.Summary{
		Overview:       s.overview(byScore),
		KeyPoints:      s.keyPoints(ranked, byScore),
		Topics:         s.topics(text),
		WordCount:      words,
		ReadingMinutes: readingMinutes(words),
		Difficulty:     Difficulty(text),
	}, nil
}

// sentenceScore is the summed vocabulary weight of the sentence's tokens
// divided by its token count.
func (s *VocabularySummarizer) sentenceScore(sentence string) float64 {
	tokens := vocabulary.Tokenize(sentence)
	if len(tokens) == 0 {
		return 0
	}
	sum := 0.0
	for _, tok := range tokens {
		sum += s.vocab.Weight(tok)
	}
	return sum / float64(len(tokens))
}

func (s *VocabularySummarizer) overview(byScore []scored) string {
	k := s.overviewSentences
	if k > len(byScore) {
		k = len(byScore)
	}
	top := make([]scored, k)
	copy(top, byScore[:k])
	sort.Slice(top, func(i, j int) bool { return top[i].idx < top[j].idx })
	parts := make([]string, k)
	for i, p := range top {
		parts[i] = p.text
	}
	return strings.Join(parts, " ")
}

func (s *VocabularySummarizer) keyPoints(ranked, byScore []scored) []string {
	var chosen []scored
	taken := make(map[int]struct{})
	try := func(c scored) bool {
		if _, dup := taken[c.idx]; dup {
			return false
		}
		for _, p := range chosen {
			if jaccard(p.terms, c.terms) >= DuplicateJaccard {
				return false
			}
		}
		taken[c.idx] = struct{}{}
		chosen = append(chosen, c)
		return true
	}

	for _, term := range s.rankTerms(ranked) {
		if len(chosen) >= s.maxKeyPoints {
			break
		}
		for _, c := range byScore {
			if _, ok := c.terms[term]; ok && try(c) {
				break
			}
		}
	}
	for _, c := range byScore {
		if len(chosen) >= s.minKeyPoints {
			break
		}
		try(c)
	}

	sort.Slice(chosen, func(i, j int) bool { return chosen[i].idx < chosen[j].idx })
	out := make([]string, len(chosen))
	for i, c := range chosen {
		out[i] = c.text
	}
	return out
}

// rankTerms orders the document's terms by accumulated weight. Vocabulary
// terms carry their own weight per occurrence, other content words the
// default weight. Ties keep first-occurrence order.
func (s *VocabularySummarizer) rankTerms(ranked []scored) []string {
	weight := make(map[string]float64)
	var order []string
	for _, r := range ranked {
		for _, tok := range vocabulary.ContentTokens(r.text) {
			key := vocabulary.Stem(tok)
			if _, seen := weight[key]; !seen {
				order = append(order, key)
			}
			weight[key] += s.vocab.Weight(tok)
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return weight[order[i]] > weight[order[j]] })
	return order
}

func (s *VocabularySummarizer) topics(text string) []string {
	tokens := vocabulary.Tokenize(text)
	order := s.vocab.TermsIn(tokens)
	counts := make(map[string]float64, len(order))
	for _, tok := range tokens {
		if key, ok := s.vocab.Canonical(tok); ok {
			counts[key] += s.vocab.Weight(tok)
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > s.maxTopics {
		order = order[:s.maxTopics]
	}
	return order
}

func termSet(sentence string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range vocabulary.ContentTokens(sentence) {
		set[vocabulary.Stem(tok)] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

func readingMinutes(words int) int {
	if words == 0 {
		return 0
	}
	return int(math.Max(1, math.Ceil(float64(words)/wordsPerMinute)))
}

var (
	complexMarkers = []string{"phenomenon", "synthesis", "analysis", "molecular", "quantum", "thermodynamics", "hypothesis", "equilibrium"}
	simpleMarkers  = []string{"what", "how", "why", "simple", "easy", "basic"}
)

// Difficulty estimates the reading level of text from marker words:
// "advanced", "beginner" or "intermediate".
func Difficulty(text string) string {
	lower := strings.ToLower(text)
	complexCount, simpleCount := 0, 0
	for _, w := range complexMarkers {
		if strings.Contains(lower, w) {
			complexCount++
		}
	}
	for _, w := range simpleMarkers {
		if strings.Contains(lower, w) {
			simpleCount++
		}
	}
	switch {
	case complexCount > simpleCount:
		return "advanced"
	case simpleCount > complexCount*2:
		return "beginner"
	}
	return "intermediate"
}
