package extraction

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"tutor/internal/vocabulary"
)

const (
	DefaultTargetLength = 200
	maxScoredTokens     = 2000

	lengthWeight = 0.2
	letterWeight = 0.3
	wordWeight   = 0.5
)

// Scorer rates extracted text in [0,1].
type Scorer interface {
	Score(text string) float64
}

// QualityScorer combines text length, the share of letters among visible
// characters and the share of recognized words. OCR noise scores low on the
// last two.
type QualityScorer struct {
	vocab        *vocabulary.Index
	targetLength int
}

func NewQualityScorer(vocab *vocabulary.Index, targetLength int) *QualityScorer {
	if targetLength <= 0 {
		targetLength = DefaultTargetLength
	}
	return &QualityScorer{vocab: vocab, targetLength: targetLength}
}

func (q *QualityScorer) Score(text string) float64 {
	visible, letters := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		visible++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if visible == 0 {
		return 0
	}
	length := math.Min(1, float64(visible)/float64(q.targetLength))
	letterRatio := float64(letters) / float64(visible)
	return lengthWeight*length + letterWeight*letterRatio + wordWeight*q.wordRatio(text)
}

func (q *QualityScorer) wordRatio(text string) float64 {
	tokens := vocabulary.Tokenize(text)
	if len(tokens) > maxScoredTokens {
		tokens = tokens[:maxScoredTokens]
	}
	if len(tokens) == 0 {
		return 0
	}
	known := 0
	for _, tok := range tokens {
		if q.vocab.IsKnownWord(tok) {
			known++
		}
	}
	return float64(known) / float64(len(tokens))
}

var hyphenBreak = regexp.MustCompile(`(\p{L})-\n(\p{Ll})`)

// Clean normalizes extracted text: control characters are dropped, words
// hyphenated across line breaks are rejoined, each line is trimmed with its
// inner whitespace collapsed, and runs of blank lines become one blank line.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == '\uFFFD' {
			return -1
		}
		return r
	}, text)
	text = hyphenBreak.ReplaceAllString(text, "$1$2")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
