// Package chunker segments document text into sections and sentences,
// keeping byte offsets into the original text.
package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"tutor/internal/domain"
)

// Sentence is one sentence of a document. Start and End index the original
// text; Text has its inner whitespace collapsed.
type Sentence struct {
	Index        int
	Start        int
	End          int
	Text         string
	Section      int
	SectionTitle string
}

// Splitter finds headings and sentence boundaries.
type Splitter struct {
	maxHeadingWords int
	sentence        *regexp.Regexp
}

var (
	headingKeyword = regexp.MustCompile(`(?i)^(chapter|unit|lesson|section|part|topic|module)\s+[\p{L}\p{N}]+`)
	headingNumber  = regexp.MustCompile(`^(\d+(\.\d+)*[.)]?|[IVXLC]+[.)])\s+\p{L}`)
)

func NewSplitter(maxHeadingWords int) *Splitter {
	if maxHeadingWords <= 0 {
		maxHeadingWords = 8
	}
	return &Splitter{
		maxHeadingWords: maxHeadingWords,
		sentence:        regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Sentences returns the sentences of text in document order. Heading lines
// are not sentences.
func (s *Splitter) Sentences(text string) []Sentence {
	_, sentences := s.Split(text)
	return sentences
}

// Sections returns the headed sections of text. Text before the first
// heading forms an untitled section.
func (s *Splitter) Sections(text string) []domain.Section {
	sections, _ := s.Split(text)
	return sections
}

type region struct {
	section   domain.Section
	bodyStart int
}

// Split returns both sections and sentences.
func (s *Splitter) Split(text string) ([]domain.Section, []Sentence) {
	var regions []region
	cur := region{}
	closeCurrent := func(end int) {
		cur.section.End = end
		if cur.bodyStart > end {
			cur.bodyStart = end
		}
		cur.section.Text = strings.TrimSpace(text[cur.bodyStart:end])
		if cur.section.Title != "" || cur.section.Text != "" {
			cur.section.Index = len(regions)
			regions = append(regions, cur)
		}
	}

	prevClosed := true
	for start := 0; start < len(text); {
		end := strings.IndexByte(text[start:], '\n')
		next := len(text)
		if end < 0 {
			end = len(text)
		} else {
			end += start
			next = end + 1
		}
		line := strings.TrimSpace(text[start:end])
		switch {
		case line == "":
			prevClosed = true
		case prevClosed && s.IsHeading(line):
			closeCurrent(start)
			cur = region{
				section:   domain.Section{Title: strings.TrimRight(line, ": "), Start: start},
				bodyStart: next,
			}
		default:
			prevClosed = endsSentence(line)
		}
		start = next
	}
	closeCurrent(len(text))

	sections := make([]domain.Section, len(regions))
	var sentences []Sentence
	for i, r := range regions {
		sections[i] = r.section
		sentences = s.appendSentences(sentences, text, r)
	}
	return sections, sentences
}

func (s *Splitter) appendSentences(out []Sentence, text string, r region) []Sentence {
	base := r.bodyStart
	body := text[base:r.section.End]
	add := func(from, to int) {
		raw := body[from:to]
		trimmed := strings.TrimLeftFunc(raw, unicode.IsSpace)
		from += len(raw) - len(trimmed)
		trimmed = strings.TrimRightFunc(trimmed, unicode.IsSpace)
		to = from + len(trimmed)
		if !hasWord(trimmed) {
			return
		}
		out = append(out, Sentence{
			Index:        len(out),
			Start:        base + from,
			End:          base + to,
			Text:         strings.Join(strings.Fields(trimmed), " "),
			Section:      r.section.Index,
			SectionTitle: r.section.Title,
		})
	}
	last := 0
	for _, loc := range s.sentence.FindAllStringIndex(body, -1) {
		add(loc[0], loc[1])
		last = loc[1]
	}
	if last < len(body) {
		add(last, len(body))
	}
	return out
}

// IsHeading reports whether a single trimmed line looks like a heading:
// short, without terminal punctuation, and numbered, keyword-led, upper
// case, colon-terminated or title case.
func (s *Splitter) IsHeading(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || len(line) > 100 || !hasWord(line) {
		return false
	}
	words := strings.Fields(line)
	if len(words) > s.maxHeadingWords || endsSentence(line) {
		return false
	}
	switch {
	case headingKeyword.MatchString(line):
		return true
	case headingNumber.MatchString(line):
		return true
	case strings.HasSuffix(line, ":"):
		return true
	case isUpper(line):
		return true
	}
	return isTitleCase(words)
}

func endsSentence(line string) bool {
	line = strings.TrimRight(line, `"')]”’ `)
	if line == "" {
		return false
	}
	switch line[len(line)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

func hasWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isUpper(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 2
}

var minorWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {}, "in": {}, "on": {},
	"to": {}, "for": {}, "with": {}, "at": {}, "by": {}, "from": {}, "vs": {},
}

func isTitleCase(words []string) bool {
	for i, w := range words {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w == "" {
			continue
		}
		if _, minor := minorWords[strings.ToLower(w)]; minor && i > 0 {
			continue
		}
		first := []rune(w)[0]
		if unicode.IsLetter(first) && !unicode.IsUpper(first) {
			return false
		}
	}
	return true
}
