// Package speech shapes reply text for the external text-to-speech
// collaborator.
package speech

import (
	"strings"

	"tutor/internal/chunker"
)

const (
	DefaultMaxChars = 250
	maxSentences    = 2
	maxWords        = 40
)

var (
	markdown = strings.NewReplacer("**", "", "*", "", "```", "", "`", "", "###", "", "##", "", "#", "", "__", "")
	symbols  = strings.NewReplacer(
		"&", " and ",
		"@", " at ",
		"%", " percent ",
		"$", " dollars ",
		"+", " plus ",
		"=", " equals ",
		"<", " less than ",
		">", " greater than ",
		"→", " leads to ",
		"←", " comes from ",
		"↑", " increases ",
		"↓", " decreases ",
	)
	splitter = chunker.NewSplitter(0)
)

// ForVoice strips markdown, spells out symbols and collapses whitespace.
// Text longer than maxChars is cut to its first two sentences, or to its
// first 40 words when it is a single sentence.
func ForVoice(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	text = symbols.Replace(markdown.Replace(text))
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= maxChars {
		return text
	}

	sentences := splitter.Sentences(text)
	if len(sentences) > 1 {
		n := min(len(sentences), maxSentences)
		parts := make([]string, n)
		for i := range parts {
			parts[i] = sentences[i].Text
		}
		return strings.Join(parts, " ")
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
