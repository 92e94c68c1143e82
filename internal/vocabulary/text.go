package vocabulary

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Tokenize returns the lower-cased word tokens of text, stopwords included.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// ContentTokens returns the tokens of text with stopwords removed.
func ContentTokens(text string) []string {
	raw := Tokenize(text)
	out := raw[:0]
	for _, t := range raw {
		if IsStopword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// IsStopword reports whether word carries no topical weight.
func IsStopword(word string) bool {
	_, ok := stopwords[strings.ToLower(word)]
	return ok
}

// Stem drops a possessive "'s" and reduces simple English plural forms to
// their singular.
func Stem(word string) string {
	w := strings.ToLower(word)
	for _, suffix := range []string{"'s", "’s"} {
		if len(w) > len(suffix) {
			w = strings.TrimSuffix(w, suffix)
		}
	}
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && (strings.HasSuffix(w, "sses") || strings.HasSuffix(w, "xes") ||
		strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes") || strings.HasSuffix(w, "zes")):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") &&
		!strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "us") && !strings.HasSuffix(w, "is"):
		return w[:len(w)-1]
	}
	return w
}

func normalizeKey(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}

var stopwords = toSet(
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
	"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that", "these",
	"those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into",
	"about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own",
	"same", "too", "very", "can", "will", "just", "don", "should", "now",
	"what", "how", "why", "when", "where", "who", "whom", "which", "whose",
	"do", "does", "did", "has", "have", "had", "i", "me", "my", "you", "your", "we", "our", "they",
	"them", "their", "he", "she", "his", "her", "there", "here", "would", "could", "may", "might",
	"must", "tell", "explain", "describe", "define", "mean", "means", "please", "also", "some", "any",
	"all", "each", "other", "more", "most", "not", "no", "yes",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var (
	leadingFiller  = toSet("please", "ok", "okay", "um", "uh", "so", "now", "just", "can", "could", "would", "will", "you")
	trailingFiller = toSet("please", "now", "thanks", "thank", "you", "me", "that", "it", "again", "then", "for",
		"ok", "okay", "there", "all", "everyone", "session", "conversation", "talking", "tutor")
)

// Normalize lower-cases text, strips punctuation and collapses whitespace.
func Normalize(text string) string {
	return strings.Join(Tokenize(strings.ReplaceAll(text, "’", "'")), " ")
}

// MatchPhrase reports which of phrases the normalized utterance consists of.
// Leading filler ("please", "can you" ...) is skipped and at most
// maxTrailing filler words may follow the phrase, so a phrase buried in a
// longer sentence does not match.
func MatchPhrase(normalized string, phrases []string, maxTrailing int) (string, bool) {
	words := strings.Fields(normalized)
	for len(words) > 1 {
		if _, filler := leadingFiller[words[0]]; !filler {
			break
		}
		words = words[1:]
	}
	for _, p := range phrases {
		pw := strings.Fields(p)
		if len(pw) == 0 || len(pw) > len(words) || len(words)-len(pw) > maxTrailing {
			continue
		}
		if hasPrefixWords(words, pw) && allFiller(words[len(pw):]) {
			return p, true
		}
	}
	return "", false
}

func hasPrefixWords(words, prefix []string) bool {
	for i := range prefix {
		if words[i] != prefix[i] {
			return false
		}
	}
	return true
}

func allFiller(words []string) bool {
	for _, w := range words {
		if _, ok := trailingFiller[w]; !ok {
			return false
		}
	}
	return true
}
