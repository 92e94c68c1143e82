package conversation

import (
	"strings"

	"tutor/internal/domain"
	"tutor/internal/vocabulary"
)

// Kind is the referential pattern an utterance was recognized as.
type Kind int

const (
	KindNone Kind = iota
	KindRepeat
	KindDeeper
	KindFollowUp
)

func (k Kind) String() string {
	switch k {
	case KindRepeat:
		return "repeat"
	case KindDeeper:
		return "deeper"
	case KindFollowUp:
		return "follow-up"
	}
	return "none"
}

// Resolved is an utterance after reference resolution.
type Resolved struct {
	Original string
	Text     string
	Kind     Kind
	Topic    string
	// Span and Depth are set for KindDeeper: the span of the previous answer
	// and the depth to answer at.
	Span  *domain.Span
	Depth int
	// NoPriorContext is set when the utterance refers back but there is
	// nothing to refer to. Text is then the original utterance.
	NoPriorContext bool
}

var (
	RepeatPhrases = []string{"repeat", "say again", "say that again", "repeat that", "pardon", "pardon me",
		"what did you say", "come again", "one more time"}
	DeeperPhrases = []string{"explain more", "go deeper", "tell me more", "more detail", "more details",
		"elaborate", "explain further", "explain that more", "more please", "what else", "keep going"}
)

const maxTrailingWords = 2

// IsRepeat reports whether utterance asks for the last answer again.
func IsRepeat(utterance string) bool {
	_, ok := vocabulary.MatchPhrase(vocabulary.Normalize(utterance), RepeatPhrases, maxTrailingWords)
	return ok
}

// IsDeeper reports whether utterance asks to expand the last answer.
func IsDeeper(utterance string) bool {
	_, ok := vocabulary.MatchPhrase(vocabulary.Normalize(utterance), DeeperPhrases, maxTrailingWords)
	return ok
}

// Resolve interprets utterance against history. It does not modify history.
func Resolve(history []domain.ConversationTurn, utterance string, vocab *vocabulary.Index) Resolved {
	r := Resolved{Original: utterance, Text: utterance}

	switch {
	case IsRepeat(utterance):
		r.Kind = KindRepeat
		last, ok := lastTurn(history, func(t domain.ConversationTurn) bool { return t.Role == domain.RoleSystem })
		if !ok {
			r.NoPriorContext = true
			return r
		}
		r.Text, r.Topic = last.Text, last.Topic
		return r

	case IsDeeper(utterance):
		r.Kind = KindDeeper
		q, answer, ok := lastAnswered(history)
		if !ok {
			r.NoPriorContext = true
			return r
		}
		span := *answer.Span
		r.Text, r.Topic, r.Span, r.Depth = q.Text, topicOf(q, vocab), &span, answer.Depth+1
		return r
	}

	topic, known := vocab.Topic(utterance)
	if !known && hasPronoun(utterance) {
		r.Kind = KindFollowUp
		q, ok := lastTurn(history, isQuestion)
		prev := ""
		if ok {
			prev = topicOf(q, vocab)
		}
		if prev == "" {
			r.NoPriorContext = true
			return r
		}
		r.Text, r.Topic = substitutePronoun(utterance, prev), prev
		return r
	}
	r.Topic = topic
	return r
}

func isQuestion(t domain.ConversationTurn) bool {
	return t.Role == domain.RoleUser && t.Intent == domain.IntentQuestion
}

func lastTurn(history []domain.ConversationTurn, match func(domain.ConversationTurn) bool) (domain.ConversationTurn, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if match(history[i]) {
			return history[i], true
		}
	}
	return domain.ConversationTurn{}, false
}

// lastAnswered finds the most recent question whose answer carried a span.
func lastAnswered(history []domain.ConversationTurn) (domain.ConversationTurn, domain.ConversationTurn, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		a := history[i]
		if a.Role != domain.RoleSystem || a.Span == nil {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if isQuestion(history[j]) {
				return history[j], a, true
			}
		}
		return domain.ConversationTurn{}, domain.ConversationTurn{}, false
	}
	return domain.ConversationTurn{}, domain.ConversationTurn{}, false
}

func topicOf(t domain.ConversationTurn, vocab *vocabulary.Index) string {
	if t.Topic != "" {
		return t.Topic
	}
	topic, _ := vocab.Topic(t.Text)
	return topic
}

func hasPronoun(utterance string) bool {
	for _, tok := range vocabulary.Tokenize(utterance) {
		if vocabulary.IsPronoun(tok) {
			return true
		}
	}
	return false
}

// substitutePronoun replaces the first referring pronoun with topic,
// keeping possessives possessive.
func substitutePronoun(utterance, topic string) string {
	words := strings.Fields(utterance)
	for i, w := range words {
		core := strings.TrimFunc(w, func(r rune) bool { return strings.ContainsRune(`?!.,;:"'`, r) })
		lower := strings.ToLower(core)
		if !vocabulary.IsPronoun(lower) {
			continue
		}
		replacement := topic
		if lower == "its" || lower == "their" {
			replacement = topic + "'s"
		}
		words[i] = strings.Replace(w, core, replacement, 1)
		break
	}
	return strings.Join(words, " ")
}
