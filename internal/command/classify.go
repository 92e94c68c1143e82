// Package command classifies utterances as control commands or content and
// drives the per-session conversation state machine.
package command

import (
	"tutor/internal/conversation"
	"tutor/internal/vocabulary"
)

// Kind is the classification of one utterance.
type Kind int

const (
	KindContent Kind = iota
	KindNoInput
	KindGoodbye
	KindStop
	KindRepeat
	KindHelp
	KindStart
)

func (k Kind) String() string {
	switch k {
	case KindNoInput:
		return "no-input"
	case KindGoodbye:
		return "goodbye"
	case KindStop:
		return "stop"
	case KindRepeat:
		return "repeat"
	case KindHelp:
		return "help"
	case KindStart:
		return "start"
	}
	return "content"
}

// MaxTrailingWords is how many filler words may follow a control phrase.
const MaxTrailingWords = 2

var rules = []struct {
	kind    Kind
	phrases []string
}{
	{KindGoodbye, []string{"goodbye", "good bye", "bye", "bye bye", "end conversation", "end the conversation",
		"exit", "quit", "see you", "see you later", "that's all", "i'm done", "we're done"}},
	{KindStop, []string{"stop", "pause", "stop talking", "be quiet", "hold on", "hang on", "wait", "shush"}},
	{KindRepeat, conversation.RepeatPhrases},
	{KindHelp, []string{"help", "what can you do", "commands", "show commands", "how does this work"}},
	{KindStart, []string{"start", "start conversation", "start the conversation", "let's start", "lets start",
		"begin", "let's begin", "hello", "hi", "hey", "hey there", "good morning", "good afternoon",
		"good evening", "resume", "continue", "i'm back", "let's go", "ready"}},
}

// Classify matches utterance against the control phrases in fixed priority
// order: goodbye, stop, repeat, help, start. A phrase must make up the whole
// utterance apart from filler, so questions that merely contain "help" or
// "stop" are content.
func Classify(utterance string) Kind {
	norm := vocabulary.Normalize(utterance)
	if norm == "" {
		return KindNoInput
	}
	for _, r := range rules {
		if _, ok := vocabulary.MatchPhrase(norm, r.phrases, MaxTrailingWords); ok {
			return r.kind
		}
	}
	return KindContent
}
