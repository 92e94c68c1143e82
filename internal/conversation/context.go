// Package conversation keeps a session's bounded turn log and resolves
// utterances that refer back to earlier turns.
package conversation

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"tutor/internal/domain"
	"tutor/internal/vocabulary"
)

const DefaultWindow = 20

// Context is the append-only turn log of one session. Once the window is
// full the oldest turns are dropped; sequence numbers keep increasing.
// A Context is not safe for concurrent use; the owning session serializes
// access.
type Context struct {
	window int
	turns  []domain.ConversationTurn
	seq    int
	asked  int
	topics []string

	expansions int
	answered   int
	unanswered int
	confSum    float64

	vocab  *vocabulary.Index
	now    func() time.Time
}

func New(window int, vocab *vocabulary.Index) *Context {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Context{window: window, vocab: vocab, now: time.Now}
}

// Append records turn, assigning the next sequence number and a timestamp
// when none is set, and returns the stored turn.
func (c *Context) Append(turn domain.ConversationTurn) domain.ConversationTurn {
	c.seq++
	turn.Seq = c.seq
	if turn.Timestamp.IsZero() {
		turn.Timestamp = c.now()
	}
	switch {
	case isQuestion(turn):
		c.asked++
		if turn.Topic != "" && !slices.Contains(c.topics, turn.Topic) {
			c.topics = append(c.topics, turn.Topic)
		}
	case turn.Role == domain.RoleUser && turn.Intent == domain.IntentDeeper:
		c.expansions++
	case turn.Role == domain.RoleSystem && (turn.Intent == domain.IntentQuestion || turn.Intent == domain.IntentDeeper):
		if turn.Span == nil {
			c.unanswered++
			break
		}
		c.answered++
		c.confSum += turn.Confidence
	}
	c.turns = append(c.turns, turn)
	if over := len(c.turns) - c.window; over > 0 {
		kept := make([]domain.ConversationTurn, c.window)
		copy(kept, c.turns[over:])
		c.turns = kept
	}
	return turn
}

// Turns returns a copy of the retained turns, oldest first.
func (c *Context) Turns() []domain.ConversationTurn {
	out := make([]domain.ConversationTurn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len is the number of retained turns.
func (c *Context) Len() int { return len(c.turns) }

// Exchanges is the number of user turns ever appended, evicted ones
// included.
func (c *Context) Exchanges() int { return c.asked }

// Expansions is the number of requests to go deeper.
func (c *Context) Expansions() int { return c.expansions }

// Unanswered is the number of answers that fell back for lack of a match.
func (c *Context) Unanswered() int { return c.unanswered }

// AvgConfidence is the mean confidence of the matched answers, 0 when
// there are none.
func (c *Context) AvgConfidence() float64 {
	if c.answered == 0 {
		return 0
	}
	return c.confSum / float64(c.answered)
}

// Resolve interprets utterance against the retained turns.
func (c *Context) Resolve(utterance string) Resolved {
	return Resolve(c.turns, utterance, c.vocab)
}

// Topics lists the distinct question topics in the order first asked.
func (c *Context) Topics() []string {
	out := make([]string, len(c.topics))
	copy(out, c.topics)
	return out
}

// Recap summarizes the conversation for the farewell message.
func (c *Context) Recap() string {
	if c.asked == 0 {
		return "We didn't get to any questions this time."
	}
	noun := "questions"
	if c.asked == 1 {
		noun = "question"
	}
	if len(c.topics) == 0 {
		return fmt.Sprintf("You asked %d %s.", c.asked, noun)
	}
	topics := c.topics
	if len(topics) > 5 {
		topics = topics[:5]
	}
	return fmt.Sprintf("You asked %d %s about %s.", c.asked, noun, joinList(topics))
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
