package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor/internal/domain"
	"tutor/internal/vocabulary"
)

func question(text, topic string) domain.ConversationTurn {
	return domain.ConversationTurn{Role: domain.RoleUser, Intent: domain.IntentQuestion, Text: text, Topic: topic}
}

func answer(text string, span *domain.Span) domain.ConversationTurn {
	return domain.ConversationTurn{Role: domain.RoleSystem, Intent: domain.IntentQuestion, Text: text, Span: span}
}

func TestAppend_SequenceAndEviction(t *testing.T) {
	c := New(3, vocabulary.Default())
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	for i := 0; i < 5; i++ {
		got := c.Append(question("q", ""))
		assert.Equal(t, i+1, got.Seq)
		assert.Equal(t, fixed, got.Timestamp)
	}
	turns := c.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, []int{3, 4, 5}, []int{turns[0].Seq, turns[1].Seq, turns[2].Seq})
	assert.Equal(t, 5, c.Exchanges())

	next := c.Append(answer("a", nil))
	assert.Equal(t, 6, next.Seq, "sequence numbers are never reused")
}

func TestTurns_ReturnsCopy(t *testing.T) {
	c := New(0, vocabulary.Default())
	c.Append(question("What is gravity?", "gravity"))
	turns := c.Turns()
	turns[0].Text = "changed"
	assert.Equal(t, "What is gravity?", c.Turns()[0].Text)
}

func TestResolve_Repeat(t *testing.T) {
	c := New(0, vocabulary.Default())

	r := c.Resolve("repeat")
	assert.Equal(t, KindRepeat, r.Kind)
	assert.True(t, r.NoPriorContext)
	assert.Equal(t, "repeat", r.Text)

	c.Append(question("What is diffusion?", "diffusion"))
	c.Append(answer("Diffusion is the mixing of particles without external force.", nil))

	for _, u := range []string{"repeat", "Say again, please.", "Can you repeat that?", "pardon"} {
		r := c.Resolve(u)
		assert.Equal(t, KindRepeat, r.Kind, u)
		assert.False(t, r.NoPriorContext, u)
		assert.Equal(t, "Diffusion is the mixing of particles without external force.", r.Text, u)
	}
}

func TestResolve_RepeatNeedsWholeUtterance(t *testing.T) {
	r := Resolve(nil, "Why do scientists repeat experiments many times?", vocabulary.Default())
	assert.Equal(t, KindNone, r.Kind)
	assert.Equal(t, "experiment", r.Topic)
}

func TestResolve_Deeper(t *testing.T) {
	span := &domain.Span{Start: 0, End: 37, Text: "Diffusion is the mixing of particles."}
	history := []domain.ConversationTurn{
		question("What is diffusion?", "diffusion"),
		{Role: domain.RoleSystem, Text: "Diffusion is the mixing of particles.", Span: span, Depth: 1},
	}

	r := Resolve(history, "Explain more", vocabulary.Default())
	assert.Equal(t, KindDeeper, r.Kind)
	assert.Equal(t, "What is diffusion?", r.Text)
	assert.Equal(t, "diffusion", r.Topic)
	assert.Equal(t, 2, r.Depth)
	require.NotNil(t, r.Span)
	assert.Equal(t, *span, *r.Span)

	r = Resolve(nil, "go deeper", vocabulary.Default())
	assert.Equal(t, KindDeeper, r.Kind)
	assert.True(t, r.NoPriorContext)
	assert.Equal(t, "go deeper", r.Text)
}

func TestResolve_DeeperAfterDeeper(t *testing.T) {
	first := &domain.Span{Start: 0, End: 37, Text: "Diffusion is the mixing of particles."}
	wider := &domain.Span{Start: 0, End: 70, Text: "Diffusion is the mixing of particles. It needs no force."}
	c := New(10, vocabulary.Default())
	c.Append(question("What is diffusion?", "diffusion"))
	c.Append(answer(first.Text, first))
	c.Append(domain.ConversationTurn{Role: domain.RoleUser, Text: "explain more", Intent: domain.IntentDeeper, Topic: "diffusion"})
	c.Append(domain.ConversationTurn{Role: domain.RoleSystem, Text: wider.Text, Intent: domain.IntentDeeper, Span: wider, Depth: 1})

	r := c.Resolve("explain more")
	assert.Equal(t, KindDeeper, r.Kind)
	assert.Equal(t, "What is diffusion?", r.Text)
	assert.Equal(t, 2, r.Depth)
	require.NotNil(t, r.Span)
	assert.Equal(t, *wider, *r.Span)

	assert.Equal(t, 1, c.Exchanges())
	assert.Equal(t, "You asked 1 question about diffusion.", c.Recap())
}

func TestResolve_DeeperSkipsFallbackAnswers(t *testing.T) {
	history := []domain.ConversationTurn{
		question("What is quantum entanglement?", "entanglement"),
		answer("I don't have enough information in this document to answer that.", nil),
	}
	r := Resolve(history, "tell me more", vocabulary.Default())
	assert.True(t, r.NoPriorContext)
}

func TestResolve_PronounFollowUp(t *testing.T) {
	history := []domain.ConversationTurn{
		question("What is diffusion?", "diffusion"),
		answer("Diffusion is the mixing of particles.", nil),
	}
	tests := []struct {
		in   string
		want string
	}{
		{"Why does it happen?", "Why does diffusion happen?"},
		{"What are its uses?", "What are diffusion's uses?"},
		{"Is that fast?", "Is diffusion fast?"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			r := Resolve(history, tt.in, vocabulary.Default())
			assert.Equal(t, KindFollowUp, r.Kind)
			assert.Equal(t, tt.want, r.Text)
			assert.Equal(t, "diffusion", r.Topic)

			topic, known := vocabulary.Default().Topic(r.Text)
			assert.True(t, known)
			assert.Equal(t, "diffusion", topic)
		})
	}
}

func TestResolve_PronounWithOwnTopicPassesThrough(t *testing.T) {
	history := []domain.ConversationTurn{question("What is diffusion?", "diffusion")}
	r := Resolve(history, "Does it relate to gravity?", vocabulary.Default())
	assert.Equal(t, KindNone, r.Kind)
	assert.Equal(t, "Does it relate to gravity?", r.Text)
	assert.Equal(t, "gravity", r.Topic)
}

func TestResolve_PronounWithoutHistory(t *testing.T) {
	r := Resolve(nil, "Why does it happen?", vocabulary.Default())
	assert.Equal(t, KindFollowUp, r.Kind)
	assert.True(t, r.NoPriorContext)
	assert.Equal(t, "Why does it happen?", r.Text)
}

func TestResolve_DoesNotMutateHistory(t *testing.T) {
	history := []domain.ConversationTurn{question("What is diffusion?", "diffusion")}
	Resolve(history, "Why does it happen?", vocabulary.Default())
	assert.Equal(t, "What is diffusion?", history[0].Text)
}

func TestRecap(t *testing.T) {
	c := New(2, vocabulary.Default())
	assert.Equal(t, "We didn't get to any questions this time.", c.Recap())

	c.Append(question("What is diffusion?", "diffusion"))
	assert.Equal(t, "You asked 1 question about diffusion.", c.Recap())

	c.Append(answer("...", nil))
	c.Append(question("What is gravity?", "gravity"))
	c.Append(question("And gravity again?", "gravity"))
	c.Append(question("What is an atom?", "atom"))
	assert.Equal(t, "You asked 4 questions about diffusion, gravity and atom.", c.Recap())
	assert.Equal(t, []string{"diffusion", "gravity", "atom"}, c.Topics())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "repeat", KindRepeat.String())
	assert.Equal(t, "none", KindNone.String())
}

func TestTallies(t *testing.T) {
	span := &domain.Span{Start: 0, End: 10, Text: "Diffusion."}
	c := New(2, vocabulary.Default())
	assert.Zero(t, c.AvgConfidence())

	c.Append(question("What is diffusion?", "diffusion"))
	c.Append(domain.ConversationTurn{Role: domain.RoleSystem, Intent: domain.IntentQuestion, Text: "Diffusion.", Span: span, Confidence: 0.8})
	c.Append(domain.ConversationTurn{Role: domain.RoleUser, Intent: domain.IntentDeeper, Text: "tell me more"})
	c.Append(domain.ConversationTurn{Role: domain.RoleSystem, Intent: domain.IntentDeeper, Text: "More.", Span: span, Confidence: 0.4})
	c.Append(question("What is quantum foam?", "foam"))
	c.Append(answer("I don't have enough information in this document to answer that.", nil))
	c.Append(domain.ConversationTurn{Role: domain.RoleSystem, Intent: domain.IntentCommand, Text: "Okay, I'll pause."})

	assert.Equal(t, 2, c.Exchanges())
	assert.Equal(t, 1, c.Expansions())
	assert.Equal(t, 1, c.Unanswered())
	assert.InDelta(t, 0.6, c.AvgConfidence(), 1e-9)
	assert.Equal(t, 2, c.Len())
}
