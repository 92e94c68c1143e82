package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor/internal/domain"
)

type fakeChat struct {
	replies map[string]domain.Reply
	got     []string
}

func (f *fakeChat) SubmitUtterance(_ context.Context, _ string, text string, _ domain.Channel) (domain.Reply, error) {
	f.got = append(f.got, text)
	r, ok := f.replies[text]
	if !ok {
		return domain.Reply{}, errors.New("unknown session")
	}
	return r, nil
}

func send(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	return next.(Model)
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return next.(Model)
}

func TestModel_Conversation(t *testing.T) {
	chat := &fakeChat{replies: map[string]domain.Reply{
		"start": {Ack: &domain.ControlAck{Command: "start", Message: "Hi there!", State: "active"}},
		"What is diffusion?": {Answer: &domain.Answer{
			Text:        "Diffusion is mixing.",
			Confidence:  0.8,
			MatchedSpan: domain.Span{Text: "Diffusion is mixing.", SectionTitle: "Matter"},
		}},
		"bye": {Ack: &domain.ControlAck{Command: "goodbye", Message: "Goodbye!", State: "ended"}},
	}}
	m := sized(New(chat, "s1", "2 topics"))

	m = send(t, m, "start")
	m = send(t, m, "What is diffusion?")
	require.Len(t, m.entries, 4)
	assert.Equal(t, "Diffusion is mixing.", m.entries[3].span)
	assert.Contains(t, m.entries[3].notes, "Matter")
	assert.Contains(t, m.View(), "Study Tutor")

	m = send(t, m, "bye")
	assert.True(t, m.ended)
	assert.Equal(t, []string{"start", "What is diffusion?", "bye"}, chat.got)

	m.input.SetValue("anything")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_Error(t *testing.T) {
	m := sized(New(&fakeChat{}, "s1", ""))
	m = send(t, m, "hello")
	assert.Contains(t, m.status, "Error")
	assert.False(t, m.waiting)
}

func TestModel_EmptyInputIgnored(t *testing.T) {
	m := sized(New(&fakeChat{}, "s1", ""))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, next.(Model).entries)
}

func TestHighlightSpan(t *testing.T) {
	assert.Equal(t, "plain", highlightSpan("plain", ""))
	assert.Equal(t, "no match", highlightSpan("no match", "other"))
	assert.Contains(t, highlightSpan("Here: Gravity pulls.", "Gravity pulls."), "Gravity pulls.")
}
