package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tutor/internal/domain"
)

// ChatPort is the TUI-facing subset of the tutor service.
type ChatPort interface {
	SubmitUtterance(ctx context.Context, sessionID, text string, channel domain.Channel) (domain.Reply, error)
}

type entry struct {
	role  domain.Role
	text  string
	span  string
	notes string
}

type replyMsg struct {
	reply domain.Reply
	err   error
}

// Model is the Bubble Tea model of the chat window.
type Model struct {
	service   ChatPort
	sessionID string
	input     textinput.Model
	viewport  viewport.Model
	entries   []entry
	summary   string
	status    string
	waiting   bool
	ended     bool
	ready     bool
}

// New creates a chat model for an open session. summary is shown under the
// header.
func New(service ChatPort, sessionID, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Say \"start\", then ask about your document"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:   service,
		sessionID: sessionID,
		input:     ti,
		viewport:  vp,
		summary:   summary,
		status:    "Type \"start\" to begin. Ctrl+C quits.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and reply events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header+summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.refresh()
		return m, nil

	case replyMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.push(msg.reply)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			if m.ended {
				return m, tea.Quit
			}
			m.input.SetValue("")
			m.entries = append(m.entries, entry{role: domain.RoleUser, text: text})
			m.waiting = true
			m.status = "Thinking..."
			m.refresh()
			return m, m.submit(text)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(text string) tea.Cmd {
	service, id := m.service, m.sessionID
	return func() tea.Msg {
		reply, err := service.SubmitUtterance(context.Background(), id, text, domain.ChannelText)
		return replyMsg{reply: reply, err: err}
	}
}

func (m *Model) push(r domain.Reply) {
	e := entry{role: domain.RoleSystem, text: r.Text()}
	switch {
	case r.Answer != nil:
		a := r.Answer
		if !a.Fallback {
			e.span = a.MatchedSpan.Text
			e.notes = fmt.Sprintf("confidence %.2f", a.Confidence)
			if a.MatchedSpan.SectionTitle != "" {
				e.notes += " · " + a.MatchedSpan.SectionTitle
			}
		}
		m.status = "Ask another question, or say \"tell me more\"."
	case r.Ack != nil:
		if r.Ack.Invalid {
			e.notes = "ignored in state " + r.Ack.State
		}
		m.status = "State: " + r.Ack.State
		if r.Ack.State == "ended" {
			m.ended = true
			m.status = "Conversation ended. Press Enter or Ctrl+C to exit."
		}
	}
	if e.text != "" {
		m.entries = append(m.entries, e)
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Study Tutor")
	summary := dimStyle.Render(m.summary)
	transcript := transcriptStyle.Render(m.viewport.View())
	input := inputStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.entries) == 0 {
		return "No messages yet."
	}
	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if e.role == domain.RoleUser {
			b.WriteString(userStyle.Render("You: ") + e.text)
			continue
		}
		b.WriteString(tutorStyle.Render("Tutor: ") + highlightSpan(e.text, e.span))
		if e.notes != "" {
			b.WriteString("\n" + dimStyle.Render("  "+e.notes))
		}
	}
	return b.String()
}

var (
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	tutorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// highlightSpan renders the quoted document span inside text in bold.
func highlightSpan(text, span string) string {
	if span == "" {
		return text
	}
	i := strings.Index(text, span)
	if i < 0 {
		return text
	}
	return text[:i] + highlightStyle.Render(span) + text[i+len(span):]
}
