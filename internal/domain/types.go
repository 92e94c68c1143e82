package domain

import "time"

// Document is an uploaded file after successful extraction.
type Document struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	Text          string    `json:"text"`
	Method        string    `json:"method"`
	Quality       float64   `json:"quality"`
	LowConfidence bool      `json:"low_confidence"`
	Sections      []Section `json:"sections"`
	WordCount     int       `json:"word_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// Section is a headed slice of a document's text.
// Start and End are byte offsets into Document.Text.
type Section struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// VocabularyTerm is one entry of the curated domain vocabulary.
type VocabularyTerm struct {
	Term       string   `yaml:"term" toml:"term" json:"term"`
	Definition string   `yaml:"definition" toml:"definition" json:"definition"`
	Synonyms   []string `yaml:"synonyms" toml:"synonyms" json:"synonyms"`
	Weight     float64  `yaml:"weight" toml:"weight" json:"weight"`
}

// Summary is the generated overview of a document.
type Summary struct {
	DocumentID     string   `json:"document_id"`
	Overview       string   `json:"overview"`
	KeyPoints      []string `json:"key_points"`
	Topics         []string `json:"topics"`
	WordCount      int      `json:"word_count"`
	ReadingMinutes int      `json:"reading_minutes"`
	Difficulty     string   `json:"difficulty"`
}

// Role identifies who produced a turn.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Intent is the resolved purpose of a turn.
type Intent string

const (
	IntentQuestion Intent = "question"
	IntentCommand  Intent = "command"
	IntentUnknown  Intent = "unknown"
	// IntentDeeper marks a request to expand the previous answer.
	IntentDeeper Intent = "deeper"
)

// Channel is the input modality of an utterance.
type Channel string

const (
	ChannelText  Channel = "text"
	ChannelVoice Channel = "voice"
)

// Span is a contiguous piece of document text selected as an answer.
type Span struct {
	Start        int    `json:"start"`
	End          int    `json:"end"`
	Text         string `json:"text"`
	SectionTitle string `json:"section_title,omitempty"`
}

// IsZero reports whether the span selects nothing.
func (s Span) IsZero() bool { return s.Text == "" && s.Start == 0 && s.End == 0 }

// ConversationTurn is one utterance within a session.
type ConversationTurn struct {
	Seq        int       `json:"seq"`
	Role       Role      `json:"role"`
	Text       string    `json:"text"`
	Intent     Intent    `json:"intent"`
	Timestamp  time.Time `json:"timestamp"`
	Topic      string    `json:"topic,omitempty"`
	Span       *Span     `json:"span,omitempty"`
	Depth      int       `json:"depth,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
}

// Answer is the matcher's response to a content question.
type Answer struct {
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
	MatchedSpan Span    `json:"matched_span"`
	Fallback    bool    `json:"fallback"`
	Topic       string  `json:"topic,omitempty"`
	Depth       int     `json:"depth,omitempty"`
}

// ControlAck acknowledges a control command.
type ControlAck struct {
	Command string `json:"command"`
	Message string `json:"message"`
	State   string `json:"state"`
	Invalid bool   `json:"invalid,omitempty"`
}

// Reply carries exactly one of Answer or Ack.
type Reply struct {
	Answer *Answer     `json:"answer,omitempty"`
	Ack    *ControlAck `json:"ack,omitempty"`
}

// Text returns the text handed to the UI or speech collaborator.
func (r Reply) Text() string {
	switch {
	case r.Answer != nil:
		return r.Answer.Text
	case r.Ack != nil:
		return r.Ack.Message
	}
	return ""
}

// Session is a point-in-time view of a conversation session.
type Session struct {
	ID         string             `json:"id"`
	DocumentID string             `json:"document_id,omitempty"`
	State      string             `json:"state"`
	Grade      string             `json:"grade,omitempty"`
	Turns      []ConversationTurn `json:"turns"`
	CreatedAt  time.Time          `json:"created_at"`
}

// StudyStats summarizes what happened in one session.
type StudyStats struct {
	SessionID     string        `json:"session_id"`
	DocumentID    string        `json:"document_id,omitempty"`
	Questions     int           `json:"questions"`
	Expansions    int           `json:"expansions"`
	Unanswered    int           `json:"unanswered"`
	Topics        []string      `json:"topics"`
	Duration      time.Duration `json:"duration"`
	AvgConfidence float64       `json:"avg_confidence"`
}
