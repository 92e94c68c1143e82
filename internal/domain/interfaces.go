package domain

import "context"

// Summarizer produces an overview and key points for extracted text.
type Summarizer interface {
	Summarize(text string) (Summary, error)
}

// Recorder is the persistence collaborator. Records are handed off as plain
// structs; nothing in the core depends on whether they are stored.
type Recorder interface {
	SaveDocument(ctx context.Context, doc Document) error
	SaveSummary(ctx context.Context, summary Summary) error
	AppendTurn(ctx context.Context, sessionID string, turn ConversationTurn) error
}

// TutorService defines the operations exposed by the application core.
type TutorService interface {
	SubmitDocument(ctx context.Context, data []byte, filename string) (*Document, *Summary, error)
	NewSession(documentID string) (string, error)
	SubmitUtterance(ctx context.Context, sessionID, text string, channel Channel) (Reply, error)
	EndSession(sessionID string)
}
