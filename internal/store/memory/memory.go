package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tutor/internal/domain"
	"tutor/internal/store"
)

// Storage is a simple in-memory store. Turns are kept per session in the
// order they were appended.
type Storage struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	summaries map[string]domain.Summary
	turns     map[string][]domain.ConversationTurn
}

var _ store.Store = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{
		documents: make(map[string]domain.Document),
		summaries: make(map[string]domain.Summary),
		turns:     make(map[string][]domain.ConversationTurn),
	}
}

func (s *Storage) SaveDocument(_ context.Context, doc domain.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
	return nil
}

func (s *Storage) SaveSummary(_ context.Context, summary domain.Summary) error {
	if summary.DocumentID == "" {
		return fmt.Errorf("summary without document id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.DocumentID] = summary
	return nil
}

func (s *Storage) AppendTurn(_ context.Context, sessionID string, turn domain.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.turns[sessionID]
	if n := len(turns); n > 0 && turns[n-1].Seq >= turn.Seq {
		return fmt.Errorf("turn %d out of order in session %s", turn.Seq, sessionID)
	}
	s.turns[sessionID] = append(turns, turn)
	return nil
}

// Documents returns the stored documents, oldest first.
func (s *Storage) Documents(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	out := make([]domain.Document, 0, len(s.documents))
	for _, d := range s.documents {
		out = append(out, d)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Storage) Summary(_ context.Context, documentID string) (domain.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.summaries[documentID]
	if !ok {
		return domain.Summary{}, fmt.Errorf("summary %s: %w", documentID, store.ErrNotFound)
	}
	return sum, nil
}

func (s *Storage) Turns(_ context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.turns[sessionID]
	out := make([]domain.ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *Storage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[string]domain.Document)
	s.summaries = make(map[string]domain.Summary)
	s.turns = make(map[string][]domain.ConversationTurn)
	return nil
}

func (s *Storage) Close() error { return nil }
