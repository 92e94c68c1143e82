// Package store holds the persistence collaborators that receive documents,
// summaries and conversation turns from the tutor service.
package store

import (
	"context"
	"errors"

	"tutor/internal/domain"
)

var ErrNotFound = errors.New("not found")

// Store records everything the service hands off and reads it back.
type Store interface {
	domain.Recorder
	Documents(ctx context.Context) ([]domain.Document, error)
	Summary(ctx context.Context, documentID string) (domain.Summary, error)
	Turns(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)
	Clear(ctx context.Context) error
	Close() error
}
