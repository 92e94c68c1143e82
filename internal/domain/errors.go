package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyPayload    = errors.New("empty document payload")
	ErrEmptyText       = errors.New("no text to process")
	ErrUnknownSession  = errors.New("unknown session")
	ErrUnknownDocument = errors.New("unknown document")
	ErrNoInput         = errors.New("no input received")
	ErrInputClosed     = errors.New("utterance stream closed")
)

// ExtractionError records a single strategy failure. It is non-fatal.
type ExtractionError struct {
	Strategy string
	Cause    error
}

func (e ExtractionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Strategy, e.Cause)
}

func (e ExtractionError) Unwrap() error { return e.Cause }

// ExtractionFailed is returned when no strategy produced any text.
type ExtractionFailed struct {
	Attempts []ExtractionError
}

func (e *ExtractionFailed) Error() string {
	if len(e.Attempts) == 0 {
		return "extraction failed: no strategies configured"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Error()
	}
	return "extraction failed: " + strings.Join(parts, "; ")
}
