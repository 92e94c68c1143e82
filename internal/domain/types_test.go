package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplyText(t *testing.T) {
	assert.Equal(t, "", Reply{}.Text())
	assert.Equal(t, "answer", Reply{Answer: &Answer{Text: "answer"}}.Text())
	assert.Equal(t, "ack", Reply{Ack: &ControlAck{Message: "ack"}}.Text())
}

func TestSpanIsZero(t *testing.T) {
	assert.True(t, Span{}.IsZero())
	assert.False(t, Span{Start: 0, End: 4, Text: "abcd"}.IsZero())
}

func TestExtractionFailed_Error(t *testing.T) {
	cause := errors.New("boom")
	err := &ExtractionFailed{Attempts: []ExtractionError{{Strategy: "pdf", Cause: cause}}}
	assert.Equal(t, "extraction failed: pdf: boom", err.Error())
	assert.ErrorIs(t, err.Attempts[0], cause)

	var target *ExtractionFailed
	wrapped := error(err)
	assert.True(t, errors.As(wrapped, &target))
	assert.Contains(t, (&ExtractionFailed{}).Error(), "no strategies")
}
