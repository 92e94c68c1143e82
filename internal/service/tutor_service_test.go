package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor/internal/chunker"
	"tutor/internal/domain"
	"tutor/internal/extraction"
	"tutor/internal/qa"
	"tutor/internal/summarizer"
	"tutor/internal/vocabulary"
)

const (
	diffusionDoc  = "Diffusion is the mixing of particles without external force. Matter exists as solid, liquid and gas."
	firstSentence = "Diffusion is the mixing of particles without external force."
)

type textExtractor struct{}

func (textExtractor) Extract(_ context.Context, data []byte) (*extraction.Result, error) {
	return &extraction.Result{Text: string(data), Method: extraction.MethodText, Quality: 1}, nil
}

type fakeRecorder struct {
	mu        sync.Mutex
	err       error
	docs      []domain.Document
	summaries []domain.Summary
	turns     map[string][]domain.ConversationTurn
}

func (r *fakeRecorder) SaveDocument(_ context.Context, doc domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, doc)
	return r.err
}

func (r *fakeRecorder) SaveSummary(_ context.Context, s domain.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, s)
	return r.err
}

func (r *fakeRecorder) AppendTurn(_ context.Context, id string, turn domain.ConversationTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.turns == nil {
		r.turns = make(map[string][]domain.ConversationTurn)
	}
	r.turns[id] = append(r.turns[id], turn)
	return r.err
}

func newTestService(ext Extractor, rec domain.Recorder, settings Settings) *TutorService {
	vocab := vocabulary.Default()
	splitter := chunker.NewSplitter(0)
	return NewTutorService(
		ext,
		splitter,
		summarizer.New(vocab, splitter),
		qa.NewMatcher(vocab, splitter),
		vocab,
		rec,
		settings,
	)
}

func startSession(t *testing.T, svc *TutorService) string {
	t.Helper()
	doc, _, err := svc.SubmitDocument(context.Background(), []byte(diffusionDoc), "notes.txt")
	require.NoError(t, err)
	id, err := svc.NewSession(doc.ID)
	require.NoError(t, err)
	_, err = svc.SubmitUtterance(context.Background(), id, "start", domain.ChannelText)
	require.NoError(t, err)
	return id
}

func TestSubmitDocument(t *testing.T) {
	rec := &fakeRecorder{}
	svc := newTestService(textExtractor{}, rec, Settings{})

	doc, summary, err := svc.SubmitDocument(context.Background(), []byte(diffusionDoc), "notes.txt")
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, diffusionDoc, doc.Text)
	assert.Equal(t, "notes.txt", doc.Filename)
	assert.Equal(t, 16, doc.WordCount)
	assert.Len(t, doc.Sections, 1)
	assert.Equal(t, doc.ID, summary.DocumentID)
	assert.Contains(t, summary.Topics, "diffusion")

	again, _, err := svc.SubmitDocument(context.Background(), []byte(diffusionDoc), "copy.txt")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, again.ID)

	require.Len(t, rec.docs, 2)
	require.Len(t, rec.summaries, 2)
	assert.Equal(t, doc.ID, rec.summaries[0].DocumentID)

	stored, storedSummary, err := svc.Document(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "copy.txt", stored.Filename)
	assert.Equal(t, summary.Overview, storedSummary.Overview)
}

func TestSubmitDocument_RecorderFailureIsNotSurfaced(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	svc := newTestService(textExtractor{}, rec, Settings{})

	doc, summary, err := svc.SubmitDocument(context.Background(), []byte(diffusionDoc), "notes.txt")
	require.NoError(t, err)
	assert.NotNil(t, doc)
	assert.NotNil(t, summary)
}

func TestSubmitDocument_EmptyPayload(t *testing.T) {
	svc := newTestService(extraction.NewPipeline(vocabulary.Default()), nil, Settings{})

	_, _, err := svc.SubmitDocument(context.Background(), []byte("  \n\t "), "blank.txt")
	assert.ErrorIs(t, err, domain.ErrEmptyPayload)
	assert.Empty(t, svc.Documents())
}

func TestSubmitDocument_NoSentences(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{})

	doc, summary, err := svc.SubmitDocument(context.Background(), []byte("..."), "dots.txt")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, summary.DocumentID)
	assert.Empty(t, summary.Overview)
}

func TestSessions_UnknownIDs(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{})

	_, err := svc.NewSession("missing")
	assert.ErrorIs(t, err, domain.ErrUnknownDocument)

	_, err = svc.SubmitUtterance(context.Background(), "missing", "hi", domain.ChannelText)
	assert.ErrorIs(t, err, domain.ErrUnknownSession)

	_, err = svc.Session("missing")
	assert.ErrorIs(t, err, domain.ErrUnknownSession)

	id, err := svc.NewSession("")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.SetDocument(id, "missing"), domain.ErrUnknownDocument)

	svc.EndSession(id)
	svc.EndSession(id)
	_, err = svc.Session(id)
	assert.ErrorIs(t, err, domain.ErrUnknownSession)
}

func TestSubmitUtterance_AnswersQuestion(t *testing.T) {
	rec := &fakeRecorder{}
	svc := newTestService(textExtractor{}, rec, Settings{})
	id := startSession(t, svc)

	reply, err := svc.SubmitUtterance(context.Background(), id, "What is diffusion?", domain.ChannelText)
	require.NoError(t, err)
	require.NotNil(t, reply.Answer)
	assert.Nil(t, reply.Ack)
	assert.False(t, reply.Answer.Fallback)
	assert.Equal(t, firstSentence, reply.Text())
	assert.Equal(t, "diffusion", reply.Answer.Topic)

	snap, err := svc.Session(id)
	require.NoError(t, err)
	assert.Equal(t, "active", snap.State)
	require.Len(t, snap.Turns, 4)

	q, a := snap.Turns[2], snap.Turns[3]
	assert.Equal(t, domain.RoleUser, q.Role)
	assert.Equal(t, domain.IntentQuestion, q.Intent)
	assert.Equal(t, "What is diffusion?", q.Text)
	assert.Equal(t, domain.RoleSystem, a.Role)
	require.NotNil(t, a.Span)
	assert.Equal(t, firstSentence, a.Span.Text)
	assert.Equal(t, 3, q.Seq)
	assert.Equal(t, 4, a.Seq)

	assert.Len(t, rec.turns[id], 4)
}

func TestSubmitUtterance_IdleIgnoresContent(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{})
	doc, _, err := svc.SubmitDocument(context.Background(), []byte(diffusionDoc), "notes.txt")
	require.NoError(t, err)
	id, err := svc.NewSession(doc.ID)
	require.NoError(t, err)

	reply, err := svc.SubmitUtterance(context.Background(), id, "What is diffusion?", domain.ChannelText)
	require.NoError(t, err)
	require.NotNil(t, reply.Ack)
	assert.Nil(t, reply.Answer)
	assert.Equal(t, "idle", reply.Ack.State)

	snap, err := svc.Session(id)
	require.NoError(t, err)
	assert.Empty(t, snap.Turns)
}

func TestSubmitUtterance_Greeting(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{})
	doc, _, err := svc.SubmitDocument(context.Background(), []byte(diffusionDoc), "notes.txt")
	require.NoError(t, err)

	withDoc, err := svc.NewSession(doc.ID)
	require.NoError(t, err)
	reply, err := svc.SubmitUtterance(context.Background(), withDoc, "Hello", domain.ChannelText)
	require.NoError(t, err)
	require.NotNil(t, reply.Ack)
	assert.Equal(t, "start", reply.Ack.Command)
	assert.Equal(t, "active", reply.Ack.State)
	assert.Contains(t, reply.Ack.Message, "diffusion")

	bare, err := svc.NewSession("")
	require.NoError(t, err)
	reply, err = svc.SubmitUtterance(context.Background(), bare, "Hello", domain.ChannelText)
	require.NoError(t, err)
	assert.Contains(t, reply.Text(), "Upload a document")

	reply, err = svc.SubmitUtterance(context.Background(), bare, "What is diffusion?", domain.ChannelText)
	require.NoError(t, err)
	require.NotNil(t, reply.Answer)
	assert.True(t, reply.Answer.Fallback)
	assert.Equal(t, NoDocumentText, reply.Text())

	require.NoError(t, svc.SetDocument(bare, doc.ID))
	reply, err = svc.SubmitUtterance(context.Background(), bare, "What is diffusion?", domain.ChannelText)
	require.NoError(t, err)
	assert.Equal(t, firstSentence, reply.Text())
}

func TestSubmitUtterance_Repeat(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{})
	id := startSession(t, svc)

	_, err := svc.SubmitUtterance(context.Background(), id, "What is diffusion?", domain.ChannelText)
	require.NoError(t, err)

	reply, err := svc.SubmitUtterance(context.Background(), id, "Can you repeat that?", domain.ChannelText)
	require.NoError(t, err)
	require.NotNil(t, reply.Ack)
	assert.Equal(t, "repeat", reply.Ack.Command)
	assert.Equal(t, firstSentence, reply.Text())
}

func TestSubmitUtterance_RepeatSkipsPauseAcks(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{})
	id := startSession(t, svc)

	_, err := svc.SubmitUtterance(context.Background(), id, "What is diffusion?", domain.ChannelText)
	require.NoError(t, err)
	_, err = svc.SubmitUtterance(context.Background(), id, "stop", domain.ChannelText)
	require.NoError(t, err)

	reply, err := svc.SubmitUtterance(context.Background(), id, "repeat", domain.ChannelText)
	require.NoError(t, err)
	require.NotNil(t, reply.Ack)
	assert.Equal(t, "active", reply.Ack.State)
	assert.Equal(t, firstSentence, reply.Text())
}

func TestSubmitUtterance_FollowUpAndDeeper(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{})
	id := startSession(t, svc)

	reply, err := svc.SubmitUtterance(context.Background(), id, "tell me more", domain.ChannelText)
	require.NoError(t, err)
	require.NotNil(t, reply.Answer)
	assert.True(t, reply.Answer.Fallback)

	_, err = svc.SubmitUtterance(context.Background(), id, "What is diffusion?", domain.ChannelText)
	require.NoError(t, err)

	reply, err = svc.SubmitUtterance(context.Background(), id, "Tell me about it", domain.ChannelText)
	require.NoError(t, err)
	require.NotNil(t, reply.Answer)
	assert.Equal(t, firstSentence, reply.Text())
	assert.Equal(t, "diffusion", reply.Answer.Topic)

	reply, err = svc.SubmitUtterance(context.Background(), id, "tell me more", domain.ChannelText)
	require.NoError(t, err)
	require.NotNil(t, reply.Answer)
	assert.False(t, reply.Answer.Fallback)
	assert.Equal(t, 1, reply.Answer.Depth)
	assert.Equal(t, diffusionDoc, reply.Answer.MatchedSpan.Text)
}

func TestSubmitUtterance_PossessiveFollowUp(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{})
	id := startSession(t, svc)

	_, err := svc.SubmitUtterance(context.Background(), id, "What is diffusion?", domain.ChannelText)
	require.NoError(t, err)

	reply, err := svc.SubmitUtterance(context.Background(), id, "What is its speed?", domain.ChannelText)
	require.NoError(t, err)
	require.NotNil(t, reply.Answer)
	assert.False(t, reply.Answer.Fallback)
	assert.Equal(t, firstSentence, reply.Answer.MatchedSpan.Text)
	assert.Equal(t, "diffusion", reply.Answer.Topic)
}

func TestSubmitUtterance_RepeatedDeeper(t *testing.T) {
	rec := &fakeRecorder{}
	svc := newTestService(textExtractor{}, rec, Settings{})
	id := startSession(t, svc)

	first, err := svc.SubmitUtterance(context.Background(), id, "What is diffusion?", domain.ChannelText)
	require.NoError(t, err)

	var last domain.Reply
	for depth := 1; depth <= 2; depth++ {
		last, err = svc.SubmitUtterance(context.Background(), id, "explain more", domain.ChannelText)
		require.NoError(t, err)
		require.NotNil(t, last.Answer)
		assert.False(t, last.Answer.Fallback)
		assert.Equal(t, depth, last.Answer.Depth)
		assert.Greater(t, last.Answer.Confidence, 0.0)
		assert.Equal(t, "diffusion", last.Answer.Topic)
	}
	assert.InDelta(t, first.Answer.Confidence, last.Answer.Confidence, 1e-9)

	rec.mu.Lock()
	var deeper int
	for _, turn := range rec.turns[id] {
		if turn.Role == domain.RoleUser && turn.Intent == domain.IntentDeeper {
			deeper++
		}
	}
	rec.mu.Unlock()
	assert.Equal(t, 2, deeper)

	reply, err := svc.SubmitUtterance(context.Background(), id, "goodbye", domain.ChannelText)
	require.NoError(t, err)
	assert.Contains(t, reply.Text(), "You asked 1 question about diffusion.")
}

func TestSubmitUtterance_GradeWrapsAnswer(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{Grade: qa.GradeTeen})
	id := startSession(t, svc)

	reply, err := svc.SubmitUtterance(context.Background(), id, "What is diffusion?", domain.ChannelText)
	require.NoError(t, err)
	assert.Equal(t, "Here's what your document says: "+firstSentence, reply.Text())

	require.NoError(t, svc.SetGrade(id, qa.GradeNone))
	reply, err = svc.SubmitUtterance(context.Background(), id, "What is diffusion?", domain.ChannelText)
	require.NoError(t, err)
	assert.Equal(t, firstSentence, reply.Text())
}

func TestSubmitUtterance_PauseResumeAndGoodbye(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{})
	id := startSession(t, svc)

	reply, err := svc.SubmitUtterance(context.Background(), id, "stop", domain.ChannelText)
	require.NoError(t, err)
	assert.Equal(t, "awaiting-input", reply.Ack.State)

	reply, err = svc.SubmitUtterance(context.Background(), id, "stop", domain.ChannelText)
	require.NoError(t, err)
	assert.True(t, reply.Ack.Invalid)

	reply, err = svc.SubmitUtterance(context.Background(), id, "continue", domain.ChannelText)
	require.NoError(t, err)
	assert.Equal(t, "active", reply.Ack.State)

	_, err = svc.SubmitUtterance(context.Background(), id, "What is diffusion?", domain.ChannelText)
	require.NoError(t, err)

	reply, err = svc.SubmitUtterance(context.Background(), id, "goodbye", domain.ChannelText)
	require.NoError(t, err)
	assert.Equal(t, "ended", reply.Ack.State)
	assert.Contains(t, reply.Text(), "Have a great day!")
	assert.Contains(t, reply.Text(), "You asked 1 question about diffusion.")

	reply, err = svc.SubmitUtterance(context.Background(), id, "hello", domain.ChannelText)
	require.NoError(t, err)
	assert.True(t, reply.Ack.Invalid)
	assert.Equal(t, "ended", reply.Ack.State)
}

func TestFarewell(t *testing.T) {
	assert.Contains(t, farewell(0), "Have a great day!")
	assert.Contains(t, farewell(3), "See you later!")
	assert.Contains(t, farewell(6), "Goodbye!")
}

func TestSubmitUtterance_VoiceChannel(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{VoiceMaxChars: 40})
	id := startSession(t, svc)

	reply, err := svc.SubmitUtterance(context.Background(), id, "help", domain.ChannelVoice)
	require.NoError(t, err)
	assert.NotEqual(t, HelpText, reply.Text())
	assert.NotContains(t, reply.Text(), "goodbye")

	snap, err := svc.Session(id)
	require.NoError(t, err)
	assert.Equal(t, HelpText, snap.Turns[len(snap.Turns)-1].Text)
}

func TestAwaitUtterance(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{})
	id := startSession(t, svc)

	ch := make(chan string, 1)
	ch <- "What is diffusion?"
	reply, err := svc.AwaitUtterance(context.Background(), id, ch, domain.ChannelText)
	require.NoError(t, err)
	assert.Equal(t, firstSentence, reply.Text())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	reply, err = svc.AwaitUtterance(ctx, id, make(chan string), domain.ChannelText)
	require.NoError(t, err)
	require.NotNil(t, reply.Ack)
	assert.Equal(t, "no-input", reply.Ack.Command)
	assert.Equal(t, "awaiting-input", reply.Ack.State)

	_, err = svc.AwaitUtterance(context.Background(), "missing", ch, domain.ChannelText)
	assert.ErrorIs(t, err, domain.ErrUnknownSession)
}

func TestAwaitUtterance_ClosedStreamLeavesSession(t *testing.T) {
	rec := &fakeRecorder{}
	svc := newTestService(textExtractor{}, rec, Settings{})
	id := startSession(t, svc)

	before, err := svc.Session(id)
	require.NoError(t, err)

	closed := make(chan string)
	close(closed)
	_, err = svc.AwaitUtterance(context.Background(), id, closed, domain.ChannelText)
	assert.ErrorIs(t, err, domain.ErrInputClosed)

	after, err := svc.Session(id)
	require.NoError(t, err)
	assert.Equal(t, before.State, after.State)
	assert.Len(t, after.Turns, len(before.Turns))
	rec.mu.Lock()
	assert.Len(t, rec.turns[id], len(before.Turns))
	rec.mu.Unlock()
}

func TestSessions_Concurrent(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{})
	doc, _, err := svc.SubmitDocument(context.Background(), []byte(diffusionDoc), "notes.txt")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := svc.NewSession(doc.ID)
			assert.NoError(t, err)
			for _, u := range []string{"start", "What is diffusion?", "repeat", "goodbye"} {
				_, err := svc.SubmitUtterance(context.Background(), id, u, domain.ChannelText)
				assert.NoError(t, err)
			}
			snap, err := svc.Session(id)
			assert.NoError(t, err)
			assert.Equal(t, "ended", snap.State)
			assert.Len(t, snap.Turns, 8)
		}()
	}
	wg.Wait()
}

func TestStats(t *testing.T) {
	svc := newTestService(textExtractor{}, nil, Settings{})
	id := startSession(t, svc)

	for _, u := range []string{"What is diffusion?", "tell me more", "What is quantum entanglement?", "stop"} {
		_, err := svc.SubmitUtterance(context.Background(), id, u, domain.ChannelText)
		require.NoError(t, err)
	}

	stats, err := svc.Stats(id)
	require.NoError(t, err)
	assert.Equal(t, id, stats.SessionID)
	assert.NotEmpty(t, stats.DocumentID)
	assert.Equal(t, 2, stats.Questions)
	assert.Equal(t, 1, stats.Expansions)
	assert.Equal(t, 1, stats.Unanswered)
	assert.Contains(t, stats.Topics, "diffusion")
	assert.Greater(t, stats.AvgConfidence, 0.0)
	assert.GreaterOrEqual(t, stats.Duration, time.Duration(0))

	_, err = svc.Stats("missing")
	assert.ErrorIs(t, err, domain.ErrUnknownSession)
}
