package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/highwayhash"

	"tutor/internal/chunker"
	"tutor/internal/command"
	"tutor/internal/conversation"
	"tutor/internal/domain"
	"tutor/internal/extraction"
	"tutor/internal/logger"
	"tutor/internal/qa"
	"tutor/internal/speech"
	"tutor/internal/vocabulary"
)

const HelpText = "I can help you learn from the document you uploaded. Ask me questions about it, " +
	"say \"tell me more\" to go deeper, or \"repeat\" to hear my last answer again. " +
	"Say \"stop\" to pause and \"goodbye\" to end our conversation."

// NoDocumentText answers content questions in sessions without a document.
const NoDocumentText = "I don't have a document to work from yet. Upload one and ask me again."

var idKey = []byte("tutor-document-id-highwayhash-k1") // 32 bytes

// Extractor turns raw bytes into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*extraction.Result, error)
}

// Answerer finds the answer to a question in a document's text.
type Answerer interface {
	Answer(question, text string, qctx qa.Context) domain.Answer
}

// Settings are the per-service conversation parameters.
type Settings struct {
	Grade         qa.Grade
	Window        int
	VoiceMaxChars int
}

type stored struct {
	doc     domain.Document
	summary domain.Summary
}

type session struct {
	mu        sync.Mutex
	id        string
	docID     string
	grade     qa.Grade
	interp    *command.Interpreter
	convo     *conversation.Context
	createdAt time.Time
}

// TutorService is the application core. Documents and sessions are kept in
// memory; the recorder only receives copies.
type TutorService struct {
	extractor  Extractor
	splitter   *chunker.Splitter
	summarizer domain.Summarizer
	answerer   Answerer
	vocab      *vocabulary.Index
	recorder   domain.Recorder
	settings   Settings

	mu        sync.RWMutex
	documents map[string]*stored
	sessions  map[string]*session
}

var _ domain.TutorService = (*TutorService)(nil)

func NewTutorService(
	extractor Extractor,
	splitter *chunker.Splitter,
	summarizer domain.Summarizer,
	answerer Answerer,
	vocab *vocabulary.Index,
	recorder domain.Recorder,
	settings Settings,
) *TutorService {
	if settings.Window <= 0 {
		settings.Window = conversation.DefaultWindow
	}
	if settings.VoiceMaxChars <= 0 {
		settings.VoiceMaxChars = speech.DefaultMaxChars
	}
	return &TutorService{
		extractor:  extractor,
		splitter:   splitter,
		summarizer: summarizer,
		answerer:   answerer,
		vocab:      vocab,
		recorder:   recorder,
		settings:   settings,
		documents:  make(map[string]*stored),
		sessions:   make(map[string]*session),
	}
}

// SubmitDocument extracts, sections and summarizes data. A document whose
// text holds no sentences gets an empty summary.
func (s *TutorService) SubmitDocument(ctx context.Context, data []byte, filename string) (*domain.Document, *domain.Summary, error) {
	logger.Section("Processing " + filename)
	res, err := s.extractor.Extract(ctx, data)
	if err != nil {
		return nil, nil, fmt.Errorf("extract %s: %w", filename, err)
	}
	for _, e := range res.Errors {
		logger.Debug("strategy failed: %v", e)
	}
	if res.LowConfidence {
		logger.Warn("%s: low extraction quality %.2f (%s)", filename, res.Quality, res.Method)
	}

	doc := domain.Document{
		ID:            documentID(data),
		Filename:      filename,
		Text:          res.Text,
		Method:        res.Method,
		Quality:       res.Quality,
		LowConfidence: res.LowConfidence,
		Sections:      s.splitter.Sections(res.Text),
		WordCount:     len(strings.Fields(res.Text)),
		CreatedAt:     time.Now(),
	}

	summary, err := s.summarizer.Summarize(res.Text)
	if err != nil && !errors.Is(err, domain.ErrEmptyText) {
		return nil, nil, fmt.Errorf("summarize %s: %w", filename, err)
	}
	summary.DocumentID = doc.ID
	logger.Info("%s: %d words, %d sections via %s", filename, doc.WordCount, len(doc.Sections), doc.Method)

	s.mu.Lock()
	s.documents[doc.ID] = &stored{doc: doc, summary: summary}
	s.mu.Unlock()

	if s.recorder != nil {
		if err := s.recorder.SaveDocument(ctx, doc); err != nil {
			logger.Warn("failed to record document %s: %v", doc.ID, err)
		}
		if err := s.recorder.SaveSummary(ctx, summary); err != nil {
			logger.Warn("failed to record summary %s: %v", doc.ID, err)
		}
	}
	return &doc, &summary, nil
}

// Document returns a stored document and its summary.
func (s *TutorService) Document(id string) (*domain.Document, *domain.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.documents[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnknownDocument, id)
	}
	doc, summary := st.doc, st.summary
	return &doc, &summary, nil
}

// Documents lists stored documents, oldest first.
func (s *TutorService) Documents() []domain.Document {
	s.mu.RLock()
	out := make([]domain.Document, 0, len(s.documents))
	for _, st := range s.documents {
		out = append(out, st.doc)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// NewSession opens a session in the Idle state. documentID may be empty.
func (s *TutorService) NewSession(documentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if documentID != "" {
		if _, ok := s.documents[documentID]; !ok {
			return "", fmt.Errorf("%w: %s", domain.ErrUnknownDocument, documentID)
		}
	}
	sess := &session{
		id:        uuid.NewString(),
		docID:     documentID,
		grade:     s.settings.Grade,
		interp:    command.NewInterpreter(),
		convo:     conversation.New(s.settings.Window, s.vocab),
		createdAt: time.Now(),
	}
	s.sessions[sess.id] = sess
	logger.Debug("session %s opened", sess.id)
	return sess.id, nil
}

// SetDocument makes documentID the active document of a session.
func (s *TutorService) SetDocument(sessionID, documentID string) error {
	s.mu.RLock()
	_, known := s.documents[documentID]
	s.mu.RUnlock()
	if !known {
		return fmt.Errorf("%w: %s", domain.ErrUnknownDocument, documentID)
	}
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.docID = documentID
	sess.mu.Unlock()
	return nil
}

// SetGrade changes the answer style of a session.
func (s *TutorService) SetGrade(sessionID string, grade qa.Grade) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	sess.grade = grade
	sess.mu.Unlock()
	return nil
}

// EndSession discards a session. Unknown IDs are ignored.
func (s *TutorService) EndSession(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Session returns a snapshot of a session.
func (s *TutorService) Session(sessionID string) (domain.Session, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return domain.Session{
		ID:         sess.id,
		DocumentID: sess.docID,
		State:      sess.interp.State().String(),
		Grade:      string(sess.grade),
		Turns:      sess.convo.Turns(),
		CreatedAt:  sess.createdAt,
	}, nil
}

// Stats reports what a session has covered so far.
func (s *TutorService) Stats(sessionID string) (domain.StudyStats, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return domain.StudyStats{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return domain.StudyStats{
		SessionID:     sess.id,
		DocumentID:    sess.docID,
		Questions:     sess.convo.Exchanges(),
		Expansions:    sess.convo.Expansions(),
		Unanswered:    sess.convo.Unanswered(),
		Topics:        sess.convo.Topics(),
		Duration:      time.Since(sess.createdAt),
		AvgConfidence: sess.convo.AvgConfidence(),
	}, nil
}

// SubmitUtterance handles one utterance. Utterances of the same session are
// processed one at a time.
func (s *TutorService) SubmitUtterance(ctx context.Context, sessionID, text string, channel domain.Channel) (domain.Reply, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return domain.Reply{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.handle(ctx, sess, text, channel, sess.interp.Interpret(text)), nil
}

// AwaitUtterance waits for the next utterance until ctx is done. When
// nothing arrives the session is told that no input was heard. A closed
// utterances channel returns ErrInputClosed and leaves the session as is.
func (s *TutorService) AwaitUtterance(ctx context.Context, sessionID string, utterances <-chan string, channel domain.Channel) (domain.Reply, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return domain.Reply{}, err
	}
	select {
	case u, ok := <-utterances:
		if !ok {
			return domain.Reply{}, domain.ErrInputClosed
		}
		return s.SubmitUtterance(context.WithoutCancel(ctx), sessionID, u, channel)
	case <-ctx.Done():
	}
	logger.Debug("session %s: %v", sessionID, domain.ErrNoInput)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.handle(context.WithoutCancel(ctx), sess, "", channel, sess.interp.NoInput()), nil
}

func (s *TutorService) session(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSession, id)
	}
	return sess, nil
}

func (s *TutorService) handle(ctx context.Context, sess *session, text string, channel domain.Channel, d command.Decision) domain.Reply {
	var reply domain.Reply
	switch d.Action {
	case command.ActionForward:
		ans, kind := s.answer(sess, text)
		intent := domain.IntentQuestion
		if kind == conversation.KindDeeper {
			intent = domain.IntentDeeper
		}
		s.record(ctx, sess, domain.ConversationTurn{Role: domain.RoleUser, Text: text, Intent: intent, Topic: ans.Topic})
		turn := domain.ConversationTurn{
			Role:       domain.RoleSystem,
			Text:       ans.Text,
			Intent:     intent,
			Topic:      ans.Topic,
			Depth:      ans.Depth,
			Confidence: ans.Confidence,
		}
		if !ans.Fallback && !ans.MatchedSpan.IsZero() {
			span := ans.MatchedSpan
			turn.Span = &span
		}
		s.record(ctx, sess, turn)
		reply.Answer = &ans

	case command.ActionIgnore, command.ActionInvalid:
		reply.Ack = s.ack(d, s.unhandledMessage(d))

	default:
		msg := s.controlMessage(sess, d)
		if d.Kind != command.KindNoInput {
			s.record(ctx, sess, domain.ConversationTurn{Role: domain.RoleUser, Text: text, Intent: domain.IntentCommand})
		}
		s.record(ctx, sess, domain.ConversationTurn{Role: domain.RoleSystem, Text: msg, Intent: domain.IntentCommand})
		reply.Ack = s.ack(d, msg)
	}

	if channel == domain.ChannelVoice {
		s.shapeForVoice(&reply)
	}
	return reply
}

// answer resolves references in text and matches it against the active
// document. The returned kind is how text referred back, if at all.
func (s *TutorService) answer(sess *session, text string) (domain.Answer, conversation.Kind) {
	res := sess.convo.Resolve(text)
	if res.NoPriorContext && res.Kind == conversation.KindDeeper {
		return domain.Answer{Text: "There's nothing to expand on yet. Ask me a question first.", Fallback: true}, res.Kind
	}

	s.mu.RLock()
	st, ok := s.documents[sess.docID]
	s.mu.RUnlock()
	if !ok {
		return domain.Answer{Text: NoDocumentText, Fallback: true, Topic: res.Topic}, res.Kind
	}

	qctx := qa.Context{Grade: sess.grade}
	switch res.Kind {
	case conversation.KindDeeper:
		qctx.Depth, qctx.Span, qctx.Topic = res.Depth, res.Span, res.Topic
	case conversation.KindFollowUp:
		qctx.Topic = res.Topic
	}
	if res.Kind != conversation.KindNone {
		logger.Debug("resolved %s %q -> %q", res.Kind, res.Original, res.Text)
	}
	return s.answerer.Answer(res.Text, st.doc.Text, qctx), res.Kind
}

func (s *TutorService) controlMessage(sess *session, d command.Decision) string {
	switch d.Action {
	case command.ActionGreet:
		return s.greeting(sess)
	case command.ActionHelp:
		return HelpText
	case command.ActionRepeat:
		if last, ok := lastRepeatable(sess.convo.Turns()); ok {
			return last.Text
		}
		return "I haven't said anything yet. Ask me a question about your document."
	case command.ActionPause:
		if d.Kind == command.KindNoInput {
			return silenceText
		}
		return pauseText
	case command.ActionResume:
		return resumeText
	case command.ActionEnd:
		return farewell(sess.convo.Exchanges()) + " " + sess.convo.Recap()
	}
	return ""
}

const (
	pauseText   = "Okay, I'll pause. Say \"continue\" when you're ready."
	silenceText = "I didn't hear anything. I'll be here when you're ready."
	resumeText  = "Welcome back! What would you like to know?"
)

// lastRepeatable is the most recent system turn that is not a pause or
// resume acknowledgement.
func lastRepeatable(turns []domain.ConversationTurn) (domain.ConversationTurn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		if t.Role != domain.RoleSystem {
			continue
		}
		switch t.Text {
		case pauseText, silenceText, resumeText:
			continue
		}
		return t, true
	}
	return domain.ConversationTurn{}, false
}

// unhandledMessage is empty for silence, which needs no acknowledgement.
func (s *TutorService) unhandledMessage(d command.Decision) string {
	if d.Kind == command.KindNoInput {
		return ""
	}
	switch d.From {
	case command.Idle:
		return "Say \"start\" when you're ready to begin."
	case command.Ended:
		return "This conversation has ended. Start a new session to talk again."
	case command.AwaitingInput:
		return "I'm already paused. Say \"continue\" when you're ready."
	}
	return "We're already talking. Ask me anything about your document."
}

func (s *TutorService) ack(d command.Decision, msg string) *domain.ControlAck {
	return &domain.ControlAck{
		Command: d.Kind.String(),
		Message: msg,
		State:   d.To.String(),
		Invalid: d.Invalid(),
	}
}

func (s *TutorService) greeting(sess *session) string {
	s.mu.RLock()
	st, ok := s.documents[sess.docID]
	s.mu.RUnlock()
	if !ok {
		return "Hello! I'm your study tutor. Upload a document and I'll help you learn from it. What would you like to explore today?"
	}
	about := st.doc.Filename
	if topics := st.summary.Topics; len(topics) > 0 {
		about = strings.Join(topics[:min(len(topics), 3)], ", ")
	}
	return fmt.Sprintf("Hi there! I'm your study tutor. I see we have some material about %s. How can I help you learn today?", about)
}

func farewell(exchanges int) string {
	switch {
	case exchanges > 5:
		return "Great conversation! We covered a lot of ground today. Keep up the excellent learning. Goodbye!"
	case exchanges > 2:
		return "Thanks for our chat! I hope I was helpful. Keep learning and come back with more questions. See you later!"
	}
	return "Thanks for chatting with me! I'm always here when you need help with your studies. Have a great day!"
}

func (s *TutorService) record(ctx context.Context, sess *session, turn domain.ConversationTurn) {
	turn = sess.convo.Append(turn)
	if s.recorder == nil {
		return
	}
	if err := s.recorder.AppendTurn(ctx, sess.id, turn); err != nil {
		logger.Warn("failed to record turn %d of session %s: %v", turn.Seq, sess.id, err)
	}
}

func (s *TutorService) shapeForVoice(r *domain.Reply) {
	switch {
	case r.Answer != nil:
		a := *r.Answer
		a.Text = speech.ForVoice(a.Text, s.settings.VoiceMaxChars)
		r.Answer = &a
	case r.Ack != nil && r.Ack.Message != "":
		r.Ack.Message = speech.ForVoice(r.Ack.Message, s.settings.VoiceMaxChars)
	}
}

// documentID is the hex HighwayHash-64 of the raw payload, so the same
// upload always gets the same ID.
func documentID(data []byte) string {
	return strconv.FormatUint(highwayhash.Sum64(data, idKey), 16)
}
