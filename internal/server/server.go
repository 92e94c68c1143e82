// Package server exposes the tutor over HTTP: document upload plus one
// WebSocket conversation per connection.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"tutor/internal/domain"
	"tutor/internal/logger"
	"tutor/internal/qa"
)

// Port is the subset of the tutor service the server drives.
type Port interface {
	SubmitDocument(ctx context.Context, data []byte, filename string) (*domain.Document, *domain.Summary, error)
	Document(id string) (*domain.Document, *domain.Summary, error)
	NewSession(documentID string) (string, error)
	SetGrade(sessionID string, grade qa.Grade) error
	AwaitUtterance(ctx context.Context, sessionID string, utterances <-chan string, channel domain.Channel) (domain.Reply, error)
	Stats(sessionID string) (domain.StudyStats, error)
	EndSession(sessionID string)
}

type Config struct {
	RatePerSecond  float64
	Burst          int
	MaxUploadBytes int64
	// InputTimeout is how long a connection may stay silent before the
	// session is told nothing was heard. Zero disables it.
	InputTimeout time.Duration
}

// Message is the envelope of every WebSocket frame in both directions.
// Clients send "utterance" messages; the server answers with "session",
// "answer", "ack", "stats" or "error". A "stats" message follows the
// acknowledgement that ends the conversation.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Data    any    `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Server struct {
	svc Port
	cfg Config
}

func New(svc Port, cfg Config) *Server {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 << 20
	}
	return &Server{svc: svc, cfg: cfg}
}

// Handler routes /health, /documents and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("POST /documents", s.handleUpload)
	mux.HandleFunc("GET /documents/{id}", s.handleDocument)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

type documentResponse struct {
	Document *domain.Document `json:"document"`
	Summary  *domain.Summary  `json:"summary"`
}

// handleUpload accepts a multipart "file" field or a raw body named by the
// filename query parameter.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var data []byte
	filename := r.URL.Query().Get("filename")
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
			return
		}
		defer file.Close()
		if data, err = io.ReadAll(file); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
			return
		}
		if filename == "" {
			filename = header.Filename
		}
	} else {
		var err error
		if data, err = io.ReadAll(r.Body); err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("read body: %w", err))
			return
		}
	}
	if filename == "" {
		filename = "upload"
	}

	doc, summary, err := s.svc.SubmitDocument(r.Context(), data, filename)
	if err != nil {
		var failed *domain.ExtractionFailed
		switch {
		case errors.Is(err, domain.ErrEmptyPayload):
			writeError(w, http.StatusBadRequest, err)
		case errors.As(err, &failed):
			writeError(w, http.StatusUnprocessableEntity, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, documentResponse{Document: doc, Summary: summary})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, summary, err := s.svc.Document(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{Document: doc, Summary: summary})
}

// handleWebSocket opens a session for the connection. Query parameters:
// document, grade and channel (text or voice).
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	grade, err := qa.ParseGrade(q.Get("grade"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	channel := domain.ChannelText
	if q.Get("channel") == string(domain.ChannelVoice) {
		channel = domain.ChannelVoice
	}
	sessionID, err := s.svc.NewSession(q.Get("document"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	defer s.svc.EndSession(sessionID)
	if grade != qa.GradeNone {
		if err := s.svc.SetGrade(sessionID, grade); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed: %v", err)
		return
	}
	c := &conn{ws: ws}
	defer ws.Close()
	logger.Info("session %s connected", sessionID)
	c.send(Message{Type: "session", Content: sessionID})

	utterances := make(chan string)
	closed := make(chan struct{})
	done := make(chan struct{})
	defer close(done)
	go s.read(c, utterances, closed, done)

	for {
		ctx, cancel := s.waitContext()
		reply, err := s.svc.AwaitUtterance(ctx, sessionID, utterances, channel)
		cancel()

		select {
		case <-closed:
			logger.Info("session %s disconnected", sessionID)
			return
		default:
		}
		if errors.Is(err, domain.ErrInputClosed) {
			logger.Info("session %s disconnected", sessionID)
			return
		}
		if err != nil {
			c.send(Message{Type: "error", Content: err.Error()})
			return
		}
		c.sendReply(reply)
		if reply.Ack != nil && reply.Ack.State == "ended" {
			if st, err := s.svc.Stats(sessionID); err == nil {
				c.send(Message{
					Type:    "stats",
					Content: fmt.Sprintf("%d questions, %d expansions", st.Questions, st.Expansions),
					Data:    st,
				})
			}
			return
		}
	}
}

// read forwards utterances in arrival order. Messages over the rate limit
// are rejected, not queued.
func (s *Server) read(c *conn, utterances chan<- string, closed chan<- struct{}, done <-chan struct{}) {
	defer close(utterances)
	defer close(closed)
	limiter := rate.NewLimiter(rate.Limit(s.cfg.RatePerSecond), s.cfg.Burst)
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("read: %v", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.send(Message{Type: "error", Content: "malformed message"})
			continue
		}
		if msg.Type != "utterance" {
			c.send(Message{Type: "error", Content: fmt.Sprintf("unknown message type %q", msg.Type)})
			continue
		}
		if !limiter.Allow() {
			c.send(Message{Type: "error", Content: "rate limit exceeded"})
			continue
		}
		select {
		case utterances <- msg.Content:
		case <-done:
			return
		}
	}
}

func (s *Server) waitContext() (context.Context, context.CancelFunc) {
	if s.cfg.InputTimeout > 0 {
		return context.WithTimeout(context.Background(), s.cfg.InputTimeout)
	}
	return context.WithCancel(context.Background())
}

// conn serializes writes; gorilla connections allow one concurrent writer.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) send(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(msg); err != nil {
		logger.Debug("write: %v", err)
	}
}

func (c *conn) sendReply(r domain.Reply) {
	switch {
	case r.Answer != nil:
		c.send(Message{Type: "answer", Content: r.Answer.Text, Data: r.Answer})
	case r.Ack != nil:
		if r.Ack.Message == "" {
			return
		}
		c.send(Message{Type: "ack", Content: r.Ack.Message, Data: r.Ack})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
