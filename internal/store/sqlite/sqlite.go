// Package sqlite is a file-backed store on the pure-Go SQLite driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"tutor/internal/domain"
	"tutor/internal/store"
	"tutor/internal/store/sqlite/migrations"
)

// Store keeps documents, summaries and turns in a single database file.
type Store struct {
	db   *sql.DB
	path string
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Path() string { return s.path }

func (s *Store) migrate(fsys embed.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) SaveDocument(ctx context.Context, doc domain.Document) error {
	sections, err := json.Marshal(doc.Sections)
	if err != nil {
		return fmt.Errorf("marshalling sections: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, text, method, quality, low_confidence, sections, word_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			text = excluded.text,
			method = excluded.method,
			quality = excluded.quality,
			low_confidence = excluded.low_confidence,
			sections = excluded.sections,
			word_count = excluded.word_count
	`, doc.ID, doc.Filename, doc.Text, doc.Method, doc.Quality, doc.LowConfidence,
		string(sections), doc.WordCount, doc.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

func (s *Store) SaveSummary(ctx context.Context, summary domain.Summary) error {
	keyPoints, err := json.Marshal(summary.KeyPoints)
	if err != nil {
		return fmt.Errorf("marshalling key points: %w", err)
	}
	topics, err := json.Marshal(summary.Topics)
	if err != nil {
		return fmt.Errorf("marshalling topics: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO summaries (document_id, overview, key_points, topics, word_count, reading_minutes, difficulty)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			overview = excluded.overview,
			key_points = excluded.key_points,
			topics = excluded.topics,
			word_count = excluded.word_count,
			reading_minutes = excluded.reading_minutes,
			difficulty = excluded.difficulty
	`, summary.DocumentID, summary.Overview, string(keyPoints), string(topics),
		summary.WordCount, summary.ReadingMinutes, summary.Difficulty)
	if err != nil {
		return fmt.Errorf("saving summary: %w", err)
	}
	return nil
}

func (s *Store) AppendTurn(ctx context.Context, sessionID string, turn domain.ConversationTurn) error {
	var span sql.NullString
	if turn.Span != nil {
		b, err := json.Marshal(turn.Span)
		if err != nil {
			return fmt.Errorf("marshalling span: %w", err)
		}
		span = sql.NullString{String: string(b), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (session_id, seq, role, text, intent, topic, span, depth, confidence, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sessionID, turn.Seq, string(turn.Role), turn.Text, string(turn.Intent), turn.Topic,
		span, turn.Depth, turn.Confidence, turn.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	return nil
}

// Documents returns the stored documents, oldest first.
func (s *Store) Documents(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, text, method, quality, low_confidence, sections, word_count, created_at
		FROM documents ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		var d domain.Document
		var sections string
		var createdAt sql.NullTime
		if err := rows.Scan(&d.ID, &d.Filename, &d.Text, &d.Method, &d.Quality, &d.LowConfidence,
			&sections, &d.WordCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if err := json.Unmarshal([]byte(sections), &d.Sections); err != nil {
			return nil, fmt.Errorf("unmarshalling sections: %w", err)
		}
		if createdAt.Valid {
			d.CreatedAt = createdAt.Time
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Summary(ctx context.Context, documentID string) (domain.Summary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, overview, key_points, topics, word_count, reading_minutes, difficulty
		FROM summaries WHERE document_id = ?
	`, documentID)

	var sum domain.Summary
	var keyPoints, topics string
	if err := row.Scan(&sum.DocumentID, &sum.Overview, &keyPoints, &topics,
		&sum.WordCount, &sum.ReadingMinutes, &sum.Difficulty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Summary{}, fmt.Errorf("summary %s: %w", documentID, store.ErrNotFound)
		}
		return domain.Summary{}, fmt.Errorf("scanning summary: %w", err)
	}
	if err := json.Unmarshal([]byte(keyPoints), &sum.KeyPoints); err != nil {
		return domain.Summary{}, fmt.Errorf("unmarshalling key points: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &sum.Topics); err != nil {
		return domain.Summary{}, fmt.Errorf("unmarshalling topics: %w", err)
	}
	return sum, nil
}

func (s *Store) Turns(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, role, text, intent, topic, span, depth, confidence, timestamp
		FROM turns WHERE session_id = ? ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	out := []domain.ConversationTurn{}
	for rows.Next() {
		var t domain.ConversationTurn
		var role, intent string
		var span sql.NullString
		var ts sql.NullTime
		if err := rows.Scan(&t.Seq, &role, &t.Text, &intent, &t.Topic, &span, &t.Depth, &t.Confidence, &ts); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Role, t.Intent = domain.Role(role), domain.Intent(intent)
		if span.Valid {
			t.Span = &domain.Span{}
			if err := json.Unmarshal([]byte(span.String), t.Span); err != nil {
				return nil, fmt.Errorf("unmarshalling span: %w", err)
			}
		}
		if ts.Valid {
			t.Timestamp = ts.Time
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) Clear(ctx context.Context) error {
	for _, table := range []string{"turns", "summaries", "documents"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}
