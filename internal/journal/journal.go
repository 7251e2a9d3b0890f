// Package journal keeps a SQLite history of every processed word so that
// past runs can be inspected with the history command.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/smartdeck/internal/card"
)

//go:embed schema.sql
var schemaSQL string

const timeLayout = time.RFC3339Nano

// Journal is an open history database.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Entry is one recorded outcome.
type Entry struct {
	RunID   string
	Command string
	Word    string
	Kind    string
	NoteID  int64
	Reason  string
	Notices []string
	At      time.Time
}

// Open opens or creates the journal at path. ":memory:" is accepted for
// tests.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// One connection: SQLite serialises writers anyway and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	for _, s := range strings.Split(schemaSQL, ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Run records the outcomes of one invocation.
type Run struct {
	j  *Journal
	id string
}

// StartRun registers a new run and returns its recorder.
func (j *Journal) StartRun(ctx context.Context, command string, rc card.RunContext) (*Run, error) {
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, deck, model, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, command, rc.Deck, rc.Model, j.now().UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	return &Run{j: j, id: id}, nil
}

// ID returns the run's UUID.
func (r *Run) ID() string {
	return r.id
}

// Record stores one outcome.
func (r *Run) Record(ctx context.Context, o card.Outcome) error {
	var noteID sql.NullInt64
	if o.NoteID != 0 {
		noteID = sql.NullInt64{Int64: o.NoteID, Valid: true}
	}
	_, err := r.j.db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, word, kind, note_id, reason, notices, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.id, o.Word, o.Kind.String(), noteID, o.Reason, strings.Join(o.Notices, "\n"),
		r.j.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record outcome for %q: %w", o.Word, err)
	}
	return nil
}

// Finish stores the run's summary.
func (r *Run) Finish(ctx context.Context, s card.Summary) error {
	_, err := r.j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, created = ?, updated = ?, skipped = ?, failed = ? WHERE id = ?`,
		r.j.now().UTC().Format(timeLayout), s.Created, s.Updated, s.Skipped, s.Failed, r.id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Recent returns the latest outcomes, newest first. A non-empty word
// restricts the result to that word, compared case-insensitively.
func (j *Journal) Recent(ctx context.Context, word string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT o.run_id, r.command, o.word, o.kind, COALESCE(o.note_id, 0), o.reason, o.notices, o.recorded_at
		FROM outcomes o JOIN runs r ON r.id = o.run_id`
	args := []any{}
	if word != "" {
		query += ` WHERE o.word = ? COLLATE NOCASE`
		args = append(args, word)
	}
	query += ` ORDER BY o.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			notices string
			at      string
		)
		if err := rows.Scan(&e.RunID, &e.Command, &e.Word, &e.Kind, &e.NoteID, &e.Reason, &notices, &at); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if notices != "" {
			e.Notices = strings.Split(notices, "\n")
		}
		if e.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("bad timestamp %q: %w", at, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
