// Package sqlite provides the SQLite-backed save journal.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MichaelAguilera/intake/internal/platform/storage/sqlitemigrate"
	"github.com/MichaelAguilera/intake/internal/services/intake/journal"
	"github.com/MichaelAguilera/intake/internal/services/intake/journal/sqlite/migrations"
)

const defaultListLimit = 50

// Store persists journal entries in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the journal database at path, creating its directory, and applies
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	// modernc.org/sqlite runs each _pragma on every new connection.
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append inserts an entry and returns it with its id.
func (s *Store) Append(ctx context.Context, entry journal.Entry) (journal.Entry, error) {
	if err := ctx.Err(); err != nil {
		return journal.Entry{}, err
	}
	if s == nil || s.sqlDB == nil {
		return journal.Entry{}, journal.ErrNotConfigured
	}
	entry.ScreeningID = strings.TrimSpace(entry.ScreeningID)
	entry.Card = strings.TrimSpace(entry.Card)
	if entry.ScreeningID == "" {
		return journal.Entry{}, fmt.Errorf("screening id is required")
	}
	if entry.Card == "" {
		return journal.Entry{}, fmt.Errorf("card is required")
	}
	if entry.Outcome == "" {
		return journal.Entry{}, fmt.Errorf("outcome is required")
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}
	entry.RecordedAt = fromMillis(toMillis(entry.RecordedAt))
	fields, err := json.Marshal(nonNil(entry.Fields))
	if err != nil {
		return journal.Entry{}, fmt.Errorf("encode fields: %w", err)
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO save_journal (
		   screening_id,
		   card,
		   participant_id,
		   outcome,
		   fields,
		   error,
		   elapsed_ms,
		   recorded_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ScreeningID,
		entry.Card,
		entry.ParticipantID,
		entry.Outcome,
		string(fields),
		entry.Error,
		entry.Elapsed,
		toMillis(entry.RecordedAt),
	)
	if err != nil {
		return journal.Entry{}, fmt.Errorf("append journal entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return journal.Entry{}, fmt.Errorf("append journal entry: %w", err)
	}
	entry.ID = id
	return entry, nil
}

// List returns the newest entries for a screening, newest first.
func (s *Store) List(ctx context.Context, screeningID string, limit int) ([]journal.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, journal.ErrNotConfigured
	}
	screeningID = strings.TrimSpace(screeningID)
	if screeningID == "" {
		return nil, fmt.Errorf("screening id is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, screening_id, card, participant_id, outcome,
		        fields, error, elapsed_ms, recorded_at
		   FROM save_journal
		  WHERE screening_id = ?
		  ORDER BY id DESC
		  LIMIT ?`,
		screeningID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	entries := make([]journal.Entry, 0, limit)
	for rows.Next() {
		var entry journal.Entry
		var fields string
		var recordedAt int64
		if err := rows.Scan(
			&entry.ID,
			&entry.ScreeningID,
			&entry.Card,
			&entry.ParticipantID,
			&entry.Outcome,
			&fields,
			&entry.Error,
			&entry.Elapsed,
			&recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if err := json.Unmarshal([]byte(fields), &entry.Fields); err != nil {
			return nil, fmt.Errorf("decode journal fields: %w", err)
		}
		if len(entry.Fields) == 0 {
			entry.Fields = nil
		}
		entry.RecordedAt = fromMillis(recordedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return entries, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
