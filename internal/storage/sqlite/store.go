// Package sqlite provides SQLite-backed persistence for the roll journal.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/obrandt/dicebox/internal/dice"
	_ "modernc.org/sqlite"
)

// schema holds the journal table definition. The journal is append-only, so
// a single idempotent statement stands in for a migration chain.
const schema = `
CREATE TABLE IF NOT EXISTS rolls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	notation TEXT NOT NULL,
	num_rolls INTEGER NOT NULL,
	outcomes TEXT NOT NULL,
	total INTEGER NOT NULL,
	created_at_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS rolls_created_at ON rolls (created_at_ms DESC);
`

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// RollRecord is one journaled roll_dice invocation.
type RollRecord struct {
	ID        int64
	Notation  string
	NumRolls  int
	Outcomes  []dice.Outcome
	Total     int
	CreatedAt time.Time
}

// Store provides SQLite-backed persistence for roll records.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RecordRoll appends a roll record and returns its assigned ID.
func (s *Store) RecordRoll(ctx context.Context, record RollRecord) (int64, error) {
	outcomes, err := json.Marshal(record.Outcomes)
	if err != nil {
		return 0, fmt.Errorf("marshal outcomes: %w", err)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO rolls (notation, num_rolls, outcomes, total, created_at_ms) VALUES (?, ?, ?, ?, ?)`,
		record.Notation, record.NumRolls, string(outcomes), record.Total, toMillis(createdAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert roll: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("roll id: %w", err)
	}
	return id, nil
}

// RecentRolls returns up to limit records, newest first.
func (s *Store) RecentRolls(ctx context.Context, limit int) ([]RollRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, notation, num_rolls, outcomes, total, created_at_ms FROM rolls ORDER BY created_at_ms DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query rolls: %w", err)
	}
	defer rows.Close()

	var records []RollRecord
	for rows.Next() {
		var record RollRecord
		var outcomes string
		var createdAt int64
		if err := rows.Scan(&record.ID, &record.Notation, &record.NumRolls, &outcomes, &record.Total, &createdAt); err != nil {
			return nil, fmt.Errorf("scan roll: %w", err)
		}
		if err := json.Unmarshal([]byte(outcomes), &record.Outcomes); err != nil {
			return nil, fmt.Errorf("unmarshal outcomes: %w", err)
		}
		record.CreatedAt = fromMillis(createdAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rolls: %w", err)
	}
	return records, nil
}
