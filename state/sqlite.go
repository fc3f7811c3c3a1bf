package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/forgetree/forge"
	_ "modernc.org/sqlite"
)

// SQLite is a durable forge.ForgeState backed by a single-file SQLite
// database, the idiomatic zero-setup persistence choice for a single
// process (ported from the teacher's SQLiteStore, narrowed to Forge's
// flat key/value shape instead of step/checkpoint history).
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if absent) a SQLite-backed state store at path.
// Use ":memory:" for a non-durable database useful in tests without the
// Memory store's lack of SQL-path coverage.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("state: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("state: %s: %w", pragma, err)
		}
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS forge_state (
			session_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (session_id, key)
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: create table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Session scopes this store to a single session ID.
func (s *SQLite) Session(sessionID string) forge.ForgeState {
	return &sqliteSession{db: s.db, sessionID: sessionID}
}

type sqliteSession struct {
	db        *sql.DB
	sessionID string
}

func (s *sqliteSession) Get(ctx context.Context, key string) (forge.SchemaValue, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM forge_state WHERE session_id = ? AND key = ?`, s.sessionID, key)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return forge.Null, false, nil
		}
		return forge.Null, false, err
	}
	val, err := decodeValue(raw)
	if err != nil {
		return forge.Null, false, err
	}
	return val, true, nil
}

func (s *sqliteSession) Set(ctx context.Context, key string, value forge.SchemaValue) error {
	raw, err := encodeValue(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO forge_state (session_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(session_id, key) DO UPDATE SET value = excluded.value
	`, s.sessionID, key, raw)
	return err
}
