package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/forgetree/forge"
	_ "github.com/go-sql-driver/mysql"
)

// MySQL is a durable forge.ForgeState backed by MySQL, for hosts that
// already run a MySQL cluster and want session state alongside their other
// application data (ported from the teacher's MySQLStore, narrowed to
// Forge's flat key/value shape).
type MySQL struct {
	db *sql.DB
}

// NewMySQL opens a connection pool against dsn (a go-sql-driver/mysql DSN,
// e.g. "user:pass@tcp(127.0.0.1:3306)/forge?parseTime=true") and ensures the
// backing table exists.
func NewMySQL(dsn string) (*MySQL, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("state: open mysql: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS forge_state (
			session_id VARCHAR(191) NOT NULL,
			state_key VARCHAR(191) NOT NULL,
			value LONGTEXT NOT NULL,
			PRIMARY KEY (session_id, state_key)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
	`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: create table: %w", err)
	}

	return &MySQL{db: db}, nil
}

// Close releases the underlying connection pool.
func (m *MySQL) Close() error {
	return m.db.Close()
}

// Session scopes this store to a single session ID.
func (m *MySQL) Session(sessionID string) forge.ForgeState {
	return &mysqlSession{db: m.db, sessionID: sessionID}
}

type mysqlSession struct {
	db        *sql.DB
	sessionID string
}

func (s *mysqlSession) Get(ctx context.Context, key string) (forge.SchemaValue, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM forge_state WHERE session_id = ? AND state_key = ?`, s.sessionID, key)
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

func (s *mysqlSession) Set(ctx context.Context, key string, value forge.SchemaValue) error {
	raw, err := encodeValue(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO forge_state (session_id, state_key, value) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)
	`, s.sessionID, key, raw)
	return err
}
