package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults and ensures the
// schema exists.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{Client: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS face_enrollments (
		user_id     TEXT PRIMARY KEY REFERENCES users(id),
		descriptor  TEXT NOT NULL,
		enrolled_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id               TEXT PRIMARY KEY,
		course_id        TEXT NOT NULL,
		active           BOOLEAN NOT NULL DEFAULT TRUE,
		started_at       TIMESTAMPTZ NOT NULL,
		ended_at         TIMESTAMPTZ,
		token_value      TEXT,
		token_expires_at BIGINT
	);

	CREATE TABLE IF NOT EXISTS session_attendees (
		id          BIGSERIAL PRIMARY KEY,
		session_id  TEXT NOT NULL REFERENCES sessions(id),
		student_id  TEXT NOT NULL,
		status      TEXT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS session_scans (
		id          BIGSERIAL PRIMARY KEY,
		session_id  TEXT NOT NULL REFERENCES sessions(id),
		student_id  TEXT NOT NULL,
		token       TEXT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		status      TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started    ON sessions(started_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_token      ON sessions(token_value) WHERE active;
	CREATE INDEX IF NOT EXISTS idx_attendees_session   ON session_attendees(session_id, student_id);
	CREATE INDEX IF NOT EXISTS idx_attendees_student   ON session_attendees(student_id);
	CREATE INDEX IF NOT EXISTS idx_scans_session       ON session_scans(session_id);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
