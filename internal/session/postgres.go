package session

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresStore persists sessions in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store over an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, sess Session) (Session, error) {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO sessions (id, course_id, active, started_at)
		VALUES ($1, $2, $3, $4)
	`, sess.ID, sess.CourseID, sess.Active, sess.StartedAt)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (Session, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, course_id, active, started_at, ended_at, token_value, token_expires_at
		FROM sessions WHERE id = $1
	`, id)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	if err := p.loadLogs(ctx, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (p *PostgresStore) List(ctx context.Context) ([]Session, error) {
	return p.querySessions(ctx, `
		SELECT id, course_id, active, started_at, ended_at, token_value, token_expires_at
		FROM sessions ORDER BY started_at DESC
	`)
}

func (p *PostgresStore) ListSince(ctx context.Context, since time.Time, courseID string) ([]Session, error) {
	if courseID != "" {
		return p.querySessions(ctx, `
			SELECT id, course_id, active, started_at, ended_at, token_value, token_expires_at
			FROM sessions WHERE started_at >= $1 AND course_id = $2
			ORDER BY started_at DESC
		`, since, courseID)
	}
	return p.querySessions(ctx, `
		SELECT id, course_id, active, started_at, ended_at, token_value, token_expires_at
		FROM sessions WHERE started_at >= $1
		ORDER BY started_at DESC
	`, since)
}

func (p *PostgresStore) End(ctx context.Context, id string, endedAt time.Time) (Session, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE sessions SET active = FALSE, ended_at = $2
		WHERE id = $1 AND active
	`, id, endedAt)
	if err != nil {
		return Session{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either absent or already ended; one more read tells which.
		if _, err := p.Get(ctx, id); err != nil {
			return Session{}, err
		}
		return Session{}, ErrAlreadyEnded
	}
	return p.Get(ctx, id)
}

func (p *PostgresStore) SetToken(ctx context.Context, id string, tok Token) error {
	res, err := p.db.ExecContext(ctx, `
		UPDATE sessions SET token_value = $2, token_expires_at = $3
		WHERE id = $1 AND active
	`, id, tok.Value, tok.ExpiresAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := p.Get(ctx, id); err != nil {
			return err
		}
		return ErrSessionNotActive
	}
	return nil
}

func (p *PostgresStore) FindByToken(ctx context.Context, tokenValue string) (Session, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, course_id, active, started_at, ended_at, token_value, token_expires_at
		FROM sessions WHERE active AND token_value = $1
	`, tokenValue)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrInvalidToken
		}
		return Session{}, err
	}
	if err := p.loadLogs(ctx, &sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (p *PostgresStore) AppendScanUnlessRecent(ctx context.Context, sessionID string, att Attendee, scan ScanLog, window time.Duration) (*Attendee, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Lock the session row so the dedupe check and the appends are one
	// serialized unit per session.
	var locked string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM sessions WHERE id = $1 FOR UPDATE`, sessionID).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `
		SELECT student_id, status, recorded_at
		FROM session_attendees
		WHERE session_id = $1 AND student_id = $2 AND recorded_at > $3
		ORDER BY recorded_at DESC
		LIMIT 1
	`, sessionID, att.StudentID, att.RecordedAt.Add(-window))
	var prior Attendee
	err = row.Scan(&prior.StudentID, &prior.Status, &prior.RecordedAt)
	switch {
	case err == nil:
		return &prior, tx.Commit()
	case errors.Is(err, sql.ErrNoRows):
		// fall through to append
	default:
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO session_attendees (session_id, student_id, status, recorded_at)
		VALUES ($1, $2, $3, $4)
	`, sessionID, att.StudentID, att.Status, att.RecordedAt); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO session_scans (session_id, student_id, token, recorded_at, status)
		VALUES ($1, $2, $3, $4, $5)
	`, sessionID, scan.StudentID, scan.Token, scan.RecordedAt, scan.Status); err != nil {
		return nil, err
	}
	return nil, tx.Commit()
}

func (p *PostgresStore) StudentHistory(ctx context.Context, studentID string) ([]StudentRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT a.session_id, s.course_id, a.status, a.recorded_at, s.started_at
		FROM session_attendees a
		JOIN sessions s ON s.id = a.session_id
		WHERE a.student_id = $1
		ORDER BY a.recorded_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StudentRecord
	for rows.Next() {
		var rec StudentRecord
		if err := rows.Scan(&rec.SessionID, &rec.CourseID, &rec.Status, &rec.RecordedAt, &rec.StartedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *PostgresStore) querySessions(ctx context.Context, query string, args ...any) ([]Session, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := p.loadLogs(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *PostgresStore) loadLogs(ctx context.Context, sess *Session) error {
	rows, err := p.db.QueryContext(ctx, `
		SELECT student_id, status, recorded_at
		FROM session_attendees WHERE session_id = $1 ORDER BY recorded_at, id
	`, sess.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a Attendee
		if err := rows.Scan(&a.StudentID, &a.Status, &a.RecordedAt); err != nil {
			return err
		}
		sess.Attendees = append(sess.Attendees, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	scanRows, err := p.db.QueryContext(ctx, `
		SELECT student_id, token, recorded_at, status
		FROM session_scans WHERE session_id = $1 ORDER BY recorded_at, id
	`, sess.ID)
	if err != nil {
		return err
	}
	defer scanRows.Close()
	for scanRows.Next() {
		var s ScanLog
		if err := scanRows.Scan(&s.StudentID, &s.Token, &s.RecordedAt, &s.Status); err != nil {
			return err
		}
		sess.Scans = append(sess.Scans, s)
	}
	return scanRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		sess     Session
		endedAt  sql.NullTime
		tokValue sql.NullString
		tokExp   sql.NullInt64
	)
	if err := row.Scan(&sess.ID, &sess.CourseID, &sess.Active, &sess.StartedAt, &endedAt, &tokValue, &tokExp); err != nil {
		return Session{}, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		sess.EndedAt = &t
	}
	if tokValue.Valid {
		sess.CurrentToken = &Token{Value: tokValue.String, ExpiresAt: tokExp.Int64}
	}
	return sess, nil
}
