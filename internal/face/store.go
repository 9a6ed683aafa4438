package face

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Store is the enrolled-descriptor gallery, persisted in Postgres.
// Descriptors are stored JSON-encoded; galleries stay small enough that the
// matcher loads them wholesale per lookup.
type Store struct {
	db *sql.DB
}

// NewStore creates a gallery store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Enroll saves or replaces a user's descriptor.
func (s *Store) Enroll(ctx context.Context, userID string, descriptor []float64) error {
	encoded, err := json.Marshal(descriptor)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO face_enrollments (user_id, descriptor, enrolled_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			descriptor = EXCLUDED.descriptor,
			enrolled_at = EXCLUDED.enrolled_at
	`, userID, string(encoded), time.Now().UTC())
	return err
}

// Gallery returns every enrollment in stable insertion order.
func (s *Store) Gallery(ctx context.Context) ([]Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, descriptor FROM face_enrollments ORDER BY enrolled_at, user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Enrollment
	for rows.Next() {
		var (
			entry   Enrollment
			encoded string
		)
		if err := rows.Scan(&entry.UserID, &encoded); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(encoded), &entry.Descriptor); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
