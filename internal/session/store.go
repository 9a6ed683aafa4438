package session

import (
	"context"
	"time"
)

// Store persists sessions. Implementations must make AppendScanUnlessRecent
// atomic per session so two concurrent scans by the same student cannot both
// pass the dedupe check.
type Store interface {
	Create(ctx context.Context, sess Session) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	List(ctx context.Context) ([]Session, error)
	// ListSince returns sessions started at or after the given instant,
	// optionally filtered by course.
	ListSince(ctx context.Context, since time.Time, courseID string) ([]Session, error)
	// End marks the session ended; ErrNotFound / ErrAlreadyEnded apply.
	End(ctx context.Context, id string, endedAt time.Time) (Session, error)
	// SetToken overwrites the session's live token; the session must be active.
	SetToken(ctx context.Context, id string, tok Token) error
	// FindByToken returns the active session whose live token has this value.
	FindByToken(ctx context.Context, tokenValue string) (Session, error)
	// AppendScanUnlessRecent appends an attendee and a scan entry unless the
	// student already has an attendee entry within the dedupe window, in
	// which case that prior entry is returned and nothing is written.
	AppendScanUnlessRecent(ctx context.Context, sessionID string, att Attendee, scan ScanLog, window time.Duration) (*Attendee, error)
	// StudentHistory returns the student's accepted attendance across sessions.
	StudentHistory(ctx context.Context, studentID string) ([]StudentRecord, error)
}
