package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Config carries the scan protocol tunables.
type Config struct {
	TokenTTL     time.Duration
	LateCutoff   time.Duration
	DedupeWindow time.Duration
}

// Service owns the session lifecycle and the scan token protocol.
type Service struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// NewService creates a service backed by a store.
func NewService(store Store, cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 10 * time.Second
	}
	if cfg.LateCutoff <= 0 {
		cfg.LateCutoff = 10 * time.Minute
	}
	if cfg.DedupeWindow <= 0 {
		cfg.DedupeWindow = 60 * time.Second
	}
	return &Service{store: store, cfg: cfg, now: time.Now}
}

// Start creates a new active session for a course. Multiple concurrent
// sessions per course are allowed.
func (s *Service) Start(ctx context.Context, courseID string) (Session, error) {
	if courseID == "" {
		return Session{}, fmt.Errorf("%w: course id required", ErrValidation)
	}
	sess := Session{
		ID:        uuid.NewString(),
		CourseID:  courseID,
		Active:    true,
		StartedAt: s.now().UTC(),
	}
	return s.store.Create(ctx, sess)
}

// End terminates a session. The first end wins; ending again returns
// ErrAlreadyEnded and leaves EndedAt untouched.
func (s *Service) End(ctx context.Context, id string) (Session, error) {
	return s.store.End(ctx, id, s.now().UTC())
}

// IssueToken mints a fresh scan token for an active session and overwrites
// the previous one, invalidating it immediately rather than at its expiry.
func (s *Service) IssueToken(ctx context.Context, id string) (Token, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return Token{}, fmt.Errorf("token entropy: %w", err)
	}
	tok := Token{
		Value:     hex.EncodeToString(buf),
		ExpiresAt: s.now().Add(s.cfg.TokenTTL).Unix(),
	}
	if err := s.store.SetToken(ctx, id, tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// SubmitScan redeems a token for attendance credit.
//
// A token is still accepted at exactly its expiry second; rejection requires
// now to be strictly past it. A second scan by the same student within the
// dedupe window returns the first outcome flagged duplicate and writes
// nothing; the window absorbs double-taps, not repeated attendance.
func (s *Service) SubmitScan(ctx context.Context, studentID, tokenValue string) (ScanOutcome, error) {
	if studentID == "" || tokenValue == "" {
		return ScanOutcome{}, fmt.Errorf("%w: student id and token required", ErrValidation)
	}

	sess, err := s.store.FindByToken(ctx, tokenValue)
	if err != nil {
		return ScanOutcome{}, err
	}
	now := s.now().UTC()
	if sess.CurrentToken == nil || now.Unix() > sess.CurrentToken.ExpiresAt {
		return ScanOutcome{}, ErrInvalidToken
	}

	status := StatusPresent
	if now.Sub(sess.StartedAt) > s.cfg.LateCutoff {
		status = StatusLate
	}

	att := Attendee{StudentID: studentID, Status: status, RecordedAt: now}
	scan := ScanLog{StudentID: studentID, Token: tokenValue, RecordedAt: now, Status: status}

	prior, err := s.store.AppendScanUnlessRecent(ctx, sess.ID, att, scan, s.cfg.DedupeWindow)
	if err != nil {
		return ScanOutcome{}, err
	}
	if prior != nil {
		return ScanOutcome{
			SessionID:  sess.ID,
			Status:     prior.Status,
			RecordedAt: prior.RecordedAt,
			Duplicate:  true,
		}, nil
	}
	return ScanOutcome{SessionID: sess.ID, Status: status, RecordedAt: now}, nil
}

// Summary reports attendance counts for a session. Absent stays zero: there
// is no roster entity, so nothing exists to diff attendees against.
func (s *Service) Summary(ctx context.Context, id string) (Summary, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{
		List:        sess.Attendees,
		Active:      sess.Active,
		StartedAt:   sess.StartedAt,
		LastUpdated: s.now().UTC(),
	}
	if sum.List == nil {
		sum.List = []Attendee{}
	}
	for _, a := range sess.Attendees {
		switch a.Status {
		case StatusPresent:
			sum.Present++
		case StatusLate:
			sum.Late++
		}
	}
	return sum, nil
}

// Get returns a single session with its logs.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	return s.store.Get(ctx, id)
}

// List returns all sessions, newest first.
func (s *Service) List(ctx context.Context) ([]Session, error) {
	return s.store.List(ctx)
}

// ListSince returns sessions started within the trailing window.
func (s *Service) ListSince(ctx context.Context, since time.Time, courseID string) ([]Session, error) {
	return s.store.ListSince(ctx, since, courseID)
}

// StudentHistory returns a student's attendance across all sessions.
func (s *Service) StudentHistory(ctx context.Context, studentID string) ([]StudentRecord, error) {
	return s.store.StudentHistory(ctx, studentID)
}
