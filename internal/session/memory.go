package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-memory store for dev and tests,
// selected with STORE_BACKEND=memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Create(_ context.Context, sess Session) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := sess
	m.sessions[sess.ID] = &cp
	return copySession(&cp), nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return copySession(sess), nil
}

func (m *MemoryStore) List(_ context.Context) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		out = append(out, copySession(sess))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (m *MemoryStore) ListSince(_ context.Context, since time.Time, courseID string) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Session
	for _, sess := range m.sessions {
		if sess.StartedAt.Before(since) {
			continue
		}
		if courseID != "" && sess.CourseID != courseID {
			continue
		}
		out = append(out, copySession(sess))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (m *MemoryStore) End(_ context.Context, id string, endedAt time.Time) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if !sess.Active {
		return Session{}, ErrAlreadyEnded
	}
	sess.Active = false
	sess.EndedAt = &endedAt
	return copySession(sess), nil
}

func (m *MemoryStore) SetToken(_ context.Context, id string, tok Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if !sess.Active {
		return ErrSessionNotActive
	}
	sess.CurrentToken = &tok
	return nil
}

func (m *MemoryStore) FindByToken(_ context.Context, tokenValue string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sess := range m.sessions {
		if sess.Active && sess.CurrentToken != nil && sess.CurrentToken.Value == tokenValue {
			return copySession(sess), nil
		}
	}
	return Session{}, ErrInvalidToken
}

func (m *MemoryStore) AppendScanUnlessRecent(_ context.Context, sessionID string, att Attendee, scan ScanLog, window time.Duration) (*Attendee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	for i := range sess.Attendees {
		prior := sess.Attendees[i]
		if prior.StudentID == att.StudentID && att.RecordedAt.Sub(prior.RecordedAt) < window {
			cp := prior
			return &cp, nil
		}
	}
	sess.Attendees = append(sess.Attendees, att)
	sess.Scans = append(sess.Scans, scan)
	return nil, nil
}

func (m *MemoryStore) StudentHistory(_ context.Context, studentID string) ([]StudentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []StudentRecord
	for _, sess := range m.sessions {
		for _, a := range sess.Attendees {
			if a.StudentID == studentID {
				out = append(out, StudentRecord{
					SessionID:  sess.ID,
					CourseID:   sess.CourseID,
					Status:     a.Status,
					RecordedAt: a.RecordedAt,
					StartedAt:  sess.StartedAt,
				})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	return out, nil
}

func copySession(sess *Session) Session {
	cp := *sess
	if sess.CurrentToken != nil {
		tok := *sess.CurrentToken
		cp.CurrentToken = &tok
	}
	if sess.EndedAt != nil {
		ended := *sess.EndedAt
		cp.EndedAt = &ended
	}
	cp.Attendees = append([]Attendee(nil), sess.Attendees...)
	cp.Scans = append([]ScanLog(nil), sess.Scans...)
	return cp
}
