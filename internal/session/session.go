package session

import (
	"errors"
	"time"
)

// Attendance status values.
const (
	StatusPresent = "present"
	StatusLate    = "late"
)

// Domain errors surfaced to handlers via errors.Is.
var (
	ErrValidation       = errors.New("invalid input")
	ErrNotFound         = errors.New("session not found")
	ErrAlreadyEnded     = errors.New("session already ended")
	ErrSessionNotActive = errors.New("session not active")
	ErrInvalidToken     = errors.New("invalid or expired token")
)

// Token is the single live scan token of a session. Issuing a new token
// overwrites the previous one; expiry is compared in whole seconds.
type Token struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"` // unix seconds
}

// Attendee is one accepted attendance outcome.
type Attendee struct {
	StudentID  string    `json:"student_id"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ScanLog is the append-only audit entry written alongside each accepted scan.
type ScanLog struct {
	StudentID  string    `json:"student_id"`
	Token      string    `json:"token"`
	RecordedAt time.Time `json:"recorded_at"`
	Status     string    `json:"status"`
}

// Session is one course meeting.
type Session struct {
	ID           string     `json:"id"`
	CourseID     string     `json:"course_id"`
	Active       bool       `json:"active"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	CurrentToken *Token     `json:"current_token,omitempty"`
	Attendees    []Attendee `json:"attendees"`
	Scans        []ScanLog  `json:"scans"`
}

// ScanOutcome is the result of an accepted or deduplicated scan.
type ScanOutcome struct {
	SessionID  string    `json:"session_id"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
	Duplicate  bool      `json:"duplicate"`
}

// Summary is the read-side view of a session. Absent is always zero:
// there is no enrollment roster to diff against.
type Summary struct {
	Present     int        `json:"present"`
	Late        int        `json:"late"`
	Absent      int        `json:"absent"`
	List        []Attendee `json:"list"`
	Active      bool       `json:"active"`
	StartedAt   time.Time  `json:"started_at"`
	LastUpdated time.Time  `json:"last_updated"`
}

// StudentRecord is one row of a student's attendance history.
type StudentRecord struct {
	SessionID  string    `json:"session_id"`
	CourseID   string    `json:"course_id"`
	Status     string    `json:"status"`
	RecordedAt time.Time `json:"recorded_at"`
	StartedAt  time.Time `json:"started_at"`
}
