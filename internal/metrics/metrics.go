package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal counts scan submissions by outcome
	// (present, late, duplicate, rejected).
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_scans_total",
		Help: "Scan submissions by outcome.",
	}, []string{"outcome"})

	// SessionsStarted counts sessions started.
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_sessions_started_total",
		Help: "Sessions started.",
	})

	// TokensIssued counts scan tokens minted.
	TokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_tokens_issued_total",
		Help: "Scan tokens issued.",
	})

	// FaceLogins counts face login attempts by result (matched, no_match).
	FaceLogins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_face_logins_total",
		Help: "Face login attempts by result.",
	}, []string{"result"})

	// AuditEventsProcessed counts scan audit events drained by the worker.
	AuditEventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_audit_events_processed_total",
		Help: "Scan audit events processed by the worker.",
	})
)
