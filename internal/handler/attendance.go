package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Suraj-219/Attendance/internal/auth"
	"github.com/Suraj-219/Attendance/internal/metrics"
	"github.com/Suraj-219/Attendance/internal/queue"
	"github.com/Suraj-219/Attendance/internal/session"
)

type scanRequest struct {
	Token string `json:"token" binding:"required"`
}

// Scan redeems a token for attendance credit. The student identity comes
// from the bearer claims, never the request body.
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "reason": "Token required"})
		return
	}
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}

	outcome, err := h.sessions.SubmitScan(c.Request.Context(), claims.UserID, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidToken):
			metrics.ScansTotal.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "reason": "Invalid or expired token"})
		case errors.Is(err, session.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "reason": err.Error()})
		default:
			h.serverError(c, err)
		}
		return
	}

	if outcome.Duplicate {
		metrics.ScansTotal.WithLabelValues("duplicate").Inc()
	} else {
		metrics.ScansTotal.WithLabelValues(outcome.Status).Inc()
	}

	if err := h.queue.Publish(c.Request.Context(), queue.ScanEvent{
		SessionID:  outcome.SessionID,
		StudentID:  claims.UserID,
		Status:     outcome.Status,
		Duplicate:  outcome.Duplicate,
		RecordedAt: outcome.RecordedAt,
	}); err != nil {
		h.log.Warn("scan audit publish failed", "session", outcome.SessionID, "err", err)
	}

	resp := gin.H{
		"status":     outcome.Status,
		"recordedAt": outcome.RecordedAt.UnixMilli(),
	}
	if outcome.Duplicate {
		resp["duplicate"] = true
	}
	c.JSON(http.StatusOK, resp)
}

// SessionAttendance returns the attendee and scan logs for a session.
func (h *Handler) SessionAttendance(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	attendees := sess.Attendees
	if attendees == nil {
		attendees = []session.Attendee{}
	}
	scans := sess.Scans
	if scans == nil {
		scans = []session.ScanLog{}
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId": sess.ID,
		"attendees": attendees,
		"scans":     scans,
	})
}

// StudentHistory returns a student's attendance across sessions.
func (h *Handler) StudentHistory(c *gin.Context) {
	records, err := h.sessions.StudentHistory(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		h.serverError(c, err)
		return
	}
	if records == nil {
		records = []session.StudentRecord{}
	}
	c.JSON(http.StatusOK, records)
}
