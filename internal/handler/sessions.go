package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Suraj-219/Attendance/internal/metrics"
)

type startSessionRequest struct {
	CourseID string `json:"courseId" binding:"required"`
}

// StartSession opens a new session for a course.
func (h *Handler) StartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Course ID required"})
		return
	}

	sess, err := h.sessions.Start(c.Request.Context(), req.CourseID)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	metrics.SessionsStarted.Inc()
	c.JSON(http.StatusCreated, gin.H{
		"id":        sess.ID,
		"courseId":  sess.CourseID,
		"startedAt": sess.StartedAt,
	})
}

// EndSession terminates a session. Ending twice is rejected and leaves the
// original end time intact.
func (h *Handler) EndSession(c *gin.Context) {
	sess, err := h.sessions.End(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      sess.ID,
		"endedAt": sess.EndedAt,
	})
}

// IssueToken mints a fresh scan token for the session, invalidating the
// previous one immediately.
func (h *Handler) IssueToken(c *gin.Context) {
	tok, err := h.sessions.IssueToken(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	metrics.TokensIssued.Inc()
	c.JSON(http.StatusOK, gin.H{
		"token":      tok.Value,
		"expSeconds": int(h.cfg.TokenTTL.Seconds()),
	})
}

// SessionSummary reports attendance counts and the attendee list.
func (h *Handler) SessionSummary(c *gin.Context) {
	sum, err := h.sessions.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"present":     sum.Present,
		"late":        sum.Late,
		"absent":      sum.Absent,
		"list":        sum.List,
		"active":      sum.Active,
		"startedAt":   sum.StartedAt,
		"lastUpdated": sum.LastUpdated,
	})
}

// ListSessions returns all sessions, newest first.
func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.sessions.List(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}
