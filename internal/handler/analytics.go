package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Suraj-219/Attendance/internal/analytics"
)

// AttendanceRates reports daily attendance rates over a trailing 2 or 4
// week window, optionally filtered by course.
func (h *Handler) AttendanceRates(c *gin.Context) {
	days := analytics.RangeDays(c.DefaultQuery("range", "4w"))
	courseID := c.Query("courseId")
	today := time.Now().UTC()

	sessions, err := h.sessions.ListSince(c.Request.Context(), today.AddDate(0, 0, -days), courseID)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics.DailyRates(sessions, days, today))
}

// Stats reports whole-history attendance totals.
func (h *Handler) Stats(c *gin.Context) {
	sessions, err := h.sessions.List(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics.OverallStats(sessions))
}
