package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Suraj-219/Attendance/internal/auth"
	"github.com/Suraj-219/Attendance/internal/config"
	"github.com/Suraj-219/Attendance/internal/face"
	"github.com/Suraj-219/Attendance/internal/queue"
	"github.com/Suraj-219/Attendance/internal/session"
	"github.com/Suraj-219/Attendance/internal/user"
)

// Handler holds the service dependencies behind the HTTP routes.
type Handler struct {
	cfg      config.App
	sessions *session.Service
	users    *user.Repository
	faces    *face.Store
	queue    queue.Queue
	log      *slog.Logger
}

// New wires a handler.
func New(cfg config.App, sessions *session.Service, users *user.Repository, faces *face.Store, q queue.Queue, log *slog.Logger) *Handler {
	return &Handler{cfg: cfg, sessions: sessions, users: users, faces: faces, queue: q, log: log}
}

// Register mounts all API routes on the router group. scanLimit, when
// non-nil, guards the scan endpoint with its own rate profile.
func (h *Handler) Register(api *gin.RouterGroup, scanLimit gin.HandlerFunc) {
	authMW := auth.UserAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer)
	staffMW := auth.RequireRole(user.RoleInstructor, user.RoleAdmin)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.RegisterUser)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/face-login", h.FaceLogin)
		authGroup.GET("/me", authMW, h.Me)
	}

	sessGroup := api.Group("/sessions", authMW)
	{
		sessGroup.POST("/start", staffMW, h.StartSession)
		sessGroup.POST("/:id/end", staffMW, h.EndSession)
		sessGroup.GET("/:id/qr", staffMW, h.IssueToken)
		sessGroup.GET("/:id/summary", h.SessionSummary)
		sessGroup.GET("", h.ListSessions)
	}

	attGroup := api.Group("/attendance", authMW)
	{
		scanHandlers := []gin.HandlerFunc{h.Scan}
		if scanLimit != nil {
			scanHandlers = append([]gin.HandlerFunc{scanLimit}, scanHandlers...)
		}
		attGroup.POST("/scan", scanHandlers...)
		attGroup.GET("/session/:id", h.SessionAttendance)
		attGroup.GET("/student/:studentId", h.StudentHistory)
	}

	anGroup := api.Group("/analytics", authMW)
	{
		anGroup.GET("/attendance", h.AttendanceRates)
		anGroup.GET("/stats", h.Stats)
	}
}

// serverError logs the cause and hides it from the caller.
func (h *Handler) serverError(c *gin.Context, err error) {
	h.log.Error("request failed", "path", c.FullPath(), "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
}

// sessionError maps domain errors onto HTTP statuses; unknown errors are
// treated as internal.
func (h *Handler) sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Session not found"})
	case errors.Is(err, session.ErrAlreadyEnded):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Session already ended"})
	case errors.Is(err, session.ErrSessionNotActive):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Session not active"})
	default:
		h.serverError(c, err)
	}
}
