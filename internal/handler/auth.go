package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Suraj-219/Attendance/internal/auth"
	"github.com/Suraj-219/Attendance/internal/face"
	"github.com/Suraj-219/Attendance/internal/metrics"
	"github.com/Suraj-219/Attendance/internal/user"
)

type registerRequest struct {
	Name           string    `json:"name" binding:"required,min=2"`
	Email          string    `json:"email" binding:"required,email"`
	Password       string    `json:"password" binding:"required,min=6"`
	Role           string    `json:"role" binding:"required"`
	FaceDescriptor []float64 `json:"faceDescriptor"`
}

// RegisterUser creates an account and, for students with a descriptor,
// enrolls them in the face gallery.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if !user.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid role"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.serverError(c, err)
		return
	}

	u, err := h.users.Create(c.Request.Context(), user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email already registered"})
			return
		}
		h.serverError(c, err)
		return
	}

	// Only student descriptors enter the gallery; face login is a student
	// authentication path.
	if u.Role == user.RoleStudent && len(req.FaceDescriptor) > 0 {
		if err := h.faces.Enroll(c.Request.Context(), u.ID, req.FaceDescriptor); err != nil {
			h.log.Warn("face enrollment failed", "user", u.ID, "err", err)
		}
	}

	token, _, err := auth.Issue(u.ID, u.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.JWTTTL)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u, "token": token})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates by email and password.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	u, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		h.serverError(c, err)
		return
	}
	if !auth.CheckPassword(req.Password, u.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	token, _, err := auth.Issue(u.ID, u.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.JWTTTL)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "token": token})
}

type faceLoginRequest struct {
	FaceDescriptor []float64 `json:"faceDescriptor" binding:"required"`
}

// FaceLogin matches a probe descriptor against the enrolled gallery and
// issues a token for the nearest student under the threshold. Not matching
// anyone is a negative result, not a server failure.
func (h *Handler) FaceLogin(c *gin.Context) {
	var req faceLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Face descriptor required"})
		return
	}

	gallery, err := h.faces.Gallery(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}

	match, ok := face.Nearest(req.FaceDescriptor, gallery, h.cfg.MatchThreshold)
	if !ok {
		metrics.FaceLogins.WithLabelValues("no_match").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Face not recognized"})
		return
	}

	u, err := h.users.GetByID(c.Request.Context(), match.UserID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	token, _, err := auth.Issue(u.ID, u.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.JWTTTL)
	if err != nil {
		h.serverError(c, err)
		return
	}
	metrics.FaceLogins.WithLabelValues("matched").Inc()
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"user":     u,
		"distance": match.Distance,
		"token":    token,
	})
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
		return
	}
	u, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
