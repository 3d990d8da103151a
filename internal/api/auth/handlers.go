// Package auth implements the login and logout endpoints for staff sessions.
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinic-office/clinic-office/internal/activity"
	internalauth "github.com/clinic-office/clinic-office/internal/auth"
	"github.com/clinic-office/clinic-office/internal/config"
	"github.com/clinic-office/clinic-office/internal/db/repositories"
	"github.com/clinic-office/clinic-office/internal/middleware"
)

// Handlers serves the session endpoints
type Handlers struct {
	cfg      *config.Config
	userRepo *repositories.UserRepository
	recorder *activity.Recorder
}

// NewHandlers creates a new auth Handlers instance
func NewHandlers(cfg *config.Config, userRepo *repositories.UserRepository, recorder *activity.Recorder) *Handlers {
	return &Handlers{cfg: cfg, userRepo: userRepo, recorder: recorder}
}

// loginRequest is the POST /auth/login payload
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler authenticates a staff user and issues a session JWT.
// A successful login is recorded in the activity log with the client IP.
// POST /api/v1/auth/login
func (h *Handlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Username and password are required",
			})
			return
		}

		user, err := h.userRepo.GetUserByUsername(c.Request.Context(), req.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Authentication failed",
			})
			return
		}

		// Same response for unknown user and wrong password so the endpoint
		// does not leak which usernames exist.
		if user == nil || !internalauth.CheckPassword(user.PasswordHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid username or password",
			})
			return
		}

		token, err := internalauth.GenerateJWT(user.ID, user.Username, user.Roles, h.cfg.Auth.TokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to issue token",
			})
			return
		}

		h.recorder.RecordLogin(c.Request.Context(), user, activity.WithIP(c.ClientIP()))

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user": gin.H{
				"id":        user.ID,
				"username":  user.Username,
				"full_name": user.FullName,
				"roles":     user.Roles,
			},
		})
	}
}

// LogoutHandler records the logout. Token invalidation is client-side: the
// JWT stays valid until its expiry, so the server only writes the audit entry.
// POST /api/v1/auth/logout
func (h *Handlers) LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.recorder.RecordLogout(c.Request.Context(), middleware.CurrentUser(c),
			activity.WithIP(c.ClientIP()))

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
