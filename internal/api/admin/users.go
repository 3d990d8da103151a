// Package admin implements staff-account management endpoints. All routes in
// this package are gated on ROLE_ADMIN in the router.
package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clinic-office/clinic-office/internal/activity"
	"github.com/clinic-office/clinic-office/internal/auth"
	"github.com/clinic-office/clinic-office/internal/config"
	"github.com/clinic-office/clinic-office/internal/db/models"
	"github.com/clinic-office/clinic-office/internal/db/repositories"
	"github.com/clinic-office/clinic-office/internal/middleware"
)

// UserHandlers handles staff-account management endpoints
type UserHandlers struct {
	cfg      *config.Config
	userRepo *repositories.UserRepository
	recorder *activity.Recorder
}

// NewUserHandlers creates a new UserHandlers instance
func NewUserHandlers(cfg *config.Config, userRepo *repositories.UserRepository, recorder *activity.Recorder) *UserHandlers {
	return &UserHandlers{cfg: cfg, userRepo: userRepo, recorder: recorder}
}

// userResponse strips the password hash from API output
type userResponse struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	FullName  string   `json:"full_name"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: u.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func validRoles(roles []string) bool {
	for _, r := range roles {
		switch r {
		case models.RoleAdmin, models.RoleStaff, models.RoleUser:
		default:
			return false
		}
	}
	return true
}

// ListUsersHandler lists all staff accounts
// GET /api/v1/admin/users
func (h *UserHandlers) ListUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := h.userRepo.ListUsers(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list users",
			})
			return
		}

		out := make([]userResponse, 0, len(users))
		for _, u := range users {
			out = append(out, toUserResponse(u))
		}

		c.JSON(http.StatusOK, gin.H{"users": out})
	}
}

// GetUserHandler retrieves one staff account by ID
// GET /api/v1/admin/users/:id
func (h *UserHandlers) GetUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid user ID",
			})
			return
		}

		user, err := h.userRepo.GetUserByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve user",
			})
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
	}
}

// createUserRequest is the payload for creating a staff account
type createUserRequest struct {
	Username string   `json:"username" binding:"required"`
	FullName string   `json:"full_name" binding:"required"`
	Password string   `json:"password" binding:"required,min=8"`
	Roles    []string `json:"roles"`
}

// CreateUserHandler creates a new staff account
// POST /api/v1/admin/users
func (h *UserHandlers) CreateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "username, full_name, and a password of at least 8 characters are required",
			})
			return
		}

		roles := req.Roles
		if len(roles) == 0 {
			roles = []string{models.RoleUser}
		}
		if !validRoles(roles) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unknown role",
			})
			return
		}

		existing, err := h.userRepo.GetUserByUsername(c.Request.Context(), req.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create user",
			})
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Username already taken",
			})
			return
		}

		hash, err := auth.HashPassword(req.Password, h.cfg.Auth.BcryptCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create user",
			})
			return
		}

		user := &models.User{
			Username:     req.Username,
			FullName:     req.FullName,
			Roles:        roles,
			PasswordHash: hash,
		}

		if err := h.userRepo.CreateUser(c.Request.Context(), user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create user",
			})
			return
		}

		h.recorder.RecordUserCreated(c.Request.Context(), middleware.CurrentUser(c), user,
			activity.WithIP(c.ClientIP()))

		c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
	}
}

// updateUserRequest is the payload for updating a staff account
type updateUserRequest struct {
	Username string   `json:"username" binding:"required"`
	FullName string   `json:"full_name" binding:"required"`
	Roles    []string `json:"roles"`
}

// UpdateUserHandler updates a staff account's username, name, and roles
// PUT /api/v1/admin/users/:id
func (h *UserHandlers) UpdateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid user ID",
			})
			return
		}

		var req updateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "username and full_name are required",
			})
			return
		}

		if len(req.Roles) > 0 && !validRoles(req.Roles) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unknown role",
			})
			return
		}

		user, err := h.userRepo.GetUserByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve user",
			})
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		user.Username = req.Username
		user.FullName = req.FullName
		if len(req.Roles) > 0 {
			user.Roles = req.Roles
		}

		if err := h.userRepo.UpdateUser(c.Request.Context(), user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update user",
			})
			return
		}

		// Editing another account is an UPDATE_USER on that account; only an
		// actor editing their own row gets the self-service PROFILE_UPDATE.
		actor := middleware.CurrentUser(c)
		if actor != nil && actor.ID == user.ID {
			h.recorder.RecordProfileUpdate(c.Request.Context(), actor,
				activity.WithIP(c.ClientIP()))
		} else {
			h.recorder.RecordUpdated(c.Request.Context(), actor,
				activity.KindUser, user.Username, user.ID,
				activity.WithIP(c.ClientIP()))
		}

		c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
	}
}

// changePasswordRequest is the payload for resetting a staff password
type changePasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// ChangePasswordHandler replaces a staff account's password
// PUT /api/v1/admin/users/:id/password
func (h *UserHandlers) ChangePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid user ID",
			})
			return
		}

		var req changePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "A password of at least 8 characters is required",
			})
			return
		}

		user, err := h.userRepo.GetUserByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve user",
			})
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		hash, err := auth.HashPassword(req.Password, h.cfg.Auth.BcryptCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update password",
			})
			return
		}

		if err := h.userRepo.UpdatePassword(c.Request.Context(), id, hash); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update password",
			})
			return
		}

		actor := middleware.CurrentUser(c)
		if actor != nil && actor.ID == user.ID {
			h.recorder.RecordPasswordChange(c.Request.Context(), actor,
				activity.WithIP(c.ClientIP()))
		} else {
			h.recorder.RecordPasswordChangeFor(c.Request.Context(), actor, user,
				activity.WithIP(c.ClientIP()))
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// DeleteUserHandler removes a staff account
// DELETE /api/v1/admin/users/:id
func (h *UserHandlers) DeleteUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid user ID",
			})
			return
		}

		actor := middleware.CurrentUser(c)
		if actor != nil && actor.ID == id {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Cannot delete your own account",
			})
			return
		}

		user, err := h.userRepo.GetUserByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve user",
			})
			return
		}
		if user == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}

		if err := h.userRepo.DeleteUser(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete user",
			})
			return
		}

		h.recorder.RecordDeleted(c.Request.Context(), actor,
			activity.KindUser, user.Username, user.ID, activity.WithIP(c.ClientIP()))

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
