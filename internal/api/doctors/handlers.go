// Package doctors implements CRUD handlers for the clinic's doctor registry.
// Every successful mutation is recorded in the activity log.
package doctors

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clinic-office/clinic-office/internal/activity"
	"github.com/clinic-office/clinic-office/internal/db/models"
	"github.com/clinic-office/clinic-office/internal/db/repositories"
	"github.com/clinic-office/clinic-office/internal/middleware"
)

// Handlers serves the doctor endpoints
type Handlers struct {
	repo     *repositories.DoctorRepository
	recorder *activity.Recorder
}

// NewHandlers creates a new doctor Handlers instance
func NewHandlers(repo *repositories.DoctorRepository, recorder *activity.Recorder) *Handlers {
	return &Handlers{repo: repo, recorder: recorder}
}

// doctorRequest is the create/update payload
type doctorRequest struct {
	Name           string  `json:"name" binding:"required"`
	Specialization string  `json:"specialization" binding:"required"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
}

// ListHandler returns all doctors
// GET /api/v1/doctors
func (h *Handlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doctors, err := h.repo.ListDoctors(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list doctors",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"doctors": doctors})
	}
}

// GetHandler returns one doctor by ID
// GET /api/v1/doctors/:id
func (h *Handlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid doctor ID",
			})
			return
		}

		doctor, err := h.repo.GetDoctorByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve doctor",
			})
			return
		}
		if doctor == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Doctor not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"doctor": doctor})
	}
}

// CreateHandler registers a new doctor
// POST /api/v1/doctors
func (h *Handlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req doctorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Name and specialization are required",
			})
			return
		}

		doctor := &models.Doctor{
			Name:           req.Name,
			Specialization: req.Specialization,
			Email:          req.Email,
			Phone:          req.Phone,
		}

		if err := h.repo.CreateDoctor(c.Request.Context(), doctor); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create doctor",
			})
			return
		}

		h.recorder.RecordDoctorCreated(c.Request.Context(), middleware.CurrentUser(c), doctor,
			activity.WithIP(c.ClientIP()))

		c.JSON(http.StatusCreated, gin.H{"doctor": doctor})
	}
}

// UpdateHandler updates an existing doctor
// PUT /api/v1/doctors/:id
func (h *Handlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid doctor ID",
			})
			return
		}

		var req doctorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Name and specialization are required",
			})
			return
		}

		doctor, err := h.repo.GetDoctorByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve doctor",
			})
			return
		}
		if doctor == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Doctor not found",
			})
			return
		}

		doctor.Name = req.Name
		doctor.Specialization = req.Specialization
		doctor.Email = req.Email
		doctor.Phone = req.Phone

		if err := h.repo.UpdateDoctor(c.Request.Context(), doctor); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update doctor",
			})
			return
		}

		h.recorder.RecordUpdated(c.Request.Context(), middleware.CurrentUser(c),
			activity.KindDoctor, doctor.Name, doctor.ID, activity.WithIP(c.ClientIP()))

		c.JSON(http.StatusOK, gin.H{"doctor": doctor})
	}
}

// DeleteHandler removes a doctor
// DELETE /api/v1/doctors/:id
func (h *Handlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid doctor ID",
			})
			return
		}

		doctor, err := h.repo.GetDoctorByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve doctor",
			})
			return
		}
		if doctor == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Doctor not found",
			})
			return
		}

		if err := h.repo.DeleteDoctor(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete doctor",
			})
			return
		}

		h.recorder.RecordDeleted(c.Request.Context(), middleware.CurrentUser(c),
			activity.KindDoctor, doctor.Name, doctor.ID, activity.WithIP(c.ClientIP()))

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
