// Package patients implements CRUD handlers for the clinic's patient registry.
// Every successful mutation is recorded in the activity log.
package patients

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clinic-office/clinic-office/internal/activity"
	"github.com/clinic-office/clinic-office/internal/db/models"
	"github.com/clinic-office/clinic-office/internal/db/repositories"
	"github.com/clinic-office/clinic-office/internal/middleware"
)

// Handlers serves the patient endpoints
type Handlers struct {
	repo     *repositories.PatientRepository
	recorder *activity.Recorder
}

// NewHandlers creates a new patient Handlers instance
func NewHandlers(repo *repositories.PatientRepository, recorder *activity.Recorder) *Handlers {
	return &Handlers{repo: repo, recorder: recorder}
}

// patientRequest is the create/update payload. DateOfBirth uses the same
// YYYY-MM-DD wire format as the activity-log date filters.
type patientRequest struct {
	Name        string  `json:"name" binding:"required"`
	DateOfBirth *string `json:"date_of_birth"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
}

// parseDateOfBirth converts the optional wire date; a non-nil error means a
// 400 response was already written.
func parseDateOfBirth(c *gin.Context, raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid date_of_birth: expected YYYY-MM-DD",
		})
		return nil, false
	}
	return &parsed, true
}

// ListHandler returns all patients
// GET /api/v1/patients
func (h *Handlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		patients, err := h.repo.ListPatients(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list patients",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"patients": patients})
	}
}

// GetHandler returns one patient by ID
// GET /api/v1/patients/:id
func (h *Handlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid patient ID",
			})
			return
		}

		patient, err := h.repo.GetPatientByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve patient",
			})
			return
		}
		if patient == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Patient not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"patient": patient})
	}
}

// CreateHandler registers a new patient
// POST /api/v1/patients
func (h *Handlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req patientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Name is required",
			})
			return
		}

		dob, ok := parseDateOfBirth(c, req.DateOfBirth)
		if !ok {
			return
		}

		patient := &models.Patient{
			Name:        req.Name,
			DateOfBirth: dob,
			Email:       req.Email,
			Phone:       req.Phone,
		}

		if err := h.repo.CreatePatient(c.Request.Context(), patient); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create patient",
			})
			return
		}

		h.recorder.RecordCreated(c.Request.Context(), middleware.CurrentUser(c),
			activity.KindPatient, patient.Name, patient.ID, activity.WithIP(c.ClientIP()))

		c.JSON(http.StatusCreated, gin.H{"patient": patient})
	}
}

// UpdateHandler updates an existing patient
// PUT /api/v1/patients/:id
func (h *Handlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid patient ID",
			})
			return
		}

		var req patientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Name is required",
			})
			return
		}

		dob, ok := parseDateOfBirth(c, req.DateOfBirth)
		if !ok {
			return
		}

		patient, err := h.repo.GetPatientByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve patient",
			})
			return
		}
		if patient == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Patient not found",
			})
			return
		}

		patient.Name = req.Name
		patient.DateOfBirth = dob
		patient.Email = req.Email
		patient.Phone = req.Phone

		if err := h.repo.UpdatePatient(c.Request.Context(), patient); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update patient",
			})
			return
		}

		h.recorder.RecordUpdated(c.Request.Context(), middleware.CurrentUser(c),
			activity.KindPatient, patient.Name, patient.ID, activity.WithIP(c.ClientIP()))

		c.JSON(http.StatusOK, gin.H{"patient": patient})
	}
}

// DeleteHandler removes a patient
// DELETE /api/v1/patients/:id
func (h *Handlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid patient ID",
			})
			return
		}

		patient, err := h.repo.GetPatientByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve patient",
			})
			return
		}
		if patient == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Patient not found",
			})
			return
		}

		if err := h.repo.DeletePatient(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete patient",
			})
			return
		}

		h.recorder.RecordDeleted(c.Request.Context(), middleware.CurrentUser(c),
			activity.KindPatient, patient.Name, patient.ID, activity.WithIP(c.ClientIP()))

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
