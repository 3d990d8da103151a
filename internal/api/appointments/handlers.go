// Package appointments implements CRUD handlers for appointment scheduling.
// Every successful mutation is recorded in the activity log; deletions are
// recorded before the row is removed so the entry always names a live ID.
package appointments

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/clinic-office/clinic-office/internal/activity"
	"github.com/clinic-office/clinic-office/internal/db/models"
	"github.com/clinic-office/clinic-office/internal/db/repositories"
	"github.com/clinic-office/clinic-office/internal/middleware"
)

// Handlers serves the appointment endpoints
type Handlers struct {
	repo        *repositories.AppointmentRepository
	patientRepo *repositories.PatientRepository
	doctorRepo  *repositories.DoctorRepository
	recorder    *activity.Recorder
}

// NewHandlers creates a new appointment Handlers instance
func NewHandlers(
	repo *repositories.AppointmentRepository,
	patientRepo *repositories.PatientRepository,
	doctorRepo *repositories.DoctorRepository,
	recorder *activity.Recorder,
) *Handlers {
	return &Handlers{
		repo:        repo,
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
		recorder:    recorder,
	}
}

// appointmentRequest is the create/update payload
type appointmentRequest struct {
	PatientID   int64     `json:"patient_id" binding:"required"`
	DoctorID    int64     `json:"doctor_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes"`
}

func validStatus(status string) bool {
	switch status {
	case models.AppointmentScheduled, models.AppointmentCompleted, models.AppointmentCancelled:
		return true
	}
	return false
}

// resolveNames looks up the patient and doctor display names for the activity
// log. Missing rows yield empty names; the recorder degrades those to
// "Unknown" on its own.
func (h *Handlers) resolveNames(patientID, doctorID int64) activity.NameResolver {
	return func(ctx context.Context) (string, string, error) {
		patient, err := h.patientRepo.GetPatientByID(ctx, patientID)
		if err != nil {
			return "", "", err
		}
		doctor, err := h.doctorRepo.GetDoctorByID(ctx, doctorID)
		if err != nil {
			return "", "", err
		}

		var patientName, doctorName string
		if patient != nil {
			patientName = patient.Name
		}
		if doctor != nil {
			doctorName = doctor.Name
		}
		return patientName, doctorName, nil
	}
}

// ListHandler returns all appointments with joined patient and doctor names
// GET /api/v1/appointments
func (h *Handlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		appts, err := h.repo.ListAppointments(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list appointments",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"appointments": appts})
	}
}

// GetHandler returns one appointment by ID
// GET /api/v1/appointments/:id
func (h *Handlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid appointment ID",
			})
			return
		}

		appt, err := h.repo.GetAppointmentByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve appointment",
			})
			return
		}
		if appt == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Appointment not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"appointment": appt})
	}
}

// CreateHandler schedules a new appointment
// POST /api/v1/appointments
func (h *Handlers) CreateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req appointmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "patient_id, doctor_id, and scheduled_at are required",
			})
			return
		}

		status := req.Status
		if status == "" {
			status = models.AppointmentScheduled
		}
		if !validStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid status: expected scheduled, completed, or cancelled",
			})
			return
		}

		appt := &models.Appointment{
			PatientID:   req.PatientID,
			DoctorID:    req.DoctorID,
			ScheduledAt: req.ScheduledAt,
			Status:      status,
			Notes:       req.Notes,
		}

		if err := h.repo.CreateAppointment(c.Request.Context(), appt); err != nil {
			if isForeignKeyViolation(err) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "Unknown patient or doctor",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create appointment",
			})
			return
		}

		h.recorder.RecordAppointmentCreated(c.Request.Context(), middleware.CurrentUser(c),
			appt.ID, h.resolveNames(appt.PatientID, appt.DoctorID), activity.WithIP(c.ClientIP()))

		c.JSON(http.StatusCreated, gin.H{"appointment": appt})
	}
}

// UpdateHandler updates an existing appointment
// PUT /api/v1/appointments/:id
func (h *Handlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid appointment ID",
			})
			return
		}

		var req appointmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "patient_id, doctor_id, and scheduled_at are required",
			})
			return
		}

		status := req.Status
		if status == "" {
			status = models.AppointmentScheduled
		}
		if !validStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid status: expected scheduled, completed, or cancelled",
			})
			return
		}

		appt, err := h.repo.GetAppointmentByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve appointment",
			})
			return
		}
		if appt == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Appointment not found",
			})
			return
		}

		appt.PatientID = req.PatientID
		appt.DoctorID = req.DoctorID
		appt.ScheduledAt = req.ScheduledAt
		appt.Status = status
		appt.Notes = req.Notes

		if err := h.repo.UpdateAppointment(c.Request.Context(), appt); err != nil {
			if isForeignKeyViolation(err) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "Unknown patient or doctor",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update appointment",
			})
			return
		}

		h.recorder.RecordAppointmentUpdated(c.Request.Context(), middleware.CurrentUser(c),
			appt.ID, activity.WithIP(c.ClientIP()))

		c.JSON(http.StatusOK, gin.H{"appointment": appt})
	}
}

// DeleteHandler cancels and removes an appointment. The activity-log entry is
// written before the delete so the recorded ID refers to a row that existed
// at recording time.
// DELETE /api/v1/appointments/:id
func (h *Handlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid appointment ID",
			})
			return
		}

		appt, err := h.repo.GetAppointmentByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve appointment",
			})
			return
		}
		if appt == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Appointment not found",
			})
			return
		}

		h.recorder.RecordAppointmentDeleted(c.Request.Context(), middleware.CurrentUser(c),
			appt.ID, activity.WithIP(c.ClientIP()))

		if err := h.repo.DeleteAppointment(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete appointment",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// isForeignKeyViolation reports whether err is a Postgres foreign-key
// constraint failure (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return false
}
