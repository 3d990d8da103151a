// Package dashboard aggregates the counters shown on the back-office landing
// page.
package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/clinic-office/clinic-office/internal/db/models"
	"github.com/clinic-office/clinic-office/internal/db/repositories"
	"github.com/clinic-office/clinic-office/internal/middleware"
)

// Handler serves the dashboard endpoint
type Handler struct {
	db       *sqlx.DB
	apptRepo *repositories.AppointmentRepository
}

// NewHandler creates a new dashboard Handler instance
func NewHandler(db *sqlx.DB, apptRepo *repositories.AppointmentRepository) *Handler {
	return &Handler{db: db, apptRepo: apptRepo}
}

// entityCounts is scanned from the single aggregate query below.
type entityCounts struct {
	Doctors      int64 `db:"doctors"`
	Patients     int64 `db:"patients"`
	Appointments int64 `db:"appointments"`
	Users        int64 `db:"users"`
}

// GetHandler returns entity counts and the appointment status breakdown.
// The staff-account count is included only for administrators.
// GET /api/v1/dashboard
func (h *Handler) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// One round trip for all headline counts.
		var counts entityCounts
		err := h.db.GetContext(ctx, &counts, `
			SELECT
				(SELECT COUNT(*) FROM doctors)      AS doctors,
				(SELECT COUNT(*) FROM patients)     AS patients,
				(SELECT COUNT(*) FROM appointments) AS appointments,
				(SELECT COUNT(*) FROM users)        AS users
		`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute dashboard counts",
			})
			return
		}

		statuses, err := h.apptRepo.GetStatusBreakdown(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute dashboard counts",
			})
			return
		}

		resp := gin.H{
			"doctors":              counts.Doctors,
			"patients":             counts.Patients,
			"appointments":         counts.Appointments,
			"appointment_statuses": statuses,
		}

		user := middleware.CurrentUser(c)
		if user != nil && user.HasRole(models.RoleAdmin) {
			resp["users"] = counts.Users
		}

		c.JSON(http.StatusOK, resp)
	}
}
