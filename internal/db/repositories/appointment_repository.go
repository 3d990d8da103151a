package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/clinic-office/clinic-office/internal/db/models"
)

// AppointmentRepository handles appointment database operations
type AppointmentRepository struct {
	db *sql.DB
}

// NewAppointmentRepository creates a new AppointmentRepository
func NewAppointmentRepository(db *sql.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentSelect = `
	SELECT a.id, a.patient_id, a.doctor_id, a.scheduled_at, a.status, a.notes,
	       a.created_at, a.updated_at, p.name AS patient_name, d.name AS doctor_name
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN doctors d ON d.id = a.doctor_id
`

// CreateAppointment creates a new appointment
func (r *AppointmentRepository) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	if appt.Status == "" {
		appt.Status = models.AppointmentScheduled
	}

	query := `
		INSERT INTO appointments (patient_id, doctor_id, scheduled_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		appt.PatientID,
		appt.DoctorID,
		appt.ScheduledAt,
		appt.Status,
		appt.Notes,
		appt.CreatedAt,
		appt.UpdatedAt,
	).Scan(&appt.ID)
}

// GetAppointmentByID retrieves an appointment with joined patient and doctor
// names, or nil if not found.
func (r *AppointmentRepository) GetAppointmentByID(ctx context.Context, id int64) (*models.Appointment, error) {
	appt := &models.Appointment{}
	err := r.db.QueryRowContext(ctx, appointmentSelect+` WHERE a.id = $1`, id).Scan(
		&appt.ID,
		&appt.PatientID,
		&appt.DoctorID,
		&appt.ScheduledAt,
		&appt.Status,
		&appt.Notes,
		&appt.CreatedAt,
		&appt.UpdatedAt,
		&appt.PatientName,
		&appt.DoctorName,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// ListAppointments returns all appointments, soonest first
func (r *AppointmentRepository) ListAppointments(ctx context.Context) ([]*models.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, appointmentSelect+` ORDER BY a.scheduled_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appts := make([]*models.Appointment, 0)
	for rows.Next() {
		appt := &models.Appointment{}
		err := rows.Scan(
			&appt.ID,
			&appt.PatientID,
			&appt.DoctorID,
			&appt.ScheduledAt,
			&appt.Status,
			&appt.Notes,
			&appt.CreatedAt,
			&appt.UpdatedAt,
			&appt.PatientName,
			&appt.DoctorName,
		)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

// UpdateAppointment updates an appointment's details
func (r *AppointmentRepository) UpdateAppointment(ctx context.Context, appt *models.Appointment) error {
	appt.UpdatedAt = time.Now()

	query := `
		UPDATE appointments
		SET patient_id = $1, doctor_id = $2, scheduled_at = $3, status = $4, notes = $5, updated_at = $6
		WHERE id = $7
	`

	_, err := r.db.ExecContext(ctx, query,
		appt.PatientID,
		appt.DoctorID,
		appt.ScheduledAt,
		appt.Status,
		appt.Notes,
		appt.UpdatedAt,
		appt.ID,
	)
	return err
}

// DeleteAppointment removes an appointment
func (r *AppointmentRepository) DeleteAppointment(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	return err
}

// CountAppointments returns the number of appointments
func (r *AppointmentRepository) CountAppointments(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&count)
	return count, err
}

// StatusCount is one row of the appointment status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// GetStatusBreakdown returns per-status appointment counts.
func (r *AppointmentRepository) GetStatusBreakdown(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) AS count FROM appointments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breakdown := make([]StatusCount, 0)
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		breakdown = append(breakdown, sc)
	}
	return breakdown, rows.Err()
}
