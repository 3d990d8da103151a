package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/clinic-office/clinic-office/internal/db/models"
)

// PatientRepository handles patient database operations
type PatientRepository struct {
	db *sql.DB
}

// NewPatientRepository creates a new PatientRepository
func NewPatientRepository(db *sql.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// CreatePatient creates a new patient
func (r *PatientRepository) CreatePatient(ctx context.Context, patient *models.Patient) error {
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = patient.CreatedAt

	query := `
		INSERT INTO patients (name, date_of_birth, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		patient.Name,
		patient.DateOfBirth,
		patient.Email,
		patient.Phone,
		patient.CreatedAt,
		patient.UpdatedAt,
	).Scan(&patient.ID)
}

// GetPatientByID retrieves a patient by ID, or nil if not found
func (r *PatientRepository) GetPatientByID(ctx context.Context, id int64) (*models.Patient, error) {
	query := `
		SELECT id, name, date_of_birth, email, phone, created_at, updated_at
		FROM patients
		WHERE id = $1
	`

	patient := &models.Patient{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&patient.ID,
		&patient.Name,
		&patient.DateOfBirth,
		&patient.Email,
		&patient.Phone,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return patient, nil
}

// ListPatients returns all patients ordered by name
func (r *PatientRepository) ListPatients(ctx context.Context) ([]*models.Patient, error) {
	query := `
		SELECT id, name, date_of_birth, email, phone, created_at, updated_at
		FROM patients
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := make([]*models.Patient, 0)
	for rows.Next() {
		patient := &models.Patient{}
		err := rows.Scan(
			&patient.ID,
			&patient.Name,
			&patient.DateOfBirth,
			&patient.Email,
			&patient.Phone,
			&patient.CreatedAt,
			&patient.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	return patients, rows.Err()
}

// UpdatePatient updates a patient's details
func (r *PatientRepository) UpdatePatient(ctx context.Context, patient *models.Patient) error {
	patient.UpdatedAt = time.Now()

	query := `
		UPDATE patients
		SET name = $1, date_of_birth = $2, email = $3, phone = $4, updated_at = $5
		WHERE id = $6
	`

	_, err := r.db.ExecContext(ctx, query,
		patient.Name,
		patient.DateOfBirth,
		patient.Email,
		patient.Phone,
		patient.UpdatedAt,
		patient.ID,
	)
	return err
}

// DeletePatient removes a patient
func (r *PatientRepository) DeletePatient(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	return err
}

// CountPatients returns the number of patients
func (r *PatientRepository) CountPatients(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`).Scan(&count)
	return count, err
}
