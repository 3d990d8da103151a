package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/clinic-office/clinic-office/internal/db/models"
)

// DoctorRepository handles doctor database operations
type DoctorRepository struct {
	db *sql.DB
}

// NewDoctorRepository creates a new DoctorRepository
func NewDoctorRepository(db *sql.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// CreateDoctor creates a new doctor
func (r *DoctorRepository) CreateDoctor(ctx context.Context, doctor *models.Doctor) error {
	doctor.CreatedAt = time.Now()
	doctor.UpdatedAt = doctor.CreatedAt

	query := `
		INSERT INTO doctors (name, specialization, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		doctor.Name,
		doctor.Specialization,
		doctor.Email,
		doctor.Phone,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	).Scan(&doctor.ID)
}

// GetDoctorByID retrieves a doctor by ID, or nil if not found
func (r *DoctorRepository) GetDoctorByID(ctx context.Context, id int64) (*models.Doctor, error) {
	query := `
		SELECT id, name, specialization, email, phone, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`

	doctor := &models.Doctor{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&doctor.ID,
		&doctor.Name,
		&doctor.Specialization,
		&doctor.Email,
		&doctor.Phone,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doctor, nil
}

// ListDoctors returns all doctors ordered by name
func (r *DoctorRepository) ListDoctors(ctx context.Context) ([]*models.Doctor, error) {
	query := `
		SELECT id, name, specialization, email, phone, created_at, updated_at
		FROM doctors
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doctors := make([]*models.Doctor, 0)
	for rows.Next() {
		doctor := &models.Doctor{}
		err := rows.Scan(
			&doctor.ID,
			&doctor.Name,
			&doctor.Specialization,
			&doctor.Email,
			&doctor.Phone,
			&doctor.CreatedAt,
			&doctor.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, doctor)
	}
	return doctors, rows.Err()
}

// UpdateDoctor updates a doctor's details
func (r *DoctorRepository) UpdateDoctor(ctx context.Context, doctor *models.Doctor) error {
	doctor.UpdatedAt = time.Now()

	query := `
		UPDATE doctors
		SET name = $1, specialization = $2, email = $3, phone = $4, updated_at = $5
		WHERE id = $6
	`

	_, err := r.db.ExecContext(ctx, query,
		doctor.Name,
		doctor.Specialization,
		doctor.Email,
		doctor.Phone,
		doctor.UpdatedAt,
		doctor.ID,
	)
	return err
}

// DeleteDoctor removes a doctor
func (r *DoctorRepository) DeleteDoctor(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	return err
}

// CountDoctors returns the number of doctors
func (r *DoctorRepository) CountDoctors(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&count)
	return count, err
}
