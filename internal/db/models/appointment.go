package models

import "time"

// Appointment status values
const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Appointment links a patient to a doctor at a scheduled time
type Appointment struct {
	ID          int64
	PatientID   int64
	DoctorID    int64
	ScheduledAt time.Time
	Status      string
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Joined display names, populated by list/get queries. Empty when the
	// row was loaded without the join.
	PatientName string
	DoctorName  string
}
