package models

import "time"

// Patient represents a registered patient
type Patient struct {
	ID          int64
	Name        string
	DateOfBirth *time.Time
	Email       *string
	Phone       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
