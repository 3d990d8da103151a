package models

import "time"

// Doctor represents a practicing doctor in the clinic
type Doctor struct {
	ID             int64
	Name           string
	Specialization string
	Email          *string
	Phone          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
