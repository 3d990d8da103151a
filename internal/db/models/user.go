// Package models - user.go defines the staff User model with username, display name,
// ordered roles, and password hash.
package models

import "time"

// User represents a staff account in the back office
type User struct {
	ID           int64
	Username     string
	FullName     string
	Roles        []string // ordered; the first role is the one recorded in the audit trail
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ActorID implements activity.Actor
func (u *User) ActorID() int64 { return u.ID }

// ActorName implements activity.Actor
func (u *User) ActorName() string { return u.Username }

// ActorRoles implements activity.Actor
func (u *User) ActorRoles() []string { return u.Roles }

// HasRole reports whether the user carries the given role. ROLE_ADMIN is
// treated as a superset of every other role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role || r == RoleAdmin {
			return true
		}
	}
	return false
}
