// Package models - activity_log.go defines the ActivityLog model, the immutable audit
// record written for every tracked staff action: who did it, in which role, what they
// did, and a frozen human-readable description of the affected entity.
package models

import (
	"strings"
	"time"
)

// Action vocabulary. The action column is an open string enum: composite
// variants such as CREATE_PATIENT or DELETE_DOCTOR are built by the recorder,
// and unknown values are preserved and displayed verbatim.
const (
	ActionLogin          = "LOGIN"
	ActionLogout         = "LOGOUT"
	ActionCreate         = "CREATE"
	ActionUpdate         = "UPDATE"
	ActionDelete         = "DELETE"
	ActionPasswordChange = "PASSWORD_CHANGE"
	ActionProfileUpdate  = "PROFILE_UPDATE"
)

// Role constants used across the back office.
const (
	RoleAdmin = "ROLE_ADMIN"
	RoleStaff = "ROLE_STAFF"
	RoleUser  = "ROLE_USER"
)

// ActivityLog represents one audit record. Fields are set once at creation and
// never modified; TargetData is frozen at record time for historical accuracy
// even if the referenced entity is later renamed or deleted.
type ActivityLog struct {
	ID         int64
	UserID     int64
	Username   string
	Role       string
	Action     string
	TargetData *string // e.g. "Patient: Jane Doe (ID: 42)"; nil for LOGIN/LOGOUT
	IPAddress  *string
	Details    *string
	Timestamp  time.Time
}

// ActionLabel returns a human-readable label for an action value, e.g.
// "CREATE_PATIENT" → "Create Patient". Values outside the expected
// UPPER_SNAKE shape are returned unchanged.
func ActionLabel(action string) string {
	if action == "" {
		return action
	}
	for _, r := range action {
		if r != '_' && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return action
		}
	}
	parts := strings.Split(action, "_")
	for i, p := range parts {
		if len(p) > 1 {
			parts[i] = p[:1] + strings.ToLower(p[1:])
		}
	}
	return strings.Join(parts, " ")
}
