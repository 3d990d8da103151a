// Package activity implements the audit write path for the clinic back office.
//
// A Recorder appends exactly one immutable ActivityLog record per tracked
// action. Recording is best-effort by contract: a failed append is counted and
// logged operationally, but it never propagates an error into the business
// operation that triggered it. There is no ambient "current user" lookup in
// this package — callers always pass the acting principal explicitly.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clinic-office/clinic-office/internal/db/models"
	"github.com/clinic-office/clinic-office/internal/telemetry"
)

// DefaultRole is recorded when an actor carries no roles at all.
const DefaultRole = models.RoleUser

// Actor is the authenticated principal performing an action. ActorRoles is
// ordered; the first role in the list is the one recorded, even for
// multi-role actors. This mirrors the convention audit-trail consumers
// expect — list order as given, not authority order.
type Actor interface {
	ActorID() int64
	ActorName() string
	ActorRoles() []string
}

// Store is the append half of the activity-log store.
type Store interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
}

// Recorder builds and appends audit records.
type Recorder struct {
	store   Store
	enabled bool
}

// NewRecorder creates a Recorder writing to store. A disabled recorder
// silently drops every record, which lets callers keep unconditional
// Record calls in their mutation paths.
func NewRecorder(store Store, enabled bool) *Recorder {
	return &Recorder{store: store, enabled: enabled}
}

// Option sets an optional field on the record being built.
type Option func(*models.ActivityLog)

// WithIP attaches the client IP address to the record.
func WithIP(ip string) Option {
	return func(e *models.ActivityLog) {
		if ip != "" {
			e.IPAddress = &ip
		}
	}
}

// WithDetails attaches a free-text annotation to the record.
func WithDetails(details string) Option {
	return func(e *models.ActivityLog) {
		if details != "" {
			e.Details = &details
		}
	}
}

// Record appends one audit record for the given actor and action. An empty
// targetData leaves the target description absent (LOGIN, LOGOUT and similar
// actions have no target). The call never fails: append errors are logged and
// swallowed so audit logging cannot be the reason a business action fails.
func (r *Recorder) Record(ctx context.Context, actor Actor, action, targetData string, opts ...Option) {
	if r == nil || !r.enabled {
		return
	}
	if actor == nil {
		slog.Warn("activity record dropped: nil actor", "action", action)
		return
	}

	entry := &models.ActivityLog{
		UserID:   actor.ActorID(),
		Username: actor.ActorName(),
		Role:     primaryRole(actor),
		Action:   action,
	}
	if targetData != "" {
		entry.TargetData = &targetData
	}
	for _, opt := range opts {
		opt(entry)
	}

	if err := r.store.Create(ctx, entry); err != nil {
		telemetry.ActivityRecordFailuresTotal.Inc()
		slog.Error("failed to append activity record",
			"action", action,
			"user", entry.Username,
			"error", err,
		)
		return
	}
	telemetry.ActivityRecordsTotal.WithLabelValues(action).Inc()
}

// primaryRole derives the single recorded role: the first role in the actor's
// list, or DefaultRole when the list is empty.
func primaryRole(actor Actor) string {
	roles := actor.ActorRoles()
	if len(roles) == 0 {
		return DefaultRole
	}
	return roles[0]
}

// Kind names an entity kind in target descriptions and composite actions.
type Kind string

// Entity kinds tracked by the back office.
const (
	KindDoctor      Kind = "Doctor"
	KindPatient     Kind = "Patient"
	KindAppointment Kind = "Appointment"
	KindUser        Kind = "User"
)

// actionName builds a composite action such as CREATE_PATIENT.
func actionName(verb string, kind Kind) string {
	return verb + "_" + strings.ToUpper(string(kind))
}

// describe renders the standard entity description: "<Kind>: <name> (ID: <id>)".
// The format is stable per action type so exports and displays stay deterministic.
func describe(kind Kind, name string, id int64) string {
	return fmt.Sprintf("%s: %s (ID: %d)", kind, name, id)
}

// RecordLogin records a successful login.
func (r *Recorder) RecordLogin(ctx context.Context, actor Actor, opts ...Option) {
	r.Record(ctx, actor, models.ActionLogin, "", opts...)
}

// RecordLogout records a logout.
func (r *Recorder) RecordLogout(ctx context.Context, actor Actor, opts ...Option) {
	r.Record(ctx, actor, models.ActionLogout, "", opts...)
}

// RecordPasswordChange records a password change to the actor's own account.
func (r *Recorder) RecordPasswordChange(ctx context.Context, actor Actor, opts ...Option) {
	r.Record(ctx, actor, models.ActionPasswordChange, "", opts...)
}

// RecordPasswordChangeFor records a password reset applied to another account.
// The affected account is carried as the target so the audit trail names who
// was reset, not just who did the resetting.
func (r *Recorder) RecordPasswordChangeFor(ctx context.Context, actor Actor, subject *models.User, opts ...Option) {
	r.Record(ctx, actor, models.ActionPasswordChange, describe(KindUser, subject.Username, subject.ID), opts...)
}

// RecordProfileUpdate records an update to the actor's own profile.
func (r *Recorder) RecordProfileUpdate(ctx context.Context, actor Actor, opts ...Option) {
	r.Record(ctx, actor, models.ActionProfileUpdate, "", opts...)
}

// RecordCreated records the creation of an entity of the given kind.
func (r *Recorder) RecordCreated(ctx context.Context, actor Actor, kind Kind, name string, id int64, opts ...Option) {
	r.Record(ctx, actor, actionName(models.ActionCreate, kind), describe(kind, name, id), opts...)
}

// RecordUpdated records an update to an entity of the given kind.
func (r *Recorder) RecordUpdated(ctx context.Context, actor Actor, kind Kind, name string, id int64, opts ...Option) {
	r.Record(ctx, actor, actionName(models.ActionUpdate, kind), describe(kind, name, id), opts...)
}

// RecordDeleted records the deletion of an entity of the given kind. Callers
// pass the name and id captured before the row was removed.
func (r *Recorder) RecordDeleted(ctx context.Context, actor Actor, kind Kind, name string, id int64, opts ...Option) {
	r.Record(ctx, actor, actionName(models.ActionDelete, kind), describe(kind, name, id), opts...)
}

// RecordDoctorCreated records a doctor creation with the richer description
// that includes the specialization.
func (r *Recorder) RecordDoctorCreated(ctx context.Context, actor Actor, doctor *models.Doctor, opts ...Option) {
	target := fmt.Sprintf("Doctor: %s (ID: %d, Specialization: %s)",
		doctor.Name, doctor.ID, doctor.Specialization)
	r.Record(ctx, actor, actionName(models.ActionCreate, KindDoctor), target, opts...)
}

// RecordUserCreated records the creation of a staff account, including the
// new account's primary role in the description.
func (r *Recorder) RecordUserCreated(ctx context.Context, actor Actor, created *models.User, opts ...Option) {
	role := DefaultRole
	if len(created.Roles) > 0 {
		role = created.Roles[0]
	}
	target := fmt.Sprintf("User: %s (ID: %d, Role: %s)", created.Username, created.ID, role)
	r.Record(ctx, actor, actionName(models.ActionCreate, KindUser), target, opts...)
}

// NameResolver resolves the patient and doctor display names linked to an
// appointment. A resolver may fail (related row gone, query error); the
// recorder substitutes a degraded description rather than surfacing the error.
type NameResolver func(ctx context.Context) (patientName, doctorName string, err error)

// RecordAppointmentCreated records an appointment creation. The full form is
// "Appointment: ID <id> (Patient: <p>, Doctor: <d>)"; a missing side degrades
// to "Unknown", and a resolver error or panic degrades the whole description
// to the bare "Appointment: ID <id>" form.
func (r *Recorder) RecordAppointmentCreated(ctx context.Context, actor Actor, apptID int64, resolve NameResolver, opts ...Option) {
	fallback := fmt.Sprintf("Appointment: ID %d", apptID)
	target := tryDescribe(func() (string, error) {
		patient, doctor, err := resolve(ctx)
		if err != nil {
			return "", err
		}
		if patient == "" {
			patient = "Unknown"
		}
		if doctor == "" {
			doctor = "Unknown"
		}
		return fmt.Sprintf("Appointment: ID %d (Patient: %s, Doctor: %s)", apptID, patient, doctor), nil
	}, fallback)

	r.Record(ctx, actor, actionName(models.ActionCreate, KindAppointment), target, opts...)
}

// RecordAppointmentUpdated records an appointment update with the bare ID form.
func (r *Recorder) RecordAppointmentUpdated(ctx context.Context, actor Actor, apptID int64, opts ...Option) {
	r.Record(ctx, actor, actionName(models.ActionUpdate, KindAppointment),
		fmt.Sprintf("Appointment: ID %d", apptID), opts...)
}

// RecordAppointmentDeleted records an appointment deletion with the bare ID
// form. Must be called before the row is removed if the caller wants the ID
// to come from a live entity.
func (r *Recorder) RecordAppointmentDeleted(ctx context.Context, actor Actor, apptID int64, opts ...Option) {
	r.Record(ctx, actor, actionName(models.ActionDelete, KindAppointment),
		fmt.Sprintf("Appointment: ID %d", apptID), opts...)
}

// tryDescribe runs compute and returns its result, substituting fallback when
// compute returns an error or panics. This is the recorder's containment
// boundary: target-description construction is the only place lookups against
// live entities happen, and those lookups must never break the recording call.
func tryDescribe(compute func() (string, error), fallback string) (desc string) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("target description construction panicked", "panic", rec)
			desc = fallback
		}
	}()

	result, err := compute()
	if err != nil {
		slog.Warn("target description construction failed", "error", err)
		return fallback
	}
	return result
}
