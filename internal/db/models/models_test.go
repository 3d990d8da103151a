package models

import "testing"

// ---------------------------------------------------------------------------
// ActionLabel
// ---------------------------------------------------------------------------

func TestActionLabel_CompositeAction(t *testing.T) {
	if got := ActionLabel("CREATE_PATIENT"); got != "Create Patient" {
		t.Errorf("ActionLabel(CREATE_PATIENT) = %q, want Create Patient", got)
	}
}

func TestActionLabel_SingleWord(t *testing.T) {
	if got := ActionLabel("LOGIN"); got != "Login" {
		t.Errorf("ActionLabel(LOGIN) = %q, want Login", got)
	}
}

func TestActionLabel_Empty(t *testing.T) {
	if got := ActionLabel(""); got != "" {
		t.Errorf("ActionLabel(\"\") = %q, want empty", got)
	}
}

func TestActionLabel_UnexpectedShapePreserved(t *testing.T) {
	// Values outside UPPER_SNAKE pass through verbatim
	for _, v := range []string{"already labelled", "Create_Patient", "créate"} {
		if got := ActionLabel(v); got != v {
			t.Errorf("ActionLabel(%q) = %q, want unchanged", v, got)
		}
	}
}

func TestActionLabel_SingleLetterPartKept(t *testing.T) {
	if got := ActionLabel("A_TEST"); got != "A Test" {
		t.Errorf("ActionLabel(A_TEST) = %q, want A Test", got)
	}
}

// ---------------------------------------------------------------------------
// User.HasRole
// ---------------------------------------------------------------------------

func TestHasRole_DirectMatch(t *testing.T) {
	u := &User{Roles: []string{RoleStaff}}
	if !u.HasRole(RoleStaff) {
		t.Error("HasRole(ROLE_STAFF) should be true for a staff user")
	}
}

func TestHasRole_AdminIsSuperset(t *testing.T) {
	u := &User{Roles: []string{RoleAdmin}}
	if !u.HasRole(RoleStaff) {
		t.Error("an admin should satisfy any role check")
	}
}

func TestHasRole_NoMatch(t *testing.T) {
	u := &User{Roles: []string{RoleStaff}}
	if u.HasRole(RoleAdmin) {
		t.Error("HasRole(ROLE_ADMIN) should be false for a staff-only user")
	}
}

func TestHasRole_EmptyRoles(t *testing.T) {
	u := &User{}
	if u.HasRole(RoleUser) {
		t.Error("HasRole should be false when the user has no roles")
	}
}

// ---------------------------------------------------------------------------
// User actor methods
// ---------------------------------------------------------------------------

func TestUserActorMethods(t *testing.T) {
	u := &User{ID: 7, Username: "admin", Roles: []string{RoleAdmin, RoleStaff}}
	if u.ActorID() != 7 {
		t.Errorf("ActorID() = %d, want 7", u.ActorID())
	}
	if u.ActorName() != "admin" {
		t.Errorf("ActorName() = %q, want admin", u.ActorName())
	}
	if got := u.ActorRoles(); len(got) != 2 || got[0] != RoleAdmin {
		t.Errorf("ActorRoles() = %v, want [ROLE_ADMIN ROLE_STAFF]", got)
	}
}
