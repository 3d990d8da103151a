package activity

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/clinic-office/clinic-office/internal/db/models"
)

func sampleEntries() []*models.ActivityLog {
	target := "Patient: O'Brien, J. (ID: 7)"
	ip := "10.0.0.1"
	return []*models.ActivityLog{
		{
			ID:         1,
			UserID:     7,
			Username:   "admin",
			Role:       models.RoleAdmin,
			Action:     "CREATE_PATIENT",
			TargetData: &target,
			IPAddress:  &ip,
			Timestamp:  time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC),
		},
		{
			ID:        2,
			UserID:    8,
			Username:  "reception",
			Role:      models.RoleStaff,
			Action:    "LOGIN",
			Timestamp: time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC),
		},
	}
}

func TestWriteCSV_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleEntries()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}
	if lines[0] != "ID,Timestamp,User,Role,Action,Target,IP Address,Details" {
		t.Errorf("header = %q", lines[0])
	}
	// The target contains a comma, so encoding/csv must quote it.
	if !strings.Contains(lines[1], `"Patient: O'Brien, J. (ID: 7)"`) {
		t.Errorf("row 1 = %q, want quoted comma-containing target", lines[1])
	}
	if !strings.Contains(lines[1], "2026-08-30 14:05:09") {
		t.Errorf("row 1 = %q, want formatted timestamp", lines[1])
	}
}

func TestWriteCSV_EmbeddedQuotesAreDoubled(t *testing.T) {
	target := `Patient: "Bones" McCoy (ID: 3)`
	entries := []*models.ActivityLog{
		{
			ID:         3,
			UserID:     7,
			Username:   "admin",
			Role:       models.RoleAdmin,
			Action:     "UPDATE_PATIENT",
			TargetData: &target,
			Timestamp:  time.Date(2026, 8, 30, 16, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, entries); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// A field with quotes is itself quoted and each inner quote is doubled.
	want := `"Patient: ""Bones"" McCoy (ID: 3)"`
	if !strings.Contains(lines[1], want) {
		t.Errorf("row = %q, want %s", lines[1], want)
	}
}

func TestWriteCSV_EmptyOptionalFields(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleEntries()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// Row 2 has no target, IP, or details; trailing fields are empty strings.
	if lines[2] != "2,2026-08-30 15:00:00,reception,ROLE_STAFF,LOGIN,,," {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestWriteCSV_NoEntries(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if got := strings.TrimRight(buf.String(), "\n"); got != "ID,Timestamp,User,Role,Action,Target,IP Address,Details" {
		t.Errorf("empty export = %q, want header only", got)
	}
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleEntries()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0]["target_data"] != "Patient: O'Brien, J. (ID: 7)" {
		t.Errorf("target_data = %v", records[0]["target_data"])
	}
	if records[0]["timestamp"] != "2026-08-30 14:05:09" {
		t.Errorf("timestamp = %v", records[0]["timestamp"])
	}
	// Optional fields export as empty strings, not nulls.
	if records[1]["target_data"] != "" {
		t.Errorf("row 2 target_data = %v, want empty string", records[1]["target_data"])
	}
}

func TestWriteJSON_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty export = %q, want []", got)
	}
}
