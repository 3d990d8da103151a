// export.go renders activity-log records as downloadable CSV or JSON documents.
package activity

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/clinic-office/clinic-office/internal/db/models"
)

// timestampLayout is the export timestamp format, kept stable so repeated
// exports of the same records are byte-identical.
const timestampLayout = "2006-01-02 15:04:05"

// csvHeader is the CSV column order; it matches the grid's field set.
var csvHeader = []string{"ID", "Timestamp", "User", "Role", "Action", "Target", "IP Address", "Details"}

// exportRecord carries the grid field set with stable JSON names.
type exportRecord struct {
	ID         int64  `json:"id"`
	Timestamp  string `json:"timestamp"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	Action     string `json:"action"`
	TargetData string `json:"target_data"`
	IPAddress  string `json:"ip_address"`
	Details    string `json:"details"`
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// WriteCSV writes the records as RFC 4180 CSV with a header row. Fields
// containing commas, quotes, or newlines are quoted with internal quotes
// doubled (encoding/csv semantics).
func WriteCSV(w io.Writer, entries []*models.ActivityLog) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range entries {
		row := []string{
			strconv.FormatInt(e.ID, 10),
			e.Timestamp.Format(timestampLayout),
			e.Username,
			e.Role,
			e.Action,
			strOrEmpty(e.TargetData),
			strOrEmpty(e.IPAddress),
			strOrEmpty(e.Details),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the records as a pretty-printed JSON array with the same
// field set as the CSV export.
func WriteJSON(w io.Writer, entries []*models.ActivityLog) error {
	records := make([]exportRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, exportRecord{
			ID:         e.ID,
			Timestamp:  e.Timestamp.Format(timestampLayout),
			Username:   e.Username,
			Role:       e.Role,
			Action:     e.Action,
			TargetData: strOrEmpty(e.TargetData),
			IPAddress:  strOrEmpty(e.IPAddress),
			Details:    strOrEmpty(e.Details),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
