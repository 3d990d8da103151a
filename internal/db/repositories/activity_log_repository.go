// activity_log_repository.go implements ActivityLogRepository, the query and retention
// store for the audit trail: append, filtered search, grid-style pagination, statistics
// aggregation, and bulk age-based pruning.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/clinic-office/clinic-office/internal/db/models"
)

// ActivityLogRepository handles activity-log database operations. The table is
// append-only: rows are inserted once and only ever removed by DeleteOlderThan.
// Atomicity is delegated to the storage engine (single INSERT, single bulk
// DELETE); no in-process locking is needed.
type ActivityLogRepository struct {
	db *sql.DB
}

// NewActivityLogRepository creates a new ActivityLogRepository
func NewActivityLogRepository(db *sql.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// ActivityFilters contains the independently optional filters for querying the
// activity log. Zero values impose no constraint. Date matches a single
// calendar day; StartDate/EndDate form an inclusive calendar-day range (a
// record stamped anywhere within EndDate's day is in range) and combine
// conjunctively with Date when both are supplied.
type ActivityFilters struct {
	Action    string
	Role      string
	User      string // case-insensitive substring match on username
	Date      *time.Time
	StartDate *time.Time
	EndDate   *time.Time
}

// activityColumns is the canonical select list, kept in one place so every
// query scans the same fields in the same order.
const activityColumns = `id, user_id, username, role, action, target_data, ip_address, details, timestamp`

// sortColumns whitelists the columns the grid query may sort by. Anything
// else falls back to timestamp descending.
var sortColumns = map[string]string{
	"id":          "id",
	"timestamp":   "timestamp",
	"username":    "username",
	"role":        "role",
	"action":      "action",
	"target_data": "target_data",
	"ip_address":  "ip_address",
	"details":     "details",
}

// Create appends a new activity-log record and assigns its identifier. The
// timestamp is assigned here if the caller left it zero. Mandatory fields
// (UserID, Username, Role, Action) are the caller's contract; they are not
// validated here.
func (r *ActivityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	query := `
		INSERT INTO activity_log (user_id, username, role, action, target_data, ip_address, details, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query,
		entry.UserID,
		entry.Username,
		entry.Role,
		entry.Action,
		entry.TargetData,
		entry.IPAddress,
		entry.Details,
		entry.Timestamp,
	).Scan(&entry.ID)
}

// buildFilterClause renders the WHERE fragment for the supplied filters,
// appending bind arguments to args. The returned clause always starts with
// " AND" or is empty, so it can be concatenated after "WHERE 1=1".
func buildFilterClause(filters ActivityFilters, args *[]interface{}) string {
	var b strings.Builder

	if filters.Action != "" {
		*args = append(*args, filters.Action)
		fmt.Fprintf(&b, ` AND action = $%d`, len(*args))
	}

	if filters.Role != "" {
		*args = append(*args, filters.Role)
		fmt.Fprintf(&b, ` AND role = $%d`, len(*args))
	}

	if filters.User != "" {
		*args = append(*args, "%"+filters.User+"%")
		fmt.Fprintf(&b, ` AND username ILIKE $%d`, len(*args))
	}

	if filters.Date != nil {
		*args = append(*args, filters.Date.Format("2006-01-02"))
		fmt.Fprintf(&b, ` AND timestamp::date = $%d::date`, len(*args))
	}

	if filters.StartDate != nil {
		*args = append(*args, *filters.StartDate)
		fmt.Fprintf(&b, ` AND timestamp >= $%d`, len(*args))
	}

	if filters.EndDate != nil {
		// EndDate names a calendar day; everything stamped on that day is in
		// range, so the bound is midnight of the following day, exclusive.
		*args = append(*args, filters.EndDate.AddDate(0, 0, 1))
		fmt.Fprintf(&b, ` AND timestamp < $%d`, len(*args))
	}

	return b.String()
}

// FindWithFilters retrieves activity-log records matching the filters, newest
// first. All matches are returned; use Page for bounded slices.
func (r *ActivityLogRepository) FindWithFilters(ctx context.Context, filters ActivityFilters) ([]*models.ActivityLog, error) {
	args := make([]interface{}, 0)
	where := buildFilterClause(filters, &args)

	query := `SELECT ` + activityColumns + ` FROM activity_log WHERE 1=1` + where + ` ORDER BY timestamp DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivityRows(rows)
}

// Page runs the grid-style query: free-text search ORed across username,
// target_data, and action, combined conjunctively with the column filters. It
// returns both the requested slice and the total number of matching rows so
// the caller can render pagination controls.
//
// sortColumn must be one of the whitelisted columns; anything else (including
// the empty string) sorts by timestamp descending. sortDir is "asc" or "desc",
// default "desc".
func (r *ActivityLogRepository) Page(ctx context.Context, filters ActivityFilters, search, sortColumn, sortDir string, limit, offset int) ([]*models.ActivityLog, int, error) {
	args := make([]interface{}, 0)
	where := buildFilterClause(filters, &args)

	if search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		where += fmt.Sprintf(` AND (username ILIKE $%d OR target_data ILIKE $%d OR action ILIKE $%d)`, n, n, n)
	}

	countQuery := `SELECT COUNT(*) FROM activity_log WHERE 1=1` + where

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderCol, ok := sortColumns[sortColumn]
	dir := "DESC"
	if !ok {
		orderCol = "timestamp"
	} else if strings.EqualFold(sortDir, "asc") {
		dir = "ASC"
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM activity_log WHERE 1=1%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		activityColumns, where, orderCol, dir, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries, err := scanActivityRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// GetByID retrieves a single activity-log record, or nil if it does not exist.
func (r *ActivityLogRepository) GetByID(ctx context.Context, id int64) (*models.ActivityLog, error) {
	query := `SELECT ` + activityColumns + ` FROM activity_log WHERE id = $1`

	entry := &models.ActivityLog{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Username,
		&entry.Role,
		&entry.Action,
		&entry.TargetData,
		&entry.IPAddress,
		&entry.Details,
		&entry.Timestamp,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetTotalCount returns the total number of activity-log records.
func (r *ActivityLogRepository) GetTotalCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_log`).Scan(&count)
	return count, err
}

// GetTodayCount returns the number of records stamped since the start of the
// current local day.
func (r *ActivityLogRepository) GetTodayCount(ctx context.Context) (int, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_log WHERE timestamp >= $1`, midnight).Scan(&count)
	return count, err
}

// GetCountByRole returns the number of records attributed to the given role.
func (r *ActivityLogRepository) GetCountByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_log WHERE role = $1`, role).Scan(&count)
	return count, err
}

// ActionCount is one row of the action breakdown.
type ActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// GetActionBreakdown returns per-action record counts, most frequent first.
func (r *ActivityLogRepository) GetActionBreakdown(ctx context.Context) ([]ActionCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT action, COUNT(*) AS count FROM activity_log GROUP BY action ORDER BY count DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breakdown := make([]ActionCount, 0)
	for rows.Next() {
		var ac ActionCount
		if err := rows.Scan(&ac.Action, &ac.Count); err != nil {
			return nil, err
		}
		breakdown = append(breakdown, ac)
	}
	return breakdown, rows.Err()
}

// DeleteOlderThan removes every record older than the cutoff of now minus the
// given number of whole days and returns how many rows were removed. Re-running
// with the same or a later cutoff is safe; the second call removes nothing new.
// days must be positive — rejecting days == 0 is the HTTP layer's job.
func (r *ActivityLogRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM activity_log WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// scanActivityRows drains rows into ActivityLog models.
func scanActivityRows(rows *sql.Rows) ([]*models.ActivityLog, error) {
	entries := make([]*models.ActivityLog, 0)
	for rows.Next() {
		entry := &models.ActivityLog{}
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Username,
			&entry.Role,
			&entry.Action,
			&entry.TargetData,
			&entry.IPAddress,
			&entry.Details,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
