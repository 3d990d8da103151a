// Package activitylog implements the HTTP surface of the audit subsystem:
// filtered listing, grid pagination, statistics, export, and retention
// enforcement over the activity_log table.
package activitylog

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clinic-office/clinic-office/internal/activity"
	"github.com/clinic-office/clinic-office/internal/config"
	"github.com/clinic-office/clinic-office/internal/db/models"
	"github.com/clinic-office/clinic-office/internal/db/repositories"
	"github.com/clinic-office/clinic-office/internal/telemetry"
)

// dateParam is the wire format for the date, start_date, and end_date
// query parameters.
const dateParam = "2006-01-02"

// Handlers serves the activity-log endpoints
type Handlers struct {
	cfg  *config.Config
	repo *repositories.ActivityLogRepository
}

// NewHandlers creates a new activity-log Handlers instance
func NewHandlers(cfg *config.Config, repo *repositories.ActivityLogRepository) *Handlers {
	return &Handlers{cfg: cfg, repo: repo}
}

// parseFilters reads the shared filter query parameters. The boolean result
// is false if a date parameter failed to parse, in which case a 400 response
// has already been written.
func (h *Handlers) parseFilters(c *gin.Context) (repositories.ActivityFilters, bool) {
	filters := repositories.ActivityFilters{
		Action: c.Query("action"),
		Role:   c.Query("role"),
		User:   c.Query("user"),
	}

	for param, dst := range map[string]**time.Time{
		"date":       &filters.Date,
		"start_date": &filters.StartDate,
		"end_date":   &filters.EndDate,
	} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(dateParam, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Invalid %s: expected YYYY-MM-DD", param),
			})
			return filters, false
		}
		*dst = &parsed
	}

	return filters, true
}

// @Summary      List activity log
// @Description  Get activity-log records matching the optional filters, newest first, with headline statistics. Requires ROLE_ADMIN.
// @Tags         ActivityLog
// @Security     Bearer
// @Produce      json
// @Param        action      query  string  false  "Exact action match, e.g. CREATE_PATIENT"
// @Param        role        query  string  false  "Exact role match, e.g. ROLE_STAFF"
// @Param        user        query  string  false  "Case-insensitive username substring"
// @Param        date        query  string  false  "Single calendar day (YYYY-MM-DD)"
// @Param        start_date  query  string  false  "Inclusive range start (YYYY-MM-DD)"
// @Param        end_date    query  string  false  "Inclusive range end (YYYY-MM-DD)"
// @Success      200  {object}  map[string]interface{}  "logs: []models.ActivityLog, stats: map"
// @Failure      400  {object}  map[string]interface{}  "Invalid date parameter"
// @Router       /api/v1/activity-log [get]
// ListHandler returns the filtered activity log plus the headline counters
// shown above the list view.
func (h *Handlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters, ok := h.parseFilters(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()

		logs, err := h.repo.FindWithFilters(ctx, filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to query activity log",
			})
			return
		}

		total, err := h.repo.GetTotalCount(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute statistics",
			})
			return
		}
		today, err := h.repo.GetTodayCount(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute statistics",
			})
			return
		}
		adminCount, err := h.repo.GetCountByRole(ctx, models.RoleAdmin)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute statistics",
			})
			return
		}
		staffCount, err := h.repo.GetCountByRole(ctx, models.RoleStaff)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute statistics",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"logs": logs,
			"stats": gin.H{
				"total": total,
				"today": today,
				"admin": adminCount,
				"staff": staffCount,
			},
		})
	}
}

// gridRow is an activity-log record augmented with the display label the grid
// shows in its action column.
type gridRow struct {
	*models.ActivityLog
	ActionLabel string `json:"action_label"`
}

// @Summary      Activity log grid page
// @Description  Server-side pagination for the activity-log data grid: free-text search, column sorting, and offset/limit paging. Requires ROLE_ADMIN.
// @Tags         ActivityLog
// @Security     Bearer
// @Produce      json
// @Param        offset  query  int     false  "Row offset (default 0)"
// @Param        limit   query  int     false  "Page size, max 100 (default 25)"
// @Param        search  query  string  false  "Substring matched against username, target, and action"
// @Param        sort    query  string  false  "Sort column (default timestamp)"
// @Param        dir     query  string  false  "asc or desc (default desc)"
// @Success      200  {object}  map[string]interface{}  "totalRecords, totalFiltered, rows"
// @Router       /api/v1/activity-log/grid [get]
// GridHandler serves one page of the admin data grid.
func (h *Handlers) GridHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filters, ok := h.parseFilters(c)
		if !ok {
			return
		}

		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
		if offset < 0 {
			offset = 0
		}
		if limit < 1 || limit > 100 {
			limit = 25
		}

		search := c.Query("search")
		sortColumn := c.DefaultQuery("sort", "timestamp")
		sortDir := c.DefaultQuery("dir", "desc")

		ctx := c.Request.Context()

		logs, filtered, err := h.repo.Page(ctx, filters, search, sortColumn, sortDir, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to query activity log",
			})
			return
		}

		total, err := h.repo.GetTotalCount(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute statistics",
			})
			return
		}

		rows := make([]gridRow, 0, len(logs))
		for _, entry := range logs {
			rows = append(rows, gridRow{
				ActivityLog: entry,
				ActionLabel: models.ActionLabel(entry.Action),
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"totalRecords":  total,
			"totalFiltered": filtered,
			"rows":          rows,
		})
	}
}

// @Summary      Get activity-log record
// @Tags         ActivityLog
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "Record ID"
// @Success      200  {object}  map[string]interface{}  "log: models.ActivityLog"
// @Failure      404  {object}  map[string]interface{}  "Record not found"
// @Router       /api/v1/activity-log/{id} [get]
// DetailHandler returns one record by ID.
func (h *Handlers) DetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid record ID",
			})
			return
		}

		entry, err := h.repo.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve record",
			})
			return
		}
		if entry == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Record not found",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"log": entry})
	}
}

// @Summary      Activity log statistics
// @Description  Total, today, and per-role record counts plus a per-action breakdown ordered by frequency.
// @Tags         ActivityLog
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/activity-log/stats [get]
// StatsHandler returns the counters backing the audit dashboard widgets.
func (h *Handlers) StatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		total, err := h.repo.GetTotalCount(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute statistics",
			})
			return
		}
		today, err := h.repo.GetTodayCount(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute statistics",
			})
			return
		}
		adminCount, err := h.repo.GetCountByRole(ctx, models.RoleAdmin)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute statistics",
			})
			return
		}
		staffCount, err := h.repo.GetCountByRole(ctx, models.RoleStaff)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute statistics",
			})
			return
		}
		actions, err := h.repo.GetActionBreakdown(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to compute statistics",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"total":   total,
			"today":   today,
			"admin":   adminCount,
			"staff":   staffCount,
			"actions": actions,
		})
	}
}

// @Summary      Export activity log
// @Description  Stream the filtered activity log as a CSV or JSON download. The same filters as the list view apply.
// @Tags         ActivityLog
// @Security     Bearer
// @Produce      text/csv
// @Produce      json
// @Param        format  query  string  false  "csv (default) or json"
// @Success      200  {string}  string  "File download"
// @Failure      400  {object}  map[string]interface{}  "Unknown format"
// @Router       /api/v1/activity-log/export [get]
// ExportHandler streams the filtered log as a file download.
func (h *Handlers) ExportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		format := strings.ToLower(c.DefaultQuery("format", "csv"))
		if format != "csv" && format != "json" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unknown export format: expected csv or json",
			})
			return
		}

		filters, ok := h.parseFilters(c)
		if !ok {
			return
		}

		logs, err := h.repo.FindWithFilters(c.Request.Context(), filters)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to query activity log",
			})
			return
		}

		filename := fmt.Sprintf("activity-log-%s.%s", time.Now().Format(dateParam), format)
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

		var buf bytes.Buffer
		switch format {
		case "csv":
			if err := activity.WriteCSV(&buf, logs); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to render export",
				})
				return
			}
			c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		case "json":
			if err := activity.WriteJSON(&buf, logs); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to render export",
				})
				return
			}
			c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
		}
	}
}

// clearRequest is the body of POST /activity-log/clear. Days is a pointer so
// an omitted field can fall back to the configured retention default while an
// explicit zero is rejected.
type clearRequest struct {
	Days *int `json:"days" form:"days"`
}

// @Summary      Prune old activity-log records
// @Description  Delete records older than the given number of days. Omitting days uses the configured retention default; zero is rejected to guard against wiping the whole log.
// @Tags         ActivityLog
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        request  body  clearRequest  false  "days: retention window"
// @Success      200  {object}  map[string]interface{}  "success, message, count"
// @Failure      400  {object}  map[string]interface{}  "Invalid days value"
// @Router       /api/v1/activity-log/clear [post]
// ClearHandler enforces the retention window on demand.
func (h *Handlers) ClearHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req clearRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}

		days := h.cfg.Audit.DefaultRetentionDays
		if req.Days != nil {
			days = *req.Days
		}
		if days <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Days must be a positive number",
			})
			return
		}

		count, err := h.repo.DeleteOlderThan(c.Request.Context(), days)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete old records",
			})
			return
		}

		telemetry.ActivityRecordsPrunedTotal.Add(float64(count))

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("Deleted %d log entries older than %d days", count, days),
			"count":   count,
		})
	}
}
