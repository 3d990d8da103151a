// Package api wires together all HTTP routes for the clinic back office.
//
// Route grouping philosophy:
//   - /health and /version are unauthenticated probes.
//   - /api/v1/auth/login is public but strictly rate limited.
//   - Everything else under /api/v1 requires a valid staff JWT; the
//     activity-log and staff-account groups additionally require ROLE_ADMIN.
package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/clinic-office/clinic-office/internal/activity"
	"github.com/clinic-office/clinic-office/internal/api/activitylog"
	"github.com/clinic-office/clinic-office/internal/api/admin"
	"github.com/clinic-office/clinic-office/internal/api/appointments"
	authapi "github.com/clinic-office/clinic-office/internal/api/auth"
	"github.com/clinic-office/clinic-office/internal/api/dashboard"
	"github.com/clinic-office/clinic-office/internal/api/doctors"
	"github.com/clinic-office/clinic-office/internal/api/patients"
	"github.com/clinic-office/clinic-office/internal/config"
	"github.com/clinic-office/clinic-office/internal/db/models"
	"github.com/clinic-office/clinic-office/internal/db/repositories"
	"github.com/clinic-office/clinic-office/internal/middleware"
)

// Version is the build version, injected at link time by the Makefile.
var Version = "dev"

// BackgroundServices holds resources that must be stopped during graceful
// shutdown. The caller (cmd/server) is responsible for calling Shutdown()
// when the process receives a termination signal.
type BackgroundServices struct {
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the
// HTTP server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	doctorRepo := repositories.NewDoctorRepository(db)
	patientRepo := repositories.NewPatientRepository(db)
	apptRepo := repositories.NewAppointmentRepository(db)
	activityRepo := repositories.NewActivityLogRepository(db)

	// sqlx handle for the aggregate dashboard query
	sqlxDB := sqlx.NewDb(db, "postgres")

	recorder := activity.NewRecorder(activityRepo, cfg.Audit.Enabled)

	// Handlers
	activityHandlers := activitylog.NewHandlers(cfg, activityRepo)
	doctorHandlers := doctors.NewHandlers(doctorRepo, recorder)
	patientHandlers := patients.NewHandlers(patientRepo, recorder)
	apptHandlers := appointments.NewHandlers(apptRepo, patientRepo, doctorRepo, recorder)
	userHandlers := admin.NewUserHandlers(cfg, userRepo, recorder)
	authHandlers := authapi.NewHandlers(cfg, userRepo, recorder)
	dashboardHandler := dashboard.NewHandler(sqlxDB, apptRepo)

	// Rate limiters
	authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	exportRateLimiter := middleware.NewRateLimiter(middleware.ExportRateLimitConfig())

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API version
	router.GET("/version", versionHandler())

	apiV1 := router.Group("/api/v1")
	{
		// Public authentication endpoint (no auth required, strictly rate limited)
		loginGroup := apiV1.Group("/auth")
		loginGroup.Use(middleware.RateLimitMiddleware(authRateLimiter))
		{
			loginGroup.POST("/login", authHandlers.LoginHandler())
		}

		// Authenticated endpoints
		authenticated := apiV1.Group("")
		authenticated.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		authenticated.Use(middleware.AuthMiddleware(userRepo))
		{
			authenticated.POST("/auth/logout", authHandlers.LogoutHandler())

			authenticated.GET("/dashboard", dashboardHandler.GetHandler())

			// Clinical registries, open to all staff roles
			staff := authenticated.Group("")
			staff.Use(middleware.RequireAnyRole(models.RoleStaff, models.RoleUser))
			{
				staff.GET("/doctors", doctorHandlers.ListHandler())
				staff.GET("/doctors/:id", doctorHandlers.GetHandler())
				staff.POST("/doctors", doctorHandlers.CreateHandler())
				staff.PUT("/doctors/:id", doctorHandlers.UpdateHandler())
				staff.DELETE("/doctors/:id", doctorHandlers.DeleteHandler())

				staff.GET("/patients", patientHandlers.ListHandler())
				staff.GET("/patients/:id", patientHandlers.GetHandler())
				staff.POST("/patients", patientHandlers.CreateHandler())
				staff.PUT("/patients/:id", patientHandlers.UpdateHandler())
				staff.DELETE("/patients/:id", patientHandlers.DeleteHandler())

				staff.GET("/appointments", apptHandlers.ListHandler())
				staff.GET("/appointments/:id", apptHandlers.GetHandler())
				staff.POST("/appointments", apptHandlers.CreateHandler())
				staff.PUT("/appointments/:id", apptHandlers.UpdateHandler())
				staff.DELETE("/appointments/:id", apptHandlers.DeleteHandler())
			}

			// Audit surface, administrators only
			audit := authenticated.Group("/activity-log")
			audit.Use(middleware.RequireRole(models.RoleAdmin))
			{
				audit.GET("", activityHandlers.ListHandler())
				audit.GET("/grid", activityHandlers.GridHandler())
				audit.GET("/stats", activityHandlers.StatsHandler())
				audit.GET("/export",
					middleware.RateLimitMiddleware(exportRateLimiter),
					activityHandlers.ExportHandler())
				audit.POST("/clear", activityHandlers.ClearHandler())
				audit.GET("/:id", activityHandlers.DetailHandler())
			}

			// Staff-account management, administrators only
			adminGroup := authenticated.Group("/admin")
			adminGroup.Use(middleware.RequireRole(models.RoleAdmin))
			{
				adminGroup.GET("/users", userHandlers.ListUsersHandler())
				adminGroup.GET("/users/:id", userHandlers.GetUserHandler())
				adminGroup.POST("/users", userHandlers.CreateUserHandler())
				adminGroup.PUT("/users/:id", userHandlers.UpdateUserHandler())
				adminGroup.PUT("/users/:id/password", userHandlers.ChangePasswordHandler())
				adminGroup.DELETE("/users/:id", userHandlers.DeleteUserHandler())
			}
		}
	}

	bg := &BackgroundServices{
		rateLimiters: []*middleware.RateLimiter{
			authRateLimiter, generalRateLimiter, exportRateLimiter,
		},
	}

	return router, bg
}

// healthCheckHandler reports process and database liveness
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the build version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version": Version,
		})
	}
}

// LoggerMiddleware logs every request through the global slog handler
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		requestID, _ := c.Get(middleware.RequestIDKey)

		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
