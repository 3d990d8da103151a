package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/clinic-office/clinic-office/internal/auth"
	"github.com/clinic-office/clinic-office/internal/db/repositories"
)

var userCols = []string{"id", "username", "full_name", "roles", "password_hash", "created_at", "updated_at"}

func newUserRepo(t *testing.T) (*repositories.UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repositories.NewUserRepository(db), mock
}

func newAuthRouter(userRepo *repositories.UserRepository) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(userRepo))
	r.GET("/", func(c *gin.Context) {
		user := CurrentUser(c)
		if user != nil {
			c.Header("X-Auth-Username", user.Username)
		}
		c.Status(http.StatusOK)
	})
	return r
}

func generateTestJWT(t *testing.T, userID int64) string {
	t.Helper()
	token, err := auth.GenerateJWT(userID, "reception", []string{"ROLE_STAFF"}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

// ---------------------------------------------------------------------------
// Header validation (no DB access expected)
// ---------------------------------------------------------------------------

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	r := newAuthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_NonBearerHeader(t *testing.T) {
	r := newAuthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_EmptyBearerToken(t *testing.T) {
	r := newAuthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer   ")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	r := newAuthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// ---------------------------------------------------------------------------
// JWT path with user lookup
// ---------------------------------------------------------------------------

func TestAuthMiddleware_ValidTokenLoadsUser(t *testing.T) {
	repo, mock := newUserRepo(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT id, username, full_name, roles, password_hash, created_at, updated_at`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(7), "reception", "Front Desk", "{ROLE_STAFF}", "hash", now, now))

	r := newAuthRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestJWT(t, 7))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Auth-Username"); got != "reception" {
		t.Errorf("context username = %q, want %q", got, "reception")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAuthMiddleware_DeletedUserRejected(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery(`SELECT id, username, full_name, roles, password_hash, created_at, updated_at`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userCols))

	r := newAuthRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestJWT(t, 7))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for deleted user", w.Code)
	}
}

func TestAuthMiddleware_UserLookupError(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery(`SELECT id, username, full_name, roles, password_hash, created_at, updated_at`).
		WithArgs(int64(7)).
		WillReturnError(errors.New("connection refused"))

	r := newAuthRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestJWT(t, 7))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 on lookup failure", w.Code)
	}
}

func TestCurrentUser_NilWhenUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if user := CurrentUser(c); user != nil {
		t.Errorf("CurrentUser = %+v, want nil", user)
	}
}
