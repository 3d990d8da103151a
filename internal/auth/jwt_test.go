package auth

import (
	"os"
	"sync"
	"testing"
	"time"
)

// resetJWTSecret resets the package-level sync.Once so tests can set a fresh secret.
// This is only safe to call from test code.
func resetJWTSecret() {
	jwtSecret = ""
	jwtSecretOnce = sync.Once{}
	jwtSecretErr = nil
}

func TestMain(m *testing.M) {
	// Set a known test secret before any test runs.
	// The sync.Once will capture this value on first call to ValidateJWTSecret.
	os.Setenv("CBO_JWT_SECRET", "test-jwt-secret-that-is-32-chars-!")
	os.Exit(m.Run())
}

func TestValidateJWTSecret(t *testing.T) {
	t.Run("valid secret from env", func(t *testing.T) {
		resetJWTSecret()
		t.Setenv("CBO_JWT_SECRET", "exactly-32-char-secret-for-test!!")
		if err := ValidateJWTSecret(); err != nil {
			t.Errorf("ValidateJWTSecret() unexpected error: %v", err)
		}
		if GetJWTSecret() != "exactly-32-char-secret-for-test!!" {
			t.Errorf("GetJWTSecret() = %q", GetJWTSecret())
		}
	})

	t.Run("production mode requires secret", func(t *testing.T) {
		resetJWTSecret()
		// Unset all dev-mode indicators and the secret itself
		t.Setenv("CBO_JWT_SECRET", "")
		t.Setenv("DEV_MODE", "")
		t.Setenv("GIN_MODE", "release")
		if err := ValidateJWTSecret(); err == nil {
			t.Error("ValidateJWTSecret() expected error in production mode without secret, got nil")
		}
	})

	t.Run("dev mode generates random secret", func(t *testing.T) {
		resetJWTSecret()
		t.Setenv("CBO_JWT_SECRET", "")
		t.Setenv("DEV_MODE", "true")
		if err := ValidateJWTSecret(); err != nil {
			t.Errorf("ValidateJWTSecret() unexpected error in dev mode: %v", err)
		}
		if GetJWTSecret() == "" {
			t.Error("GetJWTSecret() returned empty string after dev mode init")
		}
	})
}

func TestGenerateAndValidateJWT(t *testing.T) {
	resetJWTSecret()
	t.Setenv("CBO_JWT_SECRET", "test-jwt-secret-that-is-32-chars-!")
	if err := ValidateJWTSecret(); err != nil {
		t.Fatalf("ValidateJWTSecret() error: %v", err)
	}

	t.Run("round trip", func(t *testing.T) {
		roles := []string{"ROLE_ADMIN", "ROLE_STAFF"}

		token, err := GenerateJWT(7, "admin", roles, time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT() error: %v", err)
		}
		if token == "" {
			t.Fatal("GenerateJWT() returned empty token")
		}

		claims, err := ValidateJWT(token)
		if err != nil {
			t.Fatalf("ValidateJWT() error: %v", err)
		}
		if claims.UserID != 7 {
			t.Errorf("claims.UserID = %d, want 7", claims.UserID)
		}
		if claims.Username != "admin" {
			t.Errorf("claims.Username = %q, want %q", claims.Username, "admin")
		}
		if len(claims.Roles) != 2 || claims.Roles[0] != "ROLE_ADMIN" {
			t.Errorf("claims.Roles = %v, want %v", claims.Roles, roles)
		}
		if claims.Issuer != "clinic-office" {
			t.Errorf("claims.Issuer = %q, want %q", claims.Issuer, "clinic-office")
		}
		if claims.Subject != "7" {
			t.Errorf("claims.Subject = %q, want %q", claims.Subject, "7")
		}
	})

	t.Run("default expiry when zero duration", func(t *testing.T) {
		token, err := GenerateJWT(1, "reception", nil, 0)
		if err != nil {
			t.Fatalf("GenerateJWT() error: %v", err)
		}
		claims, err := ValidateJWT(token)
		if err != nil {
			t.Fatalf("ValidateJWT() error: %v", err)
		}
		// Should expire roughly 12 hours from now
		remaining := time.Until(claims.ExpiresAt.Time)
		if remaining < 11*time.Hour || remaining > 13*time.Hour {
			t.Errorf("default expiry remaining = %v, want ~12h", remaining)
		}
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token, err := GenerateJWT(1, "reception", nil, -time.Second)
		if err != nil {
			t.Fatalf("GenerateJWT() error: %v", err)
		}
		_, err = ValidateJWT(token)
		if err == nil {
			t.Error("ValidateJWT() expected error for expired token, got nil")
		}
	})

	t.Run("invalid token string", func(t *testing.T) {
		_, err := ValidateJWT("not.a.valid.token")
		if err == nil {
			t.Error("ValidateJWT() expected error for garbage token, got nil")
		}
	})

	t.Run("empty token string", func(t *testing.T) {
		_, err := ValidateJWT("")
		if err == nil {
			t.Error("ValidateJWT() expected error for empty token, got nil")
		}
	})

	t.Run("token signed with different secret is rejected", func(t *testing.T) {
		// Generate with current secret
		token, err := GenerateJWT(1, "reception", nil, time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT() error: %v", err)
		}

		// Reset and use a different secret
		resetJWTSecret()
		t.Setenv("CBO_JWT_SECRET", "completely-different-secret-32ch!")
		if err := ValidateJWTSecret(); err != nil {
			t.Fatalf("ValidateJWTSecret() error: %v", err)
		}

		_, err = ValidateJWT(token)
		if err == nil {
			t.Error("ValidateJWT() expected error for token signed with different secret, got nil")
		}

		// Restore for remaining tests
		resetJWTSecret()
		t.Setenv("CBO_JWT_SECRET", "test-jwt-secret-that-is-32-chars-!")
		if err := ValidateJWTSecret(); err != nil {
			t.Fatalf("ValidateJWTSecret() error: %v", err)
		}
	})
}
