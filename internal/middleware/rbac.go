// Package middleware (rbac.go) implements role-based authorization middleware.
//
// Roles are checked at request time against the user row loaded by
// AuthMiddleware rather than against the roles embedded in the JWT. When an
// administrator changes a staff member's role the change takes effect on their
// next request without reissuing the token.

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinic-office/clinic-office/internal/db/models"
)

// RequireRole checks that the authenticated user carries the given role.
// ROLE_ADMIN implicitly satisfies any role requirement.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, ok := contextRoles(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		if !hasRole(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Missing required role",
				"details": "Required role: " + role,
			})
			return
		}

		c.Next()
	}
}

// RequireAnyRole checks that the authenticated user carries at least one of
// the given roles.
func RequireAnyRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoles, ok := contextRoles(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		for _, role := range roles {
			if hasRole(userRoles, role) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Missing required role",
		})
	}
}

// contextRoles reads the "roles" value set by AuthMiddleware.
func contextRoles(c *gin.Context) ([]string, bool) {
	val, exists := c.Get("roles")
	if !exists {
		return nil, false
	}
	roles, ok := val.([]string)
	if !ok {
		return nil, false
	}
	return roles, true
}

func hasRole(roles []string, want string) bool {
	for _, r := range roles {
		if r == want || r == models.RoleAdmin {
			return true
		}
	}
	return false
}
