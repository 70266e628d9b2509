package middleware

// identity.go holds helpers for reading the authenticated identity that
// JWTAuth stored in the Echo context. Claim values arrive as float64
// because MapClaims round-trips through JSON.

import (
	"github.com/labstack/echo/v4"

	"github.com/devadeekshithgs-git/hukiciah/internal/model"
)

// UserID returns the authenticated user's id, or 0 when the request is
// unauthenticated.
func UserID(c echo.Context) uint64 {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v)
	case uint64:
		return v
	case int64:
		return uint64(v)
	}
	return 0
}

// IsAdmin reports whether the authenticated user carries the admin role.
func IsAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == model.RoleAdmin
}
