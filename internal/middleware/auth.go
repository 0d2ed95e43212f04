package middleware // middleware provides shared request processing for handlers

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware

	"github.com/velstore/storefront-api/internal/auth"
)

// Context keys under which the authenticated identity is stored. Middleware
// never touches anything outside the in-flight request context.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// bearerToken extracts the raw token from an "Authorization: Bearer <token>"
// header. It returns false for a missing or malformed header.
func bearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(h, "Bearer "), true
}

// RequireAuth returns a middleware that validates a Bearer access token and
// injects the decoded identity into the request context. A missing or
// malformed header and a failed verify are both rejected with 401; the two
// cases carry distinct messages so clients can tell them apart.
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "no token provided"})
			}
			claims, ok := auth.VerifyToken(secret, raw)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxEmail, claims.Email)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}

// RequireAdmin enforces that RequireAuth has already populated an identity
// whose role grants staff access. An absent identity yields 401; a
// non-staff role yields 403.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(auth.Role)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if !role.IsStaff() {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
			}
			return next(c)
		}
	}
}

// OptionalAuth attempts the same decode as RequireAuth but swallows every
// failure and proceeds unauthenticated. Handlers use it to widen query scope
// for staff without blocking public access.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := bearerToken(c); ok {
				if claims, ok := auth.VerifyToken(secret, raw); ok {
					c.Set(CtxUserID, claims.UserID)
					c.Set(CtxEmail, claims.Email)
					c.Set(CtxRole, claims.Role)
				}
			}
			return next(c)
		}
	}
}
