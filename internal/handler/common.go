package handler // handler defines http handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/velstore/storefront-api/internal/auth"
	"github.com/velstore/storefront-api/internal/middleware"
	"github.com/velstore/storefront-api/internal/repository"
)

// reqCtx derives a bounded context for a single data-store operation.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// callerID extracts the authenticated user id placed in context by
// RequireAuth. It returns false when no identity is present.
func callerID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(middleware.CtxUserID).(uint64)
	return id, ok
}

// callerIsStaff reports whether the request carries a staff identity. It
// works under OptionalAuth as well: an unauthenticated request simply has no
// role in context.
func callerIsStaff(c echo.Context) bool {
	role, ok := c.Get(middleware.CtxRole).(auth.Role)
	return ok && role.IsStaff()
}

// pathID parses a numeric path parameter. Malformed identifiers are a client
// error, never a store-level failure.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// pageParams parses limit/offset with the listing defaults (20, capped at
// 100) so one misbehaving client cannot drag entire tables over the wire.
func pageParams(c echo.Context) (limit, offset int) {
	limit = 20
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// repoError maps repository sentinel errors onto the HTTP taxonomy. notFound
// and conflict name the entity in the client-facing message; anything else is
// an internal error.
func repoError(c echo.Context, err error, notFound, conflict string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": notFound})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": conflict})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

// optionalID decodes a JSON field that may be absent (leave unchanged), null
// (clear) or a number (assign). The outer pointer is nil only when the field
// was absent.
func optionalID(raw json.RawMessage) (**uint64, error) {
	if raw == nil {
		return nil, nil
	}
	if string(raw) == "null" {
		inner := (*uint64)(nil)
		return &inner, nil
	}
	var id uint64
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, err
	}
	inner := &id
	return &inner, nil
}
