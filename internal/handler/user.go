package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/velstore/storefront-api/internal/auth"
	"github.com/velstore/storefront-api/internal/repository"
)

// AdminUserStore is the slice of the user repository the admin user
// management endpoints need.
type AdminUserStore interface {
	List(ctx context.Context) ([]repository.User, error)
	GetByID(ctx context.Context, id uint64) (repository.User, error)
	Update(ctx context.Context, id uint64, upd repository.UserUpdate) (repository.User, error)
	Delete(ctx context.Context, id uint64) error
}

// UserHandler bundles dependencies for admin user management.
type UserHandler struct {
	Store AdminUserStore
}

func NewUserHandler(store AdminUserStore) *UserHandler {
	return &UserHandler{Store: store}
}

// List handles GET /v1/users (admin only). Password hashes never appear in
// the response.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Store.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// Get handles GET /v1/users/:id (admin only).
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Store.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "user not found", "")
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

type updateUserReq struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
}

// Update handles PUT /v1/users/:id (admin only). Role assignment accepts
// only the closed role set; an unknown role is rejected rather than
// silently downgraded.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	upd := repository.UserUpdate{FullName: req.FullName, Phone: req.Phone}
	if req.Role != nil {
		if !auth.IsValid(*req.Role) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
		}
		role := auth.ParseRole(*req.Role)
		upd.Role = &role
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Store.Update(ctx, id, upd)
	if err != nil {
		return repoError(c, err, "user not found", "")
	}
	return c.JSON(http.StatusOK, toUserPart(u))
}

// Delete handles DELETE /v1/users/:id (admin only). Admins cannot delete
// their own account.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if caller, ok := callerID(c); ok && caller == id {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete your own account"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.Delete(ctx, id); err != nil {
		return repoError(c, err, "user not found", "")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}
