package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/velstore/storefront-api/internal/repository"
)

// WishlistStore is the slice of the wishlist repository the wishlist
// endpoints need.
type WishlistStore interface {
	ListByUser(ctx context.Context, userID uint64) ([]repository.WishlistItem, error)
	Add(ctx context.Context, userID, productID uint64) (repository.WishlistItem, error)
	Remove(ctx context.Context, userID, productID uint64) error
}

// WishlistHandler bundles dependencies for wishlist endpoints. All routes
// require an authenticated caller; items are always scoped to that caller.
type WishlistHandler struct {
	Store WishlistStore
}

func NewWishlistHandler(store WishlistStore) *WishlistHandler {
	return &WishlistHandler{Store: store}
}

// List handles GET /v1/wishlists.
func (h *WishlistHandler) List(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Store.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, items)
}

type addWishlistReq struct {
	ProductID uint64 `json:"product_id"`
}

// Add handles POST /v1/wishlists. A product can be saved once per user.
func (h *WishlistHandler) Add(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	var req addWishlistReq
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	item, err := h.Store.Add(ctx, uid, req.ProductID)
	if err != nil {
		return repoError(c, err, "product not found", "product already in wishlist")
	}
	return c.JSON(http.StatusCreated, item)
}

// Remove handles DELETE /v1/wishlists/:product_id. Removing a pair that does
// not exist reports not found, so the second of two identical calls fails.
func (h *WishlistHandler) Remove(c echo.Context) error {
	uid, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	productID, err := pathID(c, "product_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.Remove(ctx, uid, productID); err != nil {
		return repoError(c, err, "product not in wishlist", "")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "product removed from wishlist"})
}
