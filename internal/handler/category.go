package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/velstore/storefront-api/internal/queue"
	"github.com/velstore/storefront-api/internal/repository"
)

// CategoryStore is the slice of the category repository the category
// endpoints need.
type CategoryStore interface {
	List(ctx context.Context, includeInactive bool) ([]repository.Category, error)
	GetByID(ctx context.Context, id uint64) (repository.Category, error)
	Create(ctx context.Context, c repository.Category) (repository.Category, error)
	Update(ctx context.Context, id uint64, upd repository.CategoryUpdate) (repository.Category, error)
	Delete(ctx context.Context, id uint64) error
}

// CategoryHandler bundles dependencies for category endpoints.
type CategoryHandler struct {
	Store  CategoryStore
	Events EventPublisher
}

func NewCategoryHandler(store CategoryStore, events EventPublisher) *CategoryHandler {
	return &CategoryHandler{Store: store, Events: events}
}

// List handles GET /v1/categories. Inactive categories are hidden from
// non-staff callers.
func (h *CategoryHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Store.List(ctx, callerIsStaff(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if items == nil {
		items = []repository.Category{}
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /v1/categories/:id.
func (h *CategoryHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	cat, err := h.Store.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "category not found", "")
	}
	return c.JSON(http.StatusOK, cat)
}

type createCategoryReq struct {
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  *string `json:"description"`
	ParentID     *uint64 `json:"parent_id"`
	DisplayOrder int     `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

// Create handles POST /v1/categories (admin only).
func (h *CategoryHandler) Create(c echo.Context) error {
	var req createCategoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Name == "" || req.Slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and slug are required"})
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	created, err := h.Store.Create(ctx, repository.Category{
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		ParentID:     req.ParentID,
		DisplayOrder: req.DisplayOrder,
		IsActive:     active,
	})
	if err != nil {
		return repoError(c, err, "parent category not found", "slug already exists")
	}
	h.publish(c, "created", created.ID, created.Slug)
	return c.JSON(http.StatusCreated, created)
}

type updateCategoryReq struct {
	Name         *string         `json:"name"`
	Slug         *string         `json:"slug"`
	Description  *string         `json:"description"`
	ParentID     json.RawMessage `json:"parent_id"`
	DisplayOrder *int            `json:"display_order"`
	IsActive     *bool           `json:"is_active"`
}

// Update handles PUT /v1/categories/:id (admin only).
func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}
	var req updateCategoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	parentID, err := optionalID(req.ParentID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid parent id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	updated, err := h.Store.Update(ctx, id, repository.CategoryUpdate{
		Name:         trimmed(req.Name),
		Slug:         trimmed(req.Slug),
		Description:  req.Description,
		ParentID:     parentID,
		DisplayOrder: req.DisplayOrder,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return repoError(c, err, "category not found", "slug already exists")
	}
	h.publish(c, "updated", updated.ID, updated.Slug)
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/categories/:id (admin only). Products keep
// existing; their category reference is cleared by the store.
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.Delete(ctx, id); err != nil {
		return repoError(c, err, "category not found", "")
	}
	h.publish(c, "deleted", id, "")
	return c.JSON(http.StatusOK, echo.Map{"message": "category deleted"})
}

func (h *CategoryHandler) publish(c echo.Context, action string, id uint64, slug string) {
	if h.Events == nil {
		return
	}
	actor, _ := callerID(c)
	ev := queue.CatalogEvent{
		Entity:     "category",
		EntityID:   id,
		Slug:       slug,
		Action:     action,
		ActorID:    actor,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.Events.Publish(c.Request().Context(), ev); err != nil {
		log.Printf("catalog event publish failed: %v", err)
	}
}
