package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/velstore/storefront-api/internal/queue"
	"github.com/velstore/storefront-api/internal/repository"
)

// ProductStore is the slice of the product repository the catalog endpoints
// need.
type ProductStore interface {
	List(ctx context.Context, f repository.ProductFilter) ([]repository.Product, int64, error)
	GetByID(ctx context.Context, id uint64, includeInactive bool) (repository.Product, error)
	GetBySlug(ctx context.Context, slug string, includeInactive bool) (repository.Product, error)
	Create(ctx context.Context, p repository.Product, images []repository.NewImage) (repository.Product, error)
	Update(ctx context.Context, id uint64, upd repository.ProductUpdate) (repository.Product, error)
	Delete(ctx context.Context, id uint64) error
}

// EventPublisher emits catalog change events. Publishing is best-effort: a
// broker outage must never fail the mutation that already committed.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.CatalogEvent) error
}

// ProductHandler bundles dependencies for product endpoints.
type ProductHandler struct {
	Store  ProductStore
	Events EventPublisher
}

func NewProductHandler(store ProductStore, events EventPublisher) *ProductHandler {
	return &ProductHandler{Store: store, Events: events}
}

type productListResp struct {
	Products []repository.Product `json:"products"`
	Total    int64                `json:"total"`
	Limit    int                  `json:"limit"`
	Offset   int                  `json:"offset"`
}

// List handles GET /v1/products. Non-staff callers are implicitly scoped to
// active products.
func (h *ProductHandler) List(c echo.Context) error {
	f := repository.ProductFilter{
		IncludeInactive: callerIsStaff(c),
		Search:          strings.TrimSpace(c.QueryParam("search")),
		Sort:            c.QueryParam("sort"),
	}
	f.Limit, f.Offset = pageParams(c)

	if v := c.QueryParam("category"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
		}
		f.CategoryID = &id
	}
	if c.QueryParam("featured") == "true" {
		f.FeaturedOnly = true
	}
	if v := c.QueryParam("min_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_price"})
		}
		f.MinPrice = &p
	}
	if v := c.QueryParam("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid max_price"})
		}
		f.MaxPrice = &p
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, total, err := h.Store.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, productListResp{
		Products: items, Total: total, Limit: f.Limit, Offset: f.Offset,
	})
}

// Get handles GET /v1/products/:id. Inactive products are invisible to
// non-staff callers.
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Store.GetByID(ctx, id, callerIsStaff(c))
	if err != nil {
		return repoError(c, err, "product not found", "")
	}
	return c.JSON(http.StatusOK, p)
}

// GetBySlug handles GET /v1/products/slug/:slug.
func (h *ProductHandler) GetBySlug(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slug"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	p, err := h.Store.GetBySlug(ctx, slug, callerIsStaff(c))
	if err != nil {
		return repoError(c, err, "product not found", "")
	}
	return c.JSON(http.StatusOK, p)
}

type createProductReq struct {
	Name             string                `json:"name"`
	Slug             string                `json:"slug"`
	Description      string                `json:"description"`
	ShortDescription *string               `json:"short_description"`
	Price            *float64              `json:"price"`
	CompareAtPrice   *float64              `json:"compare_at_price"`
	StockQuantity    int                   `json:"stock_quantity"`
	CategoryID       *uint64               `json:"category_id"`
	IsFeatured       bool                  `json:"is_featured"`
	IsActive         *bool                 `json:"is_active"`
	Images           []repository.NewImage `json:"images"`
}

// Create handles POST /v1/products (admin only).
func (h *ProductHandler) Create(c echo.Context) error {
	var req createProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Name == "" || req.Slug == "" || req.Description == "" || req.Price == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing required fields"})
	}
	if *req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must not be negative"})
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	p := repository.Product{
		Name:             req.Name,
		Slug:             req.Slug,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Price:            *req.Price,
		CompareAtPrice:   req.CompareAtPrice,
		StockQuantity:    req.StockQuantity,
		CategoryID:       req.CategoryID,
		IsFeatured:       req.IsFeatured,
		IsActive:         active,
	}
	if uid, ok := callerID(c); ok {
		p.CreatedBy = &uid
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	created, err := h.Store.Create(ctx, p, req.Images)
	if err != nil {
		return repoError(c, err, "category not found", "slug already exists")
	}
	h.publish(c, "created", created.ID, created.Slug)
	return c.JSON(http.StatusCreated, created)
}

type updateProductReq struct {
	Name             *string               `json:"name"`
	Slug             *string               `json:"slug"`
	Description      *string               `json:"description"`
	ShortDescription *string               `json:"short_description"`
	Price            *float64              `json:"price"`
	CompareAtPrice   *float64              `json:"compare_at_price"`
	StockQuantity    *int                  `json:"stock_quantity"`
	CategoryID       json.RawMessage       `json:"category_id"`
	IsFeatured       *bool                 `json:"is_featured"`
	IsActive         *bool                 `json:"is_active"`
	Images           []repository.NewImage `json:"images"`
}

// Update handles PUT /v1/products/:id (admin only). Supplied fields are
// merged over the stored row; a supplied images array replaces the image set
// wholesale.
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req updateProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Price != nil && *req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must not be negative"})
	}
	categoryID, err := optionalID(req.CategoryID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
	}

	upd := repository.ProductUpdate{
		Name:             trimmed(req.Name),
		Slug:             trimmed(req.Slug),
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Price:            req.Price,
		CompareAtPrice:   req.CompareAtPrice,
		StockQuantity:    req.StockQuantity,
		CategoryID:       categoryID,
		IsFeatured:       req.IsFeatured,
		IsActive:         req.IsActive,
		Images:           req.Images,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	updated, err := h.Store.Update(ctx, id, upd)
	if err != nil {
		return repoError(c, err, "product not found", "slug already exists")
	}
	h.publish(c, "updated", updated.ID, updated.Slug)
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/products/:id (admin only). Dependent images are
// removed with the product.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.Delete(ctx, id); err != nil {
		return repoError(c, err, "product not found", "")
	}
	h.publish(c, "deleted", id, "")
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted"})
}

func (h *ProductHandler) publish(c echo.Context, action string, id uint64, slug string) {
	if h.Events == nil {
		return
	}
	actor, _ := callerID(c)
	ev := queue.CatalogEvent{
		Entity:     "product",
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

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
