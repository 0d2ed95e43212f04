package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SettingStore is the slice of the settings repository the settings
// endpoints need.
type SettingStore interface {
	All(ctx context.Context) (map[string]json.RawMessage, error)
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Upsert(ctx context.Context, values map[string]json.RawMessage) error
}

// CacheInvalidator drops cached responses after a write. Settings reads are
// served from the response cache, so a bulk update must purge it or clients
// would see the old values until the TTL runs out.
type CacheInvalidator interface {
	Purge(ctx context.Context)
}

// SettingHandler bundles dependencies for site settings endpoints. Values
// are opaque JSON; the API never interprets them.
type SettingHandler struct {
	Store SettingStore
	Cache CacheInvalidator
}

func NewSettingHandler(store SettingStore, cache CacheInvalidator) *SettingHandler {
	return &SettingHandler{Store: store, Cache: cache}
}

// All handles GET /v1/settings: every key/value pair flattened into one
// object.
func (h *SettingHandler) All(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	settings, err := h.Store.All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, settings)
}

// Get handles GET /v1/settings/:key.
func (h *SettingHandler) Get(c echo.Context) error {
	key := c.Param("key")

	ctx, cancel := reqCtx(c)
	defer cancel()

	value, err := h.Store.Get(ctx, key)
	if err != nil {
		return repoError(c, err, "setting not found", "")
	}
	return c.JSON(http.StatusOK, map[string]json.RawMessage{key: value})
}

// BulkUpdate handles PUT /v1/settings (admin only). Every supplied key is
// upserted; the response is the full settings map after the write.
func (h *SettingHandler) BulkUpdate(c echo.Context) error {
	var values map[string]json.RawMessage
	if err := c.Bind(&values); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(values) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no settings supplied"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.Upsert(ctx, values); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if h.Cache != nil {
		h.Cache.Purge(ctx)
	}
	settings, err := h.Store.All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, settings)
}
