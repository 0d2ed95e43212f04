package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/velstore/storefront-api/internal/config"
	"github.com/velstore/storefront-api/internal/handler"
	"github.com/velstore/storefront-api/internal/middleware"
)

// Handlers groups every handler the router wires up.
type Handlers struct {
	Auth       *handler.AuthHandler
	Products   *handler.ProductHandler
	Categories *handler.CategoryHandler
	Users      *handler.UserHandler
	Wishlists  *handler.WishlistHandler
	Settings   *handler.SettingHandler
}

// Setup configures the Echo instance: error envelope, recovery, CORS, rate
// limiting, and every route. All API routes live under /v1; the health check
// stays unprefixed and outside the rate-limited group.
func Setup(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler(cfg)

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(corsConfig(cfg)))

	e.GET("/health", handler.Health)

	v1 := e.Group("/v1")
	v1.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Auth
	authg := v1.Group("/auth")
	authg.POST("/signup", h.Auth.Signup)
	authg.POST("/login", h.Auth.Login)
	authg.POST("/logout", h.Auth.Logout)
	authg.GET("/me", h.Auth.Me, middleware.RequireAuth(cfg.JWTSecret))

	// Catalog reads: public, with staff scope widening via OptionalAuth.
	opt := middleware.OptionalAuth(cfg.JWTSecret)
	v1.GET("/products", h.Products.List, opt)
	v1.GET("/products/slug/:slug", h.Products.GetBySlug, opt)
	v1.GET("/products/:id", h.Products.Get, opt)
	v1.GET("/categories", h.Categories.List, opt)
	// Category detail is identity-independent, so it can be cached.
	v1.GET("/categories/:id", h.Categories.Get, cache)

	// Catalog mutations: admin only.
	admin := []echo.MiddlewareFunc{middleware.RequireAuth(cfg.JWTSecret), middleware.RequireAdmin()}
	v1.POST("/products", h.Products.Create, admin...)
	v1.PUT("/products/:id", h.Products.Update, admin...)
	v1.DELETE("/products/:id", h.Products.Delete, admin...)
	v1.POST("/categories", h.Categories.Create, admin...)
	v1.PUT("/categories/:id", h.Categories.Update, admin...)
	v1.DELETE("/categories/:id", h.Categories.Delete, admin...)

	// User management: admin only.
	v1.GET("/users", h.Users.List, admin...)
	v1.GET("/users/:id", h.Users.Get, admin...)
	v1.PUT("/users/:id", h.Users.Update, admin...)
	v1.DELETE("/users/:id", h.Users.Delete, admin...)

	// Wishlist: any authenticated caller, always self-scoped.
	reqAuth := middleware.RequireAuth(cfg.JWTSecret)
	v1.GET("/wishlists", h.Wishlists.List, reqAuth)
	v1.POST("/wishlists", h.Wishlists.Add, reqAuth)
	v1.DELETE("/wishlists/:product_id", h.Wishlists.Remove, reqAuth)

	// Settings: public reads (cached), admin bulk update.
	v1.GET("/settings", h.Settings.All, cache)
	v1.GET("/settings/:key", h.Settings.Get, cache)
	v1.PUT("/settings", h.Settings.BulkUpdate, admin...)
}

// corsConfig allows the configured origins, or any origin when none are
// configured (development).
func corsConfig(cfg config.Config) echomw.CORSConfig {
	c := echomw.DefaultCORSConfig
	if len(cfg.CORSOrigins) > 0 {
		c.AllowOrigins = cfg.CORSOrigins
	}
	c.AllowCredentials = len(cfg.CORSOrigins) > 0
	return c
}

// errorHandler guarantees that every failure, including unknown routes and
// recovered panics, is rendered as a JSON error envelope rather than a raw
// stack trace. Internal error detail is only exposed outside production.
func errorHandler(cfg config.Config) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := "internal server error"
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(status)
			}
			if status == http.StatusNotFound {
				msg = "route not found"
			}
		} else if !cfg.IsProd() {
			msg = err.Error()
		}
		_ = c.JSON(status, echo.Map{"error": msg})
	}
}
