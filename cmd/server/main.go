package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/velstore/storefront-api/internal/config"
	"github.com/velstore/storefront-api/internal/database"
	"github.com/velstore/storefront-api/internal/handler"
	"github.com/velstore/storefront-api/internal/middleware"
	"github.com/velstore/storefront-api/internal/queue"
	"github.com/velstore/storefront-api/internal/repository"
	"github.com/velstore/storefront-api/internal/router"
	queue_publisher "github.com/velstore/storefront-api/internal/service"
)

func main() {
	// Load .env if present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()
	cacheCfg := config.LoadCacheConfig()

	users := repository.NewUserRepo(db)
	categories := repository.NewCategoryRepo(db)
	products := repository.NewProductRepo(db)
	wishlists := repository.NewWishlistRepo(db, products)
	settings := repository.NewSettingRepo(db)

	events := &queue_publisher.CatalogPublisher{}
	invalidator := middleware.RedisCacheInvalidator{RDB: rdb, Prefix: cacheCfg.Prefix}

	h := router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, users),
		Products:   handler.NewProductHandler(products, events),
		Categories: handler.NewCategoryHandler(categories, events),
		Users:      handler.NewUserHandler(users),
		Wishlists:  handler.NewWishlistHandler(wishlists),
		Settings:   handler.NewSettingHandler(settings, invalidator),
	}

	// Consume catalog events in the background: audit log plus cache purge.
	go queue.StartCatalogConsumer(rdb, cacheCfg.Prefix)

	e := echo.New()
	router.Setup(e, cfg, h, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
