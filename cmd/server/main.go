package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/fatora-app/fatora-server/internal/config"
	"github.com/fatora-app/fatora-server/internal/database"
	"github.com/fatora-app/fatora-server/internal/handler"
	"github.com/fatora-app/fatora-server/internal/middleware"
	"github.com/fatora-app/fatora-server/internal/queue"
	"github.com/fatora-app/fatora-server/internal/repository"
	"github.com/fatora-app/fatora-server/internal/router"
	queue_publisher "github.com/fatora-app/fatora-server/internal/service"
)

func main() {
	// Load .env from the usual places; a missing file is fine when the
	// environment is already populated (containers, CI).
	_ = godotenv.Overload(".env", "../.env", "../../.env")

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	products := repository.NewProductRepo(db)

	// Redis is optional: a nil client turns the lookup cache and the
	// rate limiter into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; lookup cache and rate limiting disabled")
	}
	lookupCache := middleware.NewLookupCache(config.LoadCacheConfig(), rdb)
	rateLimit := middleware.NewRateLimit(config.LoadRateLimitConfig(), rdb)

	// Background consumer logging catalog additions; reconnects forever.
	go func() {
		if err := queue.StartProductConsumer(); err != nil {
			log.Printf("product consumer stopped: %v", err)
		}
	}()

	authH := handler.NewAuthHandler(cfg, users, tokens)
	productH := handler.NewProductHandler(cfg, products)
	productH.Publish = queue_publisher.PublishProductCreated

	e := echo.New()
	e.Use(rateLimit)
	e.Static("/uploads", cfg.UploadDir)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, tokens)
	router.RegisterCatalog(e, productH, cfg.JWTSecret, tokens, lookupCache)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
