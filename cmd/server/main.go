package main

import (
    "log"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/thinknows/x-server/internal/auth"
    "github.com/thinknows/x-server/internal/config"
    "github.com/thinknows/x-server/internal/database"
    "github.com/thinknows/x-server/internal/handler"
    "github.com/thinknows/x-server/internal/middleware"
    "github.com/thinknows/x-server/internal/queue"
    "github.com/thinknows/x-server/internal/repository"
    "github.com/thinknows/x-server/internal/router"
    "github.com/thinknows/x-server/internal/service/queue_publisher"
)

func main() {
    // .env is optional; in containers the variables come from the runtime.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    rdb := config.NewRedisClient() // nil when Redis is unavailable; middleware degrades to passthrough

    users := repository.NewUserRepo(db)
    posts := repository.NewPostRepo(db)

    svc := auth.NewService(users, queue_publisher.Dispatcher{}, nil, auth.Config{
        JWTSecret:        cfg.JWTSecret,
        BcryptCost:       cfg.BcryptCost,
        AccessTTL:        cfg.AccessTTL,
        RefreshTTL:       cfg.RefreshTTL,
        RememberTTL:      cfg.RememberTTL,
        TwoFactorTTL:     cfg.TwoFactorTTL,
        LockoutThreshold: cfg.LockoutThreshold,
        LockoutDuration:  cfg.LockoutDuration,
    })

    // Deliver queued two-factor codes in the background.  The consumer
    // reconnects on its own; a hard failure only disables delivery.
    go func() {
        if err := queue.StartTwoFactorConsumer(); err != nil {
            log.Printf("queue consumer stopped: %v", err)
        }
    }()

    // Drop device sessions that have sat idle past the configured window.
    go func() {
        ticker := time.NewTicker(cfg.SessionPruneEvery)
        defer ticker.Stop()
        for range ticker.C {
            if n := svc.PruneSessions(cfg.SessionMaxIdle); n > 0 {
                log.Printf("pruned %d idle sessions", n)
            }
        }
    }()

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())

    rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    h := router.Handlers{
        Auth:      handler.NewAuthHandler(svc),
        Posts:     handler.NewPostHandler(posts),
        Profile:   handler.NewProfileHandler(),
        AppConfig: handler.NewAppConfigHandler(cfg),
        Logs:      handler.NewLogHandler(cfg),
        Admin:     handler.NewAdminHandler(users),
    }
    router.RegisterRoutes(e, h, cfg.JWTSecret, svc, rateLimit, cache)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
