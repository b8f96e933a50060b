package main // Entry point package

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cafe-table-reservation/internal/booking"
	"github.com/iliyamo/cafe-table-reservation/internal/config"
	"github.com/iliyamo/cafe-table-reservation/internal/database"
	"github.com/iliyamo/cafe-table-reservation/internal/handler"
	"github.com/iliyamo/cafe-table-reservation/internal/middleware"
	"github.com/iliyamo/cafe-table-reservation/internal/policy"
	"github.com/iliyamo/cafe-table-reservation/internal/queue"
	"github.com/iliyamo/cafe-table-reservation/internal/repository"
	"github.com/iliyamo/cafe-table-reservation/internal/router"
	queue_publisher "github.com/iliyamo/cafe-table-reservation/internal/service"
	"github.com/iliyamo/cafe-table-reservation/internal/sweeper"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	schedPolicy := config.LoadPolicy()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	reservationRepo := repository.NewReservationRepo(db)
	tableRepo := repository.NewTableRepo(db)

	checker := policy.New(schedPolicy)
	svc := booking.NewService(reservationRepo, tableRepo, checker, queue_publisher.New())

	// Redis is optional: a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	rateMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	e.Use(rateMW)
	router.RegisterRoutes(e)
	router.RegisterReservations(e, handler.NewReservationHandler(svc), cacheMW)
	router.RegisterTables(e, handler.NewTableHandler(tableRepo), cacheMW)
	router.RegisterStaff(e, handler.NewReservationHandler(svc), handler.NewTableHandler(tableRepo), cfg.JWTSecret)

	// Background workers: the auto-expiry sweeper and the event log consumer.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sw := sweeper.New(svc, schedPolicy.SweepInterval)
	go sw.Start(ctx)
	defer sw.Stop()

	go func() {
		if err := queue.StartEventConsumer(); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
