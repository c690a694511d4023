package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/iliyamo/ev-service-portal/internal/config"
	"github.com/iliyamo/ev-service-portal/internal/database"
	"github.com/iliyamo/ev-service-portal/internal/handler"
	"github.com/iliyamo/ev-service-portal/internal/legacy"
	"github.com/iliyamo/ev-service-portal/internal/metrics"
	"github.com/iliyamo/ev-service-portal/internal/middleware"
	"github.com/iliyamo/ev-service-portal/internal/queue"
	"github.com/iliyamo/ev-service-portal/internal/repository"
	"github.com/iliyamo/ev-service-portal/internal/router"
	"github.com/iliyamo/ev-service-portal/internal/service"
	"github.com/iliyamo/ev-service-portal/internal/storage"
	"github.com/iliyamo/ev-service-portal/internal/telemetry"
)

const serviceName = "ev-service-portal"

func main() {
	cfg := config.Load() // Load environment config

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(serviceName, config.LoadTelemetryConfig())

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	if cfg.MigrateOnStart {
		mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := database.Migrate(mctx, db)
		cancel()
		if err != nil {
			log.Fatalf("db: migrate: %v", err)
		}
	}

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	if rdb != nil {
		defer rdb.Close()
	}

	rec, err := metrics.New()
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	var events service.Publisher = queue.Discard{}
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.BrokerURL)
		if cfg.EventLogPath != "" {
			consumer := queue.NewConsumer(cfg.BrokerURL)
			consumer.LogPath = cfg.EventLogPath
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("rabbitmq: consumer stopped: %v", err)
				}
			}()
		}
	}

	// repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	tickets := repository.NewTicketRepo(db)
	walkins := repository.NewWalkinRepo(db)
	bikes := repository.NewBikeRepo(db)
	parts := repository.NewPartRepo(db)
	stations := repository.NewStationRepo(db)
	inventory := repository.NewInventoryRepo(db)

	// services
	snapshots := &service.Loader{Tickets: tickets, Walkins: walkins, Stations: stations}
	resolver := &service.PartResolver{Bikes: bikes, Parts: parts, Metrics: rec}
	workflows := &service.Workflows{
		Tickets:   tickets,
		Walkins:   walkins,
		Bikes:     bikes,
		Engineers: stations,
		Events:    events,
		Metrics:   rec,
	}
	intake := &service.Intake{
		Tickets:       tickets,
		Bikes:         bikes,
		Images:        storage.NewDisk(cfg.StorageDir),
		Events:        events,
		Metrics:       rec,
		MaxImageWidth: cfg.ImageMaxWidth,
	}
	stock := &service.InventoryEditor{Store: inventory, Metrics: rec}

	// handlers
	authH := handler.NewAuthHandler(cfg, users, tokens, stations)
	stationH := &handler.StationHandler{
		Snapshots: snapshots,
		Tickets:   tickets,
		Walkins:   walkins,
		Engineers: stations,
		Parts:     resolver,
		Workflows: workflows,
	}
	managerH := &handler.ManagerHandler{
		Snapshots: snapshots,
		Walkins:   walkins,
		Catalog:   parts,
		Inventory: inventory,
		Stock:     stock,
		Legacy:    legacy.NewClient(cfg.LegacyIntakeURL),
	}
	intakeH := handler.NewIntakeHandler(intake, cfg.MaxUploadBytes)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())

	guard := router.Guard{
		JWTSecret: cfg.JWTSecret,
		Users:     users,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, "api"),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	}
	router.RegisterRoutes(e, db, rec.Handler())
	router.RegisterAuth(e, authH, guard)
	router.RegisterIntake(e, intakeH, middleware.NewTokenBucket(config.LoadIntakeRateLimitConfig(), rdb, "intake"))
	router.RegisterStation(e, stationH, guard)
	router.RegisterManager(e, managerH, authH, guard)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(e, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (env=%s)", srv.Addr, cfg.Env) // Print startup info
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if err := shutdownTracing(sctx); err != nil {
		log.Printf("telemetry: shutdown: %v", err)
	}
}
