package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
	"github.com/signalex/signalex-be/internal/api"
	"github.com/signalex/signalex-be/internal/config"
	"github.com/signalex/signalex-be/internal/database"
	"github.com/signalex/signalex-be/internal/logger"
	"github.com/signalex/signalex-be/internal/mailer"
	"github.com/signalex/signalex-be/internal/monitoring"
	"github.com/signalex/signalex-be/internal/notify"
	"github.com/signalex/signalex-be/internal/services"
	"github.com/signalex/signalex-be/internal/signals"
	"github.com/signalex/signalex-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Optional redis cache for the event feed
	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := cache.Ping(context.Background()).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, continuing without cache")
			cache = nil
		}
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up the signal registry and services
	registry := signals.NewRegistry()
	userService := services.NewUserService(db, registry)
	postService := services.NewPostService(db, registry)
	eventService := services.NewEventService(db, cache)

	// Pick the email backend
	var m mailer.Mailer
	switch cfg.EmailBackend {
	case config.EmailBackendSMTP:
		m = mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPUsername, cfg.SMTPPassword)
	default:
		m = mailer.ConsoleMailer{}
	}

	// Wire the lifecycle receivers: welcome email, deletion log, audit
	// trail, and the live websocket feed.
	notify.Register(registry, m, cfg.EmailFrom, eventService, hub)

	// Set up and run the event retention job
	retention, err := monitoring.NewRetention(eventService, cfg.EventPruneSpec, cfg.EventRetention)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up event retention job")
	}
	retention.Start()

	// Set up and run the background host monitor
	hostMonitor := monitoring.NewHostMonitor(eventService, hub, cfg.CPUAlertThreshold)
	go hostMonitor.Run()

	// Set up router
	router := api.NewRouter(hub, userService, postService, eventService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	hostMonitor.Stop()
	retention.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
