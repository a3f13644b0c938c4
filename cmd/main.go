/**
 * @description
 * This is the main entry point for the collections-service. The service runs
 * the collections escalation engine on a cron schedule and exposes a small
 * internal HTTP API for manual triggers, pause/resume hooks, and timeline
 * reads. It initializes configuration, the database pool, Redis (run lock),
 * RabbitMQ (analytics), and the outbound channel clients, then starts the
 * scheduler and the HTTP server.
 */
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/recoup/collections-service/internal/api"
	"github.com/recoup/collections-service/internal/app"
	"github.com/recoup/collections-service/internal/config"
	"github.com/recoup/collections-service/internal/store"
	"github.com/recoup/collections-service/pkg/emailclient"
	"github.com/recoup/collections-service/pkg/rabbitmq"
	"github.com/recoup/collections-service/pkg/smsclient"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Establish database connection with connection pool configuration.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 20
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Redis backs the distributed run lock.
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("unable to parse redis URL", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// RabbitMQ carries fire-and-forget analytics events. The service still
	// runs without it; the tracker degrades to logging.
	var producer rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("failed to connect to RabbitMQ, analytics disabled", "error", err)
		} else {
			defer eventProducer.Close()
			producer = eventProducer
			logger.Info("RabbitMQ producer connected")
		}
	}

	// Initialize dependencies.
	repository := store.NewPostgresRepository(dbpool)
	emailClient := emailclient.NewClient(cfg.EmailProviderURL, cfg.EmailAPIKey, cfg.EmailFromAddress)
	smsClient := smsclient.NewClient(cfg.SMSProviderURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFromNumber)
	tracker := app.NewEventTracker(producer, logger)
	callQueue := app.NewRabbitCallQueue(producer)
	runLock := app.NewRedisRunLock(redisClient, cfg.RunLockTTL)

	engine := app.NewEngine(repository, emailClient, smsClient, callQueue, tracker, runLock, logger, *cfg)
	scheduler := app.NewScheduler(engine, logger, *cfg)

	// Start the cron scheduler in the background.
	scheduler.Start()
	logger.Info("scheduler started")

	// Start the HTTP server.
	handlers := api.NewCollectionsHandlers(engine, repository, logger)
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: api.CollectionsRoutes(handlers, cfg.InternalAPIKey),
	}

	go func() {
		logger.Info("server starting", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("could not start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal to gracefully shut down.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	stopCtx := scheduler.Stop()
	<-stopCtx.Done() // Wait for any in-flight run to finish.
	logger.Info("service stopped gracefully")
}
