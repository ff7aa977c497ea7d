package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devndesk/DevReady/internal/config"
	"github.com/devndesk/DevReady/internal/generator"
	"github.com/devndesk/DevReady/internal/handler"
	"github.com/devndesk/DevReady/internal/kafka"
	"github.com/devndesk/DevReady/internal/league"
	"github.com/devndesk/DevReady/internal/pool"
	"github.com/devndesk/DevReady/internal/postgres"
	"github.com/devndesk/DevReady/internal/progress"
	"github.com/devndesk/DevReady/internal/redis"
	"github.com/devndesk/DevReady/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize PostgreSQL
	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	repo, err := postgres.NewRepository(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to PostgreSQL")

	// Run database migrations
	if err := repo.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize the weekly leaderboard cache
	var weeklyCache *redis.WeeklyCache
	if cfg.Redis.Enabled {
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		weeklyCache, err = redis.NewWeeklyCache(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("failed to connect to Redis, continuing without cache", "error", err)
			weeklyCache = nil
		} else {
			defer weeklyCache.Close()
			logger.Info("connected to Redis")
		}
	}

	var rankingCache league.RankingCache
	var scoreCache progress.ScoreCache
	if weeklyCache != nil {
		rankingCache = weeklyCache
		scoreCache = weeklyCache
	}

	// Initialize services
	groqClient := generator.NewGroqClient(&cfg.Generator, logger)
	poolService := pool.NewService(repo, groqClient, &cfg.Pool, logger)
	leagueService := league.NewService(repo, rankingCache, &cfg.League, logger)
	progressService := progress.NewService(repo, leagueService, scoreCache, logger)

	// Initialize the season rotation worker
	seasonWorker := worker.NewSeasonWorker(leagueService, &cfg.Season, logger)
	if cfg.Season.Enabled {
		if err := seasonWorker.Start(ctx); err != nil {
			logger.Error("failed to start season worker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize Kafka consumer for high-volume answer ingestion
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, progressService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else {
			if err := kafkaConsumer.Start(); err != nil {
				logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
				kafkaConsumer = nil
			} else {
				logger.Info("Kafka consumer started")
			}
		}
	}

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(poolService, progressService, leagueService, repo, seasonWorker, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Stop season worker
	if cfg.Season.Enabled {
		if err := seasonWorker.Stop(); err != nil {
			logger.Error("failed to stop season worker", "error", err)
		}
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}
