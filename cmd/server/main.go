package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oceanwatch/hazard-report-service/internal/adapter/httpapi"
	kafkaadapter "github.com/oceanwatch/hazard-report-service/internal/adapter/kafka"
	"github.com/oceanwatch/hazard-report-service/internal/adapter/memory"
	"github.com/oceanwatch/hazard-report-service/internal/adapter/mongostore"
	"github.com/oceanwatch/hazard-report-service/internal/adapter/redisboard"
	"github.com/oceanwatch/hazard-report-service/internal/config"
	"github.com/oceanwatch/hazard-report-service/internal/domain"
	"github.com/oceanwatch/hazard-report-service/internal/observability"
	"github.com/oceanwatch/hazard-report-service/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		reports  service.ReportStore
		profiles service.ProfileStore
	)
	switch cfg.StoreBackend {
	case "mongo":
		store, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Error("mongo connection failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := store.Close(context.Background()); err != nil {
				logger.Error("mongo close error", "error", err)
			}
		}()
		reports, profiles = store, store.Profiles()
		logger.Info("using mongo store", "database", cfg.MongoDB)
	default:
		store := memory.NewStore()
		reports, profiles = store, store.Profiles()
		logger.Info("using in-memory store")
	}

	var board service.Leaderboard
	if cfg.RedisAddr != "" {
		rb := redisboard.New(cfg.RedisAddr)
		if err := rb.Ping(ctx); err != nil {
			logger.Error("redis connection failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := rb.Close(); err != nil {
				logger.Error("redis close error", "error", err)
			}
		}()
		board = rb
		logger.Info("using redis leaderboard", "addr", cfg.RedisAddr)
	} else {
		board = memory.NewLeaderboard()
		logger.Info("using in-memory leaderboard")
	}

	var alerts service.AlertSink
	if len(cfg.KafkaBrokers) > 0 {
		pub := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger)
		defer func() {
			if err := pub.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		alerts = pub
		logger.Info("alert publishing enabled", "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("alert publishing disabled: no kafka brokers configured")
	}

	svc := service.New(
		reports,
		profiles,
		alerts,
		board,
		cfg.Guard(),
		domain.DefaultTransitions(),
		logger,
		metrics,
	)

	api := httpapi.NewAPI(svc, cfg.JWTSecret, logger)
	srv := httpapi.NewServer(cfg.HTTPAddr, api, svc, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	svc.Close()

	logger.Info("shutdown complete")
}
