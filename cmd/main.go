package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-tracker/internal/config"
	"order-tracker/internal/handler"
	"order-tracker/internal/logger"
	"order-tracker/internal/reconcile"
	"order-tracker/internal/repository"
	"order-tracker/internal/session"
	"order-tracker/internal/worker"
	"order-tracker/pkg/metrics"
	"order-tracker/pkg/monitor"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "path to the configuration file")
	version    = "v1.0.0"
)

func main() {
	flag.Parse()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		fmt.Printf("load config failed: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLoggerWithOptions(cfg.App.LogLevel, cfg.IsDevelopment())
	if err != nil {
		fmt.Printf("init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("order tracker starting",
		zap.String("app_name", cfg.App.Name),
		zap.String("version", version),
		zap.String("environment", cfg.App.Environment),
		zap.String("log_level", cfg.App.LogLevel),
	)

	database, err := repository.NewDatabase(&cfg.Database, log)
	if err != nil {
		log.Fatal("init database failed", zap.Error(err))
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddress(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer redisClient.Close()

	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	log.Info("redis connected", zap.String("address", cfg.Redis.GetAddress()))

	st := repository.NewStore(database.GetDB(), log)
	reconciler := reconcile.NewReconciler(st, cfg.Poll.GetHealTimeout(), log)
	registry := session.NewRegistry(redisClient, cfg.Session.GetTTL(), log)

	manager := worker.NewManager(
		st,
		reconciler,
		registry,
		registry,
		cfg.Poll.GetInterval(),
		cfg.Session.GetRefreshInterval(),
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go manager.Start(ctx)

	systemCollector := monitor.NewSystemCollector(log)
	go systemCollector.Start(ctx)

	healthChecker := monitor.NewHealthChecker(database.GetDB(), redisClient, log)

	// View API for the presentation layer.
	e := echo.New()
	e.HideBanner = true
	viewHandler := handler.NewViewHandler(manager, st, reconciler, log)
	viewHandler.RegisterRoutes(e)
	go func() {
		log.Info("view API listening", zap.String("address", cfg.HTTP.GetAddress()))
		if err := e.Start(cfg.HTTP.GetAddress()); err != nil && err != http.ErrServerClosed {
			log.Error("view API server failed", zap.Error(err))
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.Metrics.GetAddress(),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("metrics listening",
			zap.String("address", metricsServer.Addr),
			zap.String("path", cfg.Metrics.Path))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	startTime := time.Now()
	healthMux := http.NewServeMux()
	healthMux.HandleFunc(cfg.Health.Path, healthChecker.HandleHealth(startTime))
	healthMux.HandleFunc("/liveness", healthChecker.HandleLiveness())
	healthMux.HandleFunc("/readiness", healthChecker.HandleReadiness(startTime))

	healthServer := &http.Server{
		Addr:              cfg.Health.GetAddress(),
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("health listening", zap.String("address", healthServer.Addr))
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("health server failed", zap.Error(err))
		}
	}()

	metrics.UpdateSessionWorkerTotal(manager.WorkerCount())

	log.Info("all components started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		log.Info("context cancelled")

	case sig := <-sigChan:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := gracefulShutdown(shutdownCtx, log, manager, systemCollector, e, metricsServer, healthServer, database, redisClient); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
			os.Exit(1)
		}

		log.Info("service stopped cleanly")
	}
}

// gracefulShutdown stops the workers first so no heal write races the
// connection teardown, then closes the listeners and connections.
func gracefulShutdown(
	ctx context.Context,
	log *zap.Logger,
	manager *worker.Manager,
	systemCollector *monitor.SystemCollector,
	e *echo.Echo,
	metricsServer *http.Server,
	healthServer *http.Server,
	database *repository.Database,
	redisClient *redis.Client,
) error {
	manager.Stop()
	log.Info("worker manager stopped")

	systemCollector.Stop()
	log.Info("system collector stopped")

	if err := e.Shutdown(ctx); err != nil {
		log.Error("view API shutdown failed", zap.Error(err))
	}

	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Error("metrics shutdown failed", zap.Error(err))
	}

	if err := healthServer.Shutdown(ctx); err != nil {
		log.Error("health shutdown failed", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		log.Error("redis close failed", zap.Error(err))
	}

	if err := database.Close(); err != nil {
		log.Error("database close failed", zap.Error(err))
	}

	log.Info("all components shut down")
	return nil
}
