package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/delatte-backend/internal/cafes"
	"github.com/angelmondragon/delatte-backend/internal/cron"
	"github.com/angelmondragon/delatte-backend/internal/reports"
	"github.com/angelmondragon/delatte-backend/internal/reviews"
	"github.com/angelmondragon/delatte-backend/pkg/config"
	"github.com/angelmondragon/delatte-backend/pkg/db"
	"github.com/angelmondragon/delatte-backend/pkg/logger"
	"github.com/angelmondragon/delatte-backend/pkg/metrics"
	"github.com/angelmondragon/delatte-backend/pkg/redis"
)

const lockKeyFormat = "delatte:worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	domainMetrics := metrics.NewDomainMetrics(registry)

	aggregator, err := reviews.NewAggregator(reviews.NewRepository(dbClient.DB()), domainMetrics)
	requireResource(ctx, logg, "rating aggregator", err)
	ratingJob, err := cron.NewRatingReconcileJob(cron.RatingReconcileJobParams{
		Logger:     logg,
		Cafes:      cafes.NewRepository(dbClient.DB()),
		Aggregator: aggregator,
	})
	requireResource(ctx, logg, "rating reconcile job", err)
	retentionJob, err := cron.NewReportRetentionJob(cron.ReportRetentionJobParams{
		Logger:    logg,
		Reports:   reports.NewRepository(dbClient.DB()),
		Retention: cfg.Worker.ReportRetention,
	})
	requireResource(ctx, logg, "report retention job", err)

	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	lock, err := cron.NewRedisLock(redisClient, fmt.Sprintf(lockKeyFormat, env), cfg.Worker.LockTTL)
	requireResource(ctx, logg, "worker lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(ratingJob, retentionJob),
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(registry),
		Interval: cfg.Worker.Interval,
	})
	requireResource(ctx, logg, "worker service", err)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.Worker.MetricsPort,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()

	logg.Info(logg.WithField(ctx, "interval", cfg.Worker.Interval.String()), "starting maintenance worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "maintenance worker stopped unexpectedly", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	logg.Info(ctx, "maintenance worker shut down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
