package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/delatte-backend/api/routes"
	"github.com/angelmondragon/delatte-backend/internal/admin"
	"github.com/angelmondragon/delatte-backend/internal/cafes"
	"github.com/angelmondragon/delatte-backend/internal/categories"
	"github.com/angelmondragon/delatte-backend/internal/reports"
	"github.com/angelmondragon/delatte-backend/internal/reviews"
	"github.com/angelmondragon/delatte-backend/internal/users"
	"github.com/angelmondragon/delatte-backend/pkg/auth"
	"github.com/angelmondragon/delatte-backend/pkg/config"
	"github.com/angelmondragon/delatte-backend/pkg/db"
	"github.com/angelmondragon/delatte-backend/pkg/logger"
	"github.com/angelmondragon/delatte-backend/pkg/metrics"
	"github.com/angelmondragon/delatte-backend/pkg/migrate"
	"github.com/angelmondragon/delatte-backend/pkg/redis"
	"github.com/angelmondragon/delatte-backend/pkg/schedule"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	verifier, err := auth.NewVerifier(auth.ConfigFromIdentity(cfg.Identity))
	if err != nil {
		logg.Error(ctx, "failed to create token verifier", err)
		os.Exit(1)
	}
	if err := verifier.Warm(ctx); err != nil {
		// keys are fetched again on the first request
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "jwks prefetch failed")
	}

	loc, err := cfg.Search.Location()
	if err != nil {
		logg.Error(ctx, "failed to load schedule timezone", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	domainMetrics := metrics.NewDomainMetrics(registry)

	svc, err := buildServices(dbClient, cafes.Options{
		ReviewPreview: cfg.Search.ReviewPreview,
		Clock:         schedule.Clock{Location: loc},
	}, domainMetrics)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, verifier, httpMetrics, registry, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
	logg.Info(ctx, "api server stopped")
}

func buildServices(dbClient *db.Client, opts cafes.Options, m *metrics.DomainMetrics) (routes.Services, error) {
	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	cafeRepo := cafes.NewRepository(conn)

	userSvc, err := users.NewService(userRepo)
	if err != nil {
		return routes.Services{}, err
	}
	categorySvc, err := categories.NewService(categories.NewRepository(conn), m)
	if err != nil {
		return routes.Services{}, err
	}
	reviewSvc, err := reviews.NewService(reviews.NewRepository(conn), categorySvc, cafeRepo, userRepo, m)
	if err != nil {
		return routes.Services{}, err
	}
	cafeSvc, err := cafes.NewService(cafeRepo, categorySvc, reviewSvc, userRepo, opts, m)
	if err != nil {
		return routes.Services{}, err
	}
	reportSvc, err := reports.NewService(reports.NewRepository(conn), userRepo)
	if err != nil {
		return routes.Services{}, err
	}
	adminSvc, err := admin.NewService(admin.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Users:      userSvc,
		Cafes:      cafeSvc,
		Reviews:    reviewSvc,
		Categories: categorySvc,
		Reports:    reportSvc,
		Admin:      adminSvc,
	}, nil
}
