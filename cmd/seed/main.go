package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/delatte-backend/internal/categories"
	"github.com/angelmondragon/delatte-backend/internal/users"
	"github.com/angelmondragon/delatte-backend/pkg/config"
	"github.com/angelmondragon/delatte-backend/pkg/db"
	"github.com/angelmondragon/delatte-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	_ = godotenv.Load()

	adminSubject := flag.String("admin-subject", "", "identity provider subject of the admin to bootstrap")
	adminEmail := flag.String("admin-email", "", "email of the admin to bootstrap")
	adminName := flag.String("admin-name", "Administrador", "display name of the admin")
	skipCategories := flag.Bool("skip-categories", false, "do not seed the structural category catalogue")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	if !*skipCategories {
		categorySvc, err := categories.NewService(categories.NewRepository(dbClient.DB()), nil)
		requireResource(ctx, logg, "category service", err)

		result, err := categories.SeedCatalog(ctx, categorySvc)
		requireResource(ctx, logg, "category catalogue", err)
		logg.Info(logg.WithFields(ctx, map[string]any{
			"created": len(result.Created),
			"skipped": len(result.Skipped),
		}), "category catalogue seeded")
	}

	if strings.TrimSpace(*adminSubject) != "" {
		userSvc, err := users.NewService(users.NewRepository(dbClient.DB()))
		requireResource(ctx, logg, "user service", err)

		admin, created, err := userSvc.EnsureAdmin(ctx, *adminSubject, *adminEmail, *adminName)
		requireResource(ctx, logg, "admin bootstrap", err)
		logg.Info(logg.WithFields(ctx, map[string]any{
			"user_id": admin.ID.String(),
			"created": created,
		}), "admin account ready")
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
