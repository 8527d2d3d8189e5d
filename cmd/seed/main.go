// Command seed prepares a database for first use. It applies migrations,
// creates the superuser from SEED_ADMIN_* and, with SEED_DEMO_CATALOG=true,
// loads a handful of demo categories and products.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/utafrali/backoffice/internal/auth"
	"github.com/utafrali/backoffice/internal/config"
	"github.com/utafrali/backoffice/internal/seed"
	"github.com/utafrali/backoffice/migrations"
	pkgconfig "github.com/utafrali/backoffice/pkg/config"
	"github.com/utafrali/backoffice/pkg/database"
	"github.com/utafrali/backoffice/pkg/logger"
)

type seedConfig struct {
	Admin       seed.AdminConfig `envPrefix:"ADMIN_"`
	DemoCatalog bool             `env:"DEMO_CATALOG" envDefault:"false"`
	BcryptCost  int              `env:"BCRYPT_COST" envDefault:"0"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("backoffice-seed", cfg.LogLevel)

	var sc seedConfig
	if err := pkgconfig.LoadPrefixed(&sc, "SEED_"); err != nil {
		log.Error("failed to load seed config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 2*time.Minute)
	defer cancelTimeout()

	if err := run(ctx, cfg, sc, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, sc seedConfig, log *slog.Logger) error {
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return err
	}

	hasher, err := auth.NewPasswordHasher(sc.BcryptCost)
	if err != nil {
		return err
	}

	_, err = seed.New(pool, hasher, log).Run(ctx, seed.Options{
		Admin:       sc.Admin,
		DemoCatalog: sc.DemoCatalog,
	})
	return err
}
