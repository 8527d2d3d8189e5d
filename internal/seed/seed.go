// Package seed bootstraps a fresh deployment: it creates the superuser,
// grants it the admin role, purges expired revocation entries and optionally
// loads a small demo catalog. Everything runs in one transaction so a failed
// run leaves the database untouched.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/backoffice/internal/auth"
	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/internal/repository/postgres"
	"github.com/utafrali/backoffice/internal/service"
	"github.com/utafrali/backoffice/pkg/database"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
	"github.com/utafrali/backoffice/pkg/slug"
)

// AdminConfig describes the bootstrap superuser. It is read from SEED_ADMIN_*.
type AdminConfig struct {
	Username  string `env:"USERNAME" envDefault:"admin"`
	Email     string `env:"EMAIL" envDefault:"admin@example.com"`
	Password  string `env:"PASSWORD,required"`
	FirstName string `env:"FIRST_NAME"`
	LastName  string `env:"LAST_NAME"`
}

// Options controls a seed run.
type Options struct {
	Admin       AdminConfig
	DemoCatalog bool
}

// Result summarises what a run changed.
type Result struct {
	AdminCreated   bool
	PurgedTokens   int64
	CategoriesMade int
	ProductsMade   int
}

// Seeder applies the bootstrap data.
type Seeder struct {
	db     database.Beginner
	hasher *auth.PasswordHasher
	logger *slog.Logger
	now    func() time.Time
}

// New creates a seeder over db.
func New(db database.Beginner, hasher *auth.PasswordHasher, logger *slog.Logger) *Seeder {
	return &Seeder{
		db:     db,
		hasher: hasher,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run seeds the database. It is safe to run repeatedly: an existing admin is
// reused and the demo catalog is only loaded into an empty catalog.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{}

	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		users := postgres.NewUserRepository(tx)
		roles := postgres.NewRoleRepository(tx)

		admin, created, err := s.ensureAdmin(ctx, users, opts.Admin)
		if err != nil {
			return err
		}
		res.AdminCreated = created

		role, err := roles.GetByName(ctx, domain.AdminRole)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("role %q is missing, run migrations first", domain.AdminRole)
			}
			return fmt.Errorf("load admin role: %w", err)
		}
		if err := roles.AssignToUser(ctx, admin.ID, role.ID); err != nil {
			return fmt.Errorf("grant admin role: %w", err)
		}

		purged, err := postgres.NewRevocationRepository(tx).PurgeExpired(ctx, s.now())
		if err != nil {
			return err
		}
		res.PurgedTokens = purged

		if opts.DemoCatalog {
			return s.loadCatalog(ctx, tx, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "seed complete",
		slog.Bool("admin_created", res.AdminCreated),
		slog.Int64("purged_tokens", res.PurgedTokens),
		slog.Int("categories", res.CategoriesMade),
		slog.Int("products", res.ProductsMade),
	)
	return res, nil
}

func (s *Seeder) ensureAdmin(ctx context.Context, users *postgres.UserRepository, cfg AdminConfig) (*domain.User, bool, error) {
	existing, err := users.GetByUsername(ctx, cfg.Username)
	if err == nil {
		s.logger.InfoContext(ctx, "admin user already exists", slog.String("username", cfg.Username))
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, fmt.Errorf("look up admin: %w", err)
	}

	store := service.NewCredentialStore(users, s.hasher)
	user, err := store.Create(ctx, service.CreateUserInput{
		Username:    cfg.Username,
		Email:       cfg.Email,
		FirstName:   optional(cfg.FirstName),
		LastName:    optional(cfg.LastName),
		Password:    cfg.Password,
		IsSuperuser: true,
	})
	if err != nil {
		return nil, false, err
	}
	s.logger.InfoContext(ctx, "admin user created", slog.String("user_id", user.ID))
	return user, true, nil
}

func (s *Seeder) loadCatalog(ctx context.Context, tx pgx.Tx, res *Result) error {
	categories := postgres.NewCategoryRepository(tx)
	products := postgres.NewProductRepository(tx)

	_, total, err := categories.List(ctx, 1, 0)
	if err != nil {
		return err
	}
	if total > 0 {
		s.logger.InfoContext(ctx, "catalog not empty, skipping demo data", slog.Int("categories", total))
		return nil
	}

	now := s.now()
	ids := make(map[string]string, len(demoCategories))
	for _, def := range demoCategories {
		c := &domain.ProductCategory{
			ID:          uuid.NewString(),
			Name:        def.name,
			Slug:        slug.Generate(def.name),
			Description: optional(def.description),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := categories.Create(ctx, c); err != nil {
			return fmt.Errorf("seed category %q: %w", def.name, err)
		}
		ids[c.Slug] = c.ID
		res.CategoriesMade++
	}

	for _, def := range demoProducts {
		categoryID, ok := ids[def.categorySlug]
		if !ok {
			return fmt.Errorf("seed product %q: unknown category %q", def.name, def.categorySlug)
		}
		p := &domain.Product{
			ID:          uuid.NewString(),
			CategoryID:  categoryID,
			Name:        def.name,
			Slug:        slug.Generate(def.name),
			Description: optional(def.description),
			Price:       def.price,
			Currency:    "USD",
			Stock:       def.stock,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := products.Create(ctx, p); err != nil {
			return fmt.Errorf("seed product %q: %w", def.name, err)
		}
		res.ProductsMade++
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
