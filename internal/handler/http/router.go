package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/backoffice/internal/service"
	"github.com/utafrali/backoffice/pkg/health"
	"github.com/utafrali/backoffice/pkg/middleware"
)

// Services bundles the application services the router exposes.
type Services struct {
	Auth       *service.AuthService
	Resolver   *service.Resolver
	Tasks      *service.TaskService
	Categories *service.CategoryService
	Products   *service.ProductService
	Customers  *service.CustomerService
}

// RouterConfig holds the transport-level settings of the router.
type RouterConfig struct {
	CORS                middleware.CORSConfig
	LoginRateLimitRPS   float64
	LoginRateLimitBurst int
	PprofAllowedCIDRs   []string
}

// NewRouter creates a chi router with all backoffice routes registered.
// HTTP collectors are registered on reg, which also backs /metrics.
func NewRouter(
	svc Services,
	healthHandler *health.Handler,
	reg *prometheus.Registry,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.NewHTTPMetrics(reg, "backoffice").Middleware)

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	if len(cfg.PprofAllowedCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	authHandler := NewAuthHandler(svc.Auth, svc.Resolver, logger)
	requireAuth := middleware.Auth(authenticator(svc.Auth))

	// Public auth endpoints
	r.Post("/users/", authHandler.Register)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.With(middleware.RateLimit(cfg.LoginRateLimitRPS, cfg.LoginRateLimitBurst, logger)).
			Post("/token", authHandler.Token)
		r.Post("/token/refresh", authHandler.Refresh)
	})

	// Session endpoints
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/logout", authHandler.Logout)
		r.Get("/users/me/", authHandler.Me)
		r.Get("/me/roles", authHandler.Roles)
		r.Get("/me/menu/{role_id}", authHandler.Menu)
	})

	taskHandler := NewTaskHandler(svc.Tasks, logger)
	categoryHandler := NewCategoryHandler(svc.Categories, logger)
	productHandler := NewProductHandler(svc.Products, logger)
	customerHandler := NewCustomerHandler(svc.Customers, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requireAuth)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Get("/{id}", taskHandler.Get)
			r.Patch("/{id}", taskHandler.Update)
			r.Delete("/{id}", taskHandler.Delete)
		})

		r.Route("/product-categories", func(r chi.Router) {
			r.Get("/", categoryHandler.List)
			r.Post("/", categoryHandler.Create)
			r.Get("/{id}", categoryHandler.Get)
			r.Patch("/{id}", categoryHandler.Update)
			r.Delete("/{id}", categoryHandler.Delete)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.Create)
			r.Get("/{id}", productHandler.Get)
			r.Patch("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", customerHandler.List)
			r.Post("/", customerHandler.Create)
			r.Get("/{id}", customerHandler.Get)
			r.Patch("/{id}", customerHandler.Update)
			r.Delete("/{id}", customerHandler.Delete)
		})
	})

	return r
}

// authenticator bridges the auth middleware to AuthService and stores the
// loaded user for handlers.
func authenticator(svc *service.AuthService) middleware.Authenticator {
	return func(ctx context.Context, token string) (context.Context, string, error) {
		user, err := svc.Authenticate(ctx, token)
		if err != nil {
			return ctx, "", err
		}
		return withCurrentUser(ctx, user), user.ID, nil
	}
}
