package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/delatte-backend/api/controllers"
	"github.com/angelmondragon/delatte-backend/api/middleware"
	"github.com/angelmondragon/delatte-backend/internal/admin"
	"github.com/angelmondragon/delatte-backend/internal/cafes"
	"github.com/angelmondragon/delatte-backend/internal/categories"
	"github.com/angelmondragon/delatte-backend/internal/reports"
	"github.com/angelmondragon/delatte-backend/internal/reviews"
	"github.com/angelmondragon/delatte-backend/internal/users"
	"github.com/angelmondragon/delatte-backend/pkg/config"
	"github.com/angelmondragon/delatte-backend/pkg/db"
	"github.com/angelmondragon/delatte-backend/pkg/enums"
	"github.com/angelmondragon/delatte-backend/pkg/logger"
	"github.com/angelmondragon/delatte-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/delatte-backend/pkg/redis"
)

type redisStore interface {
	pkgredis.IdempotencyStore
	Ping(ctx context.Context) error
}

// Services groups the domain services mounted by the router.
type Services struct {
	Users      users.Service
	Cafes      cafes.Service
	Reviews    reviews.Service
	Categories categories.Service
	Reports    reports.Service
	Admin      admin.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisStore,
	verifier middleware.TokenVerifier,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	idempotent := middleware.Idempotency(redisClient, logg)
	authenticated := middleware.Auth(verifier, logg)
	requireRole := func(roles ...enums.Role) func(http.Handler) http.Handler {
		return middleware.RequireRole(svc.Users, logg, roles...)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// public catalogue
		r.Get("/cafes", controllers.CafeSearch(svc.Cafes, cfg.Search.DefaultLimit, logg))
		r.Get("/cafes/{cafeId}", controllers.CafeDetail(svc.Cafes, logg))
		r.Get("/reviews", controllers.ReviewList(svc.Reviews, logg))
		r.Get("/categories", controllers.CategoryList(svc.Categories, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Post("/auth/clients/sync", controllers.AuthSyncClient(svc.Users, logg))
			r.Post("/auth/managers/sync", controllers.AuthSyncManager(svc.Users, logg))
			r.Get("/users/role", controllers.UserRole(svc.Users, logg))

			r.With(requireRole(enums.RoleClient, enums.RoleManager), idempotent).
				Post("/categories/suggest", controllers.CategorySuggest(svc.Categories, logg))

			r.Group(func(r chi.Router) {
				r.Use(requireRole(enums.RoleClient))
				r.With(idempotent).Post("/reviews", controllers.ReviewCreate(svc.Reviews, logg))
				r.Route("/clients/me", func(r chi.Router) {
					r.Get("/", controllers.ClientProfile(svc.Users, logg))
					r.Put("/", controllers.ClientUpdate(svc.Users, logg))
					r.Delete("/", controllers.ClientDelete(svc.Users, logg))
					r.Put("/preferences", controllers.ClientPreferences(svc.Users, logg))
					r.Put("/social-links", controllers.ClientSocialLinks(svc.Users, logg))
					r.Get("/favorites", controllers.ClientFavorites(svc.Users, logg))
					r.Post("/favorites/{cafeId}", controllers.ClientFavoriteAdd(svc.Users, logg))
					r.Delete("/favorites/{cafeId}", controllers.ClientFavoriteRemove(svc.Users, logg))
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(requireRole(enums.RoleManager))
				r.Route("/managers/me", func(r chi.Router) {
					r.Get("/", controllers.ManagerProfile(svc.Users, logg))
					r.Patch("/", controllers.ManagerUpdate(svc.Users, logg))
					r.Get("/cafe", controllers.ManagerCafeGet(svc.Cafes, logg))
					r.With(idempotent).Post("/cafe", controllers.ManagerCafeRegister(svc.Cafes, logg))
					r.Put("/cafe", controllers.ManagerCafeUpdate(svc.Cafes, logg))
					r.Patch("/cafe/active", controllers.ManagerCafeToggleActive(svc.Cafes, logg))
					r.Patch("/cafe/schedule", controllers.ManagerCafeSchedule(svc.Cafes, logg))
					r.Get("/stats", controllers.ManagerCafeStats(svc.Cafes, logg))
					r.With(idempotent).Post("/reports", controllers.ManagerReportReview(svc.Reports, logg))
				})
				r.Route("/cafes/{cafeId}/menu", func(r chi.Router) {
					r.With(idempotent).Post("/", controllers.MenuAddItems(svc.Cafes, logg))
					r.Patch("/{itemId}", controllers.MenuUpdateItem(svc.Cafes, logg))
					r.Delete("/{itemId}", controllers.MenuDeleteItem(svc.Cafes, logg))
				})
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(authenticated)
		r.Use(requireRole(enums.RoleAdmin))

		r.Get("/stats", controllers.AdminStats(svc.Admin, logg))

		r.Get("/users", controllers.AdminUserList(svc.Users, logg))
		r.Patch("/users/{userId}/active", controllers.AdminUserSetActive(svc.Users, logg))
		r.Delete("/users/{userId}", controllers.AdminUserDelete(svc.Users, logg))

		r.Patch("/cafes/{cafeId}/active", controllers.AdminCafeSetActive(svc.Cafes, logg))
		r.Delete("/cafes/{cafeId}", controllers.AdminCafeDelete(svc.Cafes, logg))

		r.Delete("/reviews/{reviewId}", controllers.AdminReviewDelete(svc.Reviews, logg))

		r.Get("/review-reports", controllers.AdminReportList(svc.Reports, logg))
		r.Patch("/review-reports/{reportId}", controllers.AdminReportSetStatus(svc.Reports, logg))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/suggested", controllers.AdminCategorySuggested(svc.Categories, logg))
			r.Post("/", controllers.AdminCategoryCreate(svc.Categories, logg))
			r.Patch("/{categoryId}", controllers.AdminCategoryUpdate(svc.Categories, logg))
			r.Post("/{categoryId}/approve", controllers.AdminCategoryApprove(svc.Categories, logg))
			r.Delete("/{categoryId}", controllers.AdminCategoryDelete(svc.Categories, logg))
		})
	})

	return r
}
