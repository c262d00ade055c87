package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zycart/zycart-backend/api/controllers"
	ordercontrollers "github.com/zycart/zycart-backend/api/controllers/orders"
	"github.com/zycart/zycart-backend/api/middleware"
	"github.com/zycart/zycart-backend/internal/catalog"
	"github.com/zycart/zycart-backend/internal/orders"
	"github.com/zycart/zycart-backend/internal/reviews"
	"github.com/zycart/zycart-backend/pkg/auth"
	"github.com/zycart/zycart-backend/pkg/config"
	"github.com/zycart/zycart-backend/pkg/db"
	"github.com/zycart/zycart-backend/pkg/enums"
	"github.com/zycart/zycart-backend/pkg/logger"
	"github.com/zycart/zycart-backend/pkg/metrics"
	pkgredis "github.com/zycart/zycart-backend/pkg/redis"
)

type redisStore interface {
	pkgredis.Pinger
	pkgredis.IdempotencyStore
	pkgredis.RateLimiter
}

type categorySource interface {
	Get(ctx context.Context) ([]catalog.CategoryDTO, error)
}

type reviewCreator interface {
	Create(ctx context.Context, input reviews.CreateReviewInput) (*reviews.ReviewDTO, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisStore,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	categories categorySource,
	ordersSvc orders.Service,
	reviewsSvc reviewCreator,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
		httpMetrics.Middleware,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg,
			controllers.Dependency{Name: "db", Pinger: dbP},
			controllers.Dependency{Name: "redis", Pinger: redisClient},
		))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	critical := middleware.Idempotency(redisClient, middleware.CriticalIdempotencyTTL, logg)
	idempotent := middleware.Idempotency(redisClient, middleware.DefaultIdempotencyTTL, logg)
	placeLimit := middleware.RateLimit(middleware.PlaceOrderPolicy(cfg.RateLimit), redisClient, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", controllers.ListCategories(categories, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(auth.NewTokens(cfg.JWT), logg))

			r.Route("/orders", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleCustomer))
				r.With(critical, placeLimit).Post("/place", ordercontrollers.Place(ordersSvc, logg))
				r.Get("/my-orders", ordercontrollers.MyOrders(ordersSvc, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(ordersSvc, logg))
				r.With(critical).Patch("/{orderId}", ordercontrollers.ConfirmPayment(ordersSvc, logg))
			})

			r.With(middleware.RequireRole(logg, enums.RoleCustomer), idempotent).
				Post("/reviews", controllers.CreateReview(reviewsSvc, logg))

			r.Route("/seller/orders", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleSeller))
				r.Get("/", ordercontrollers.SellerOrders(ordersSvc, logg))
				r.Get("/{orderId}", ordercontrollers.SellerOrderDetail(ordersSvc, logg))
				r.With(idempotent).Patch("/status/{id}", ordercontrollers.SellerUpdateStatus(ordersSvc, logg))
			})

			r.Route("/admin/orders", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
				r.Get("/", ordercontrollers.AdminOrders(ordersSvc, logg))
				r.Get("/{orderId}", ordercontrollers.AdminOrderDetail(ordersSvc, logg))
				r.Get("/{orderId}/events", ordercontrollers.AdminOrderEvents(ordersSvc, logg))
				r.With(idempotent).Patch("/status/{parentId}", ordercontrollers.AdminSetStatus(ordersSvc, logg))
			})
		})
	})

	return r
}
