package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/orderportal-backend/api/controllers"
	authcontrollers "github.com/angelmondragon/orderportal-backend/api/controllers/auth"
	ordercontrollers "github.com/angelmondragon/orderportal-backend/api/controllers/orders"
	settingscontrollers "github.com/angelmondragon/orderportal-backend/api/controllers/settings"
	"github.com/angelmondragon/orderportal-backend/api/middleware"
	"github.com/angelmondragon/orderportal-backend/internal/auth"
	"github.com/angelmondragon/orderportal-backend/internal/orders"
	"github.com/angelmondragon/orderportal-backend/internal/settings"
	"github.com/angelmondragon/orderportal-backend/internal/users"
	"github.com/angelmondragon/orderportal-backend/pkg/auth/session"
	"github.com/angelmondragon/orderportal-backend/pkg/config"
	"github.com/angelmondragon/orderportal-backend/pkg/enums"
	"github.com/angelmondragon/orderportal-backend/pkg/logger"
	"github.com/angelmondragon/orderportal-backend/pkg/metrics"
	"github.com/angelmondragon/orderportal-backend/pkg/redis"
)

// Scheduler is the slice of the order scheduler the HTTP layer drives.
type Scheduler interface {
	ordercontrollers.StatusRunner
	settingscontrollers.Rescheduler
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	sessions session.Checker,
	authService auth.Service,
	usersRepo *users.Repository,
	ordersSvc orders.Service,
	settingsSvc settings.Service,
	scheduler Scheduler,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)
	if cfg.App.IsDev() {
		r.Use(middleware.DebugErrors)
	}

	var (
		idempotency redis.IdempotencyStore
		limiter     middleware.RateLimitStore
		readyDeps   = map[string]controllers.Pinger{"db": dbP}
	)
	if redisClient != nil {
		idempotency = redisClient
		limiter = redisClient
		readyDeps["redis"] = redisClient
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readyDeps, logg))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", authcontrollers.Login(authService, logg))
		r.With(middleware.Auth(cfg.JWT, sessions, logg)).Post("/logout", authcontrollers.Logout(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(idempotency, logg))

		r.Get("/settings", settingscontrollers.Get(settingsSvc, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(ordersSvc, usersRepo, logg))
			r.Get("/delivery-date", ordercontrollers.DeliveryDate(ordersSvc, logg))
			r.Get("/byDeliveryDate", ordercontrollers.ByDeliveryDate(ordersSvc, logg))
			r.Get("/user/{userId}", ordercontrollers.ListByUser(ordersSvc, logg))
			r.With(middleware.RequireRole(logg, enums.UserRoleAdmin)).
				Post("/process-pending", ordercontrollers.ProcessPending(scheduler, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersSvc, logg))
			r.Put("/{orderId}", ordercontrollers.Update(ordersSvc, logg))
			r.Put("/{orderId}/cancel", ordercontrollers.Cancel(ordersSvc, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))

		r.Put("/settings", settingscontrollers.Update(settingsSvc, scheduler, logg))
	})

	return r
}
