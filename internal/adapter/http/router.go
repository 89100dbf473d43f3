package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/avel/splitledger/internal/adapter/http/handler"
	"github.com/avel/splitledger/internal/adapter/http/middleware"
	"github.com/avel/splitledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	MemberHandler     *handler.MemberHandler
	GroupHandler      *handler.GroupHandler
	ExpenseHandler    *handler.ExpenseHandler
	SettlementHandler *handler.SettlementHandler
	BalanceHandler    *handler.BalanceHandler
	HealthHandler     *handler.HealthHandler
	IdempotencyStore  usecase.IdempotencyStore
	RateLimiter       *middleware.RateLimiter
	Logger            zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Route("/members", func(r chi.Router) {
			r.Post("/", cfg.MemberHandler.Create)
			r.Get("/{id}", cfg.MemberHandler.Get)
			r.Patch("/{id}", cfg.MemberHandler.Update)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", cfg.GroupHandler.Create)
			r.Get("/{id}", cfg.GroupHandler.Get)

			r.Route("/{id}/members", func(r chi.Router) {
				r.Get("/", cfg.GroupHandler.ListMembers)
				r.Post("/", cfg.GroupHandler.AddMember)
			})

			r.Route("/{id}/expenses", func(r chi.Router) {
				r.Post("/", cfg.ExpenseHandler.Create)
				r.Get("/", cfg.ExpenseHandler.List)
			})

			r.Route("/{id}/settlements", func(r chi.Router) {
				r.Post("/", cfg.SettlementHandler.Create)
				r.Get("/", cfg.SettlementHandler.List)
				r.Get("/{settlementID}", cfg.SettlementHandler.Get)
				r.Post("/{settlementID}/confirm", cfg.SettlementHandler.Confirm)
				r.Post("/{settlementID}/fail", cfg.SettlementHandler.Fail)
			})

			r.Get("/{id}/balances", cfg.BalanceHandler.Get)
			r.Get("/{id}/settlement-plan", cfg.BalanceHandler.GetPlan)
			r.Get("/{id}/consistency", cfg.BalanceHandler.CheckConsistency)
		})
	})

	return r
}
