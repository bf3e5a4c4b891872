package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/partnerledger/internal/adapter/http/handler"
	"github.com/iho/partnerledger/internal/adapter/http/middleware"
	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/auth"
	"github.com/iho/partnerledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	WalletHandler      *handler.WalletHandler
	TransactionHandler *handler.TransactionHandler
	PaymentHandler     *handler.PaymentHandler
	ProjectHandler     *handler.ProjectHandler
	ConversionHandler  *handler.ConversionHandler
	HealthHandler      *handler.HealthHandler

	Logger zerolog.Logger

	// JWTManager enables bearer authentication and role checks when set.
	JWTManager *auth.JWTManager

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	RateLimiter        *middleware.RateLimiter
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyKeyHeader, middleware.RequestIDHeader},
			ExposedHeaders:   []string{middleware.RequestIDHeader, "X-Idempotency-Replay"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}

		authEnabled := cfg.JWTManager != nil
		if authEnabled {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		}

		// guard returns the role check only when authentication is on.
		guard := func(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
			if !authEnabled {
				return func(next http.Handler) http.Handler { return next }
			}
			return mw
		}
		writer := guard(middleware.RequireWriter)
		admin := guard(middleware.RequireRole(domain.RoleAdmin))
		ownerOrStaff := guard(middleware.RequireOwnerOrStaff)

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		// Wallets
		r.Route("/wallets/{"+middleware.OwnerParam+"}", func(r chi.Router) {
			r.With(ownerOrStaff).Get("/", cfg.WalletHandler.Get)
			r.With(ownerOrStaff).Get("/summary", cfg.WalletHandler.Summary)
			r.With(ownerOrStaff).Get("/transactions", cfg.WalletHandler.ListTransactions)
			r.With(ownerOrStaff).Get("/earnings/monthly", cfg.WalletHandler.MonthlyEarnings)
			r.With(ownerOrStaff).Get("/earnings/series", cfg.WalletHandler.EarningsSeries)
			r.With(writer).Post("/transactions", cfg.WalletHandler.Append)
			r.With(writer).Post("/verify", cfg.WalletHandler.Verify)
			r.With(admin).Post("/rebuild", cfg.WalletHandler.Rebuild)
		})

		// Transactions
		r.Route("/transactions/{id}", func(r chi.Router) {
			r.With(writer).Get("/", cfg.TransactionHandler.Get)
			r.With(writer).Get("/audit", cfg.TransactionHandler.Audit)
			r.With(writer).Post("/complete", cfg.TransactionHandler.Complete)
			r.With(writer).Post("/fail", cfg.TransactionHandler.Fail)
			r.With(writer).Post("/reverse", cfg.TransactionHandler.Reverse)
		})

		// Lead conversions
		r.With(writer).Post("/conversions", cfg.ConversionHandler.Convert)

		// Payments
		r.Route("/payments", func(r chi.Router) {
			r.Use(writer)
			r.Post("/", cfg.PaymentHandler.Record)
			r.Get("/{externalRef}", cfg.PaymentHandler.Get)
			r.Post("/{externalRef}/confirm", cfg.PaymentHandler.Confirm)
			r.Post("/{externalRef}/fail", cfg.PaymentHandler.Fail)
			r.Post("/{externalRef}/refund", cfg.PaymentHandler.Refund)
		})

		// Project directory
		r.Route("/projects/{id}", func(r chi.Router) {
			r.With(writer).Get("/", cfg.ProjectHandler.Get)
			r.With(writer).Get("/financials", cfg.ProjectHandler.Financials)
			r.With(admin).Put("/", cfg.ProjectHandler.Upsert)
			r.With(admin).Delete("/", cfg.ProjectHandler.Delete)
			r.With(admin).Put("/milestones/{milestoneId}", cfg.ProjectHandler.UpsertMilestone)
			r.With(admin).Delete("/milestones/{milestoneId}", cfg.ProjectHandler.DeleteMilestone)
		})

		r.With(writer).Get("/clients/{clientId}/reconciliation", cfg.ProjectHandler.ClientReconciliation)
	})

	return r
}
