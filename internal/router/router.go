// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"deposit-service/internal/handler"
	"deposit-service/pkg/jwtutil"
	"deposit-service/pkg/middleware"
)

// RoleAdmin may review manual deposits
const RoleAdmin = "admin"

type Deps struct {
	DepositHandler *handler.DepositHandler
	AdminHandler   *handler.AdminHandler
	Auth           *middleware.AuthMiddleware

	// RateLimit wraps the validate endpoint. Nil disables limiting.
	RateLimit func(http.Handler) http.Handler

	Metrics        *prometheus.Registry
	AllowedOrigins []string
	Logger         *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders:   []string{middleware.HeaderRequestID, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if d.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}

	rateLimit := d.RateLimit
	if rateLimit == nil {
		rateLimit = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api/v1/deposits", func(r chi.Router) {
		r.Get("/tx-patterns", d.DepositHandler.TxPatterns)

		r.Group(func(r chi.Router) {
			r.Use(d.Auth.Require(jwtutil.TypeUser))

			r.Get("/", d.DepositHandler.History)
			r.Get("/addresses", d.DepositHandler.Addresses)
			r.With(rateLimit).Post("/validate", d.DepositHandler.Validate)
			r.With(rateLimit).Post("/manual", d.DepositHandler.SubmitManual)
		})
	})

	r.Route("/admin/deposits", func(r chi.Router) {
		r.Use(d.Auth.Require(jwtutil.TypeAdmin))
		r.Use(middleware.RequireRole(RoleAdmin))

		r.Get("/pending", d.AdminHandler.ListPending)
		r.Post("/{id}/confirm", d.AdminHandler.Confirm)
		r.Post("/{id}/reject", d.AdminHandler.Reject)
	})

	return r
}
