package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/royals-sales/royals/internal/auth"
	"github.com/royals-sales/royals/internal/dashboard"
	"github.com/royals-sales/royals/internal/products"
	"github.com/royals-sales/royals/internal/sales"
	"github.com/royals-sales/royals/internal/shared"
	"github.com/royals-sales/royals/internal/users"
	"github.com/royals-sales/royals/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthMiddleware   *auth.Middleware
	AuthHandler      *auth.Handler
	ProductsHandler  *products.Handler
	SalesHandler     *sales.Handler
	UsersHandler     *users.Handler
	DashboardHandler *dashboard.Handler
	JobsHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router for the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(AuthRateLimiter())
			r.Route("/auth", params.AuthHandler.MountRoutes)
		})

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.Authenticate)

			r.Route("/products", params.ProductsHandler.MountRoutes)
			r.Route("/sales", params.SalesHandler.MountRoutes)
			r.Route("/dashboard", params.DashboardHandler.MountRoutes)

			r.Group(func(r chi.Router) {
				r.Use(params.AuthMiddleware.RequireRole(shared.RoleAdmin))
				r.Route("/users", params.UsersHandler.MountRoutes)
				if params.JobsHandler != nil {
					r.Route("/jobs", params.JobsHandler.MountRoutes)
				}
			})
		})
	})

	return r
}
