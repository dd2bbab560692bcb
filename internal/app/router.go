package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/solterra-club/backoffice/internal/dashboard"
	"github.com/solterra-club/backoffice/internal/rbac"
	"github.com/solterra-club/backoffice/internal/session"
	"github.com/solterra-club/backoffice/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Engine             *session.Engine
	CSRFManager        *shared.CSRFManager
	SessionHandler     *session.Handler
	PermissionsHandler *rbac.Handler
	DashboardHandler   *dashboard.Handler
	Guard              rbac.Middleware
}

// NewRouter constructs the chi.Router with back-office defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		Engine:      params.Engine,
		CSRFManager: params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		// Credential guessing gets a much tighter budget than the rest of
		// the API.
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		params.SessionHandler.MountRoutes(r)
	})

	r.Route("/dashboard", params.DashboardHandler.MountRoutes)

	r.Route("/admin", func(r chi.Router) {
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		r.Route("/widgets", func(r chi.Router) {
			r.Use(params.Guard.RequireSuperAdmin())
			params.DashboardHandler.MountAdminRoutes(r)
		})
	})

	return r
}
