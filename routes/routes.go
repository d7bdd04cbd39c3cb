package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taalumaworld/admin-access/app"
	"github.com/taalumaworld/admin-access/internal/observability"
	"github.com/taalumaworld/admin-access/models"
	"github.com/taalumaworld/admin-access/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.Observability.MetricsEnabled {
		r.Use(observability.MetricsMiddleware)
		r.Handle("/metrics", promhttp.Handler())
	}

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)

	if cfg.Auth.DevTokensEnabled {
		r.Post("/auth/dev-token", deps.AuthHandler.HandleDevToken)
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		r.Use(deps.AuthMiddleware.LoadSession)

		// Static role model
		r.Route("/rbac", func(r chi.Router) {
			r.Get("/permissions", deps.RBACHandler.HandleListPermissions)
			r.Get("/roles", deps.RBACHandler.HandleListRoles)
			r.Get("/roles/compare", deps.RBACHandler.HandleCompareRoles)
			r.Get("/roles/{role}/permissions", deps.RBACHandler.HandleRolePermissions)
			r.Get("/sections", deps.RBACHandler.HandleListSections)
		})

		// Caller's own session
		r.Route("/session", func(r chi.Router) {
			r.Get("/", deps.SessionHandler.HandleGetCurrent)
			r.Delete("/", deps.SessionHandler.HandleEndSession)
			r.Put("/role", deps.SessionHandler.HandleSwitchRole)
			r.Post("/check", deps.SessionHandler.HandleCheckPermissions)
			r.Get("/sections", deps.SessionHandler.HandleAccessibleSections)
			r.Get("/sections/{section}/access", deps.SessionHandler.HandleSectionAccess)
		})

		// Other admins' live sessions
		r.Route("/sessions/{sub}", func(r chi.Router) {
			r.With(deps.AccessMiddleware.RequireAnyPermission(models.PermViewUsers, models.PermManageRoles)).
				Get("/", deps.AdminSessionHandler.HandleGet)
			r.With(deps.AccessMiddleware.RequireAllPermissions(models.PermManageRoles, models.PermEditUsers)).
				Delete("/", deps.AdminSessionHandler.HandleRevoke)
		})

		r.Route("/activity-logs", func(r chi.Router) {
			r.Use(deps.AccessMiddleware.RequireSection(models.SectionActivityLogs))
			r.Get("/", deps.ActivityHandler.HandleList)
			r.Get("/{id}", deps.ActivityHandler.HandleGet)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.AccessMiddleware.RequireSection(models.SectionRoles))
			r.Use(deps.AccessMiddleware.RequirePermission(models.PermManageRoles))
			r.Get("/roles", deps.RBACHandler.HandleAdminRoles)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})

	return r
}
