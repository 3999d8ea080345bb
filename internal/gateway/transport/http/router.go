package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	APIKey   string
	AdminKey string

	Send       *SendHandler
	Messages   *MessageHandler
	Automation *AutomationHandler
	Contacts   *ContactHandler
	Media      *MediaHandler
	Health     *HealthHandler
}

// NewRouter assembles the full route tree: public send and signed media
// endpoints behind the API key, the /admin tree behind the admin key,
// and unauthenticated health and metrics probes.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(PrometheusMetricsMiddleware)
	r.Use(APIKeyMiddleware(deps.APIKey))

	deps.Health.RegisterRoutes(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	deps.Send.RegisterRoutes(r)
	deps.Media.RegisterRoutes(r)

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(AdminKeyMiddleware(deps.AdminKey))
		deps.Send.RegisterAdminRoutes(admin)
		deps.Messages.RegisterAdminRoutes(admin)
		deps.Automation.RegisterAdminRoutes(admin)
		deps.Contacts.RegisterAdminRoutes(admin)
		deps.Media.RegisterAdminRoutes(admin)
	})

	return r
}
