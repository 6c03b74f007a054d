// Package router arma el árbol de rutas HTTP sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminctrl "github.com/dropDatabas3/coralbridge/internal/http/controllers/admin"
	healthctrl "github.com/dropDatabas3/coralbridge/internal/http/controllers/health"
	publicctrl "github.com/dropDatabas3/coralbridge/internal/http/controllers/public"
	httperrors "github.com/dropDatabas3/coralbridge/internal/http/errors"
	mw "github.com/dropDatabas3/coralbridge/internal/http/middlewares"
	"github.com/dropDatabas3/coralbridge/internal/observability/metrics"
	"github.com/dropDatabas3/coralbridge/internal/rate"
)

// Deps son las dependencias del router. Metrics y ProvisionLimiter son opcionales.
type Deps struct {
	Health *healthctrl.Controller
	Public *publicctrl.Controller
	Admin  *adminctrl.Controller

	AdminKey         mw.KeyVerifier
	ProvisionLimiter rate.Limiter
	Metrics          *metrics.Metrics

	// ExposeMetrics monta /metrics en este router (sin listener aparte).
	ExposeMetrics bool
}

// New devuelve el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		deps.Metrics.WithMetrics,
		mw.WithSecurityHeaders(),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, deps)
	registerPublicRoutes(r, deps)
	registerAdminRoutes(r, deps)
	if deps.ExposeMetrics && deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	return r
}
