// Package health contiene el controller para health checks.
package health

import (
	"context"
	"net/http"

	dto "github.com/dropDatabas3/coralbridge/internal/http/dto"
	"github.com/dropDatabas3/coralbridge/internal/http/helpers"
	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
)

// Check es un chequeo de dependencia; nil = ok.
type Check func(ctx context.Context) error

// Controller maneja GET /healthz.
type Controller struct {
	version string
	checks  map[string]Check
}

// NewController recibe los chequeos por nombre (ej. "settings_store").
func NewController(version string, checks map[string]Check) *Controller {
	return &Controller{version: version, checks: checks}
}

// Healthz responde 200 "ok" o 503 "unavailable" si algún chequeo falla.
// No consulta a Coral: su caída no hace al servicio no saludable.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Healthz"))

	resp := dto.HealthResponse{Status: "ok", Version: c.version}
	if len(c.checks) > 0 {
		resp.Components = make(map[string]string, len(c.checks))
	}
	for name, check := range c.checks {
		if err := check(ctx); err != nil {
			log.Warn("health check failed", logger.String("component", name), logger.Err(err))
			resp.Components[name] = "down"
			resp.Status = "unavailable"
			continue
		}
		resp.Components[name] = "up"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	if c.version != "" {
		w.Header().Set("X-Service-Version", c.version)
	}
	helpers.WriteJSON(w, status, resp)
}
