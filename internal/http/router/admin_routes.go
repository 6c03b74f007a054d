package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/coralbridge/internal/http/middlewares"
)

func registerAdminRoutes(r chi.Router, deps Deps) {
	c := deps.Admin
	if c == nil {
		return
	}
	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(
			mw.WithLogging(),
			mw.WithNoStore(),
			mw.RequireAdminKey(deps.AdminKey),
		)

		r.Get("/settings", c.GetSettings)
		r.Put("/settings", c.PutSettings)

		// cada intento manda credenciales a Coral: limitado por IP
		r.With(mw.WithRateLimit(mw.RateLimitConfig{
			Limiter:  deps.ProvisionLimiter,
			Recorder: rateRecorder(deps),
		})).Post("/token", c.ProvisionToken)
		r.Delete("/token", c.RevokeToken)

		r.Get("/moderation/queues", c.Queues)
		r.Post("/moderation/{action}", c.Decide)
	})
}

// rateRecorder evita guardar un *metrics.Metrics nil dentro de la interfaz.
func rateRecorder(deps Deps) mw.RateRecorder {
	if deps.Metrics == nil {
		return nil
	}
	return deps.Metrics
}
