package router

import (
	"github.com/go-chi/chi/v5"
)

// /healthz sin logging: lo llaman los balanceadores cada pocos segundos.
func registerHealthRoutes(r chi.Router, deps Deps) {
	if deps.Health == nil {
		return
	}
	r.Get("/healthz", deps.Health.Healthz)
}
