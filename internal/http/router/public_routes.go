package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/coralbridge/internal/http/middlewares"
)

func registerPublicRoutes(r chi.Router, deps Deps) {
	c := deps.Public
	if c == nil {
		return
	}
	r.Group(func(r chi.Router) {
		r.Use(mw.WithLogging())

		// lleva un token SSO por usuario
		r.With(mw.WithNoStore()).Get("/v1/embed", c.Embed)
		r.Get("/v1/count", c.Count)
		r.Get("/v1/comments/recent", c.Recent)
	})
}
