// Package public contiene los controllers que consume el sitio anfitrión:
// configuración del embed, contador y comentarios recientes.
package public

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/coralbridge/internal/comments"
	"github.com/dropDatabas3/coralbridge/internal/embed"
	dto "github.com/dropDatabas3/coralbridge/internal/http/dto"
	httperrors "github.com/dropDatabas3/coralbridge/internal/http/errors"
	"github.com/dropDatabas3/coralbridge/internal/http/helpers"
	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
	"github.com/dropDatabas3/coralbridge/internal/settings"
)

// SettingsLoader carga settings frescos en cada request.
type SettingsLoader interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// RecentFetcher es *comments.Fetcher.
type RecentFetcher interface {
	FetchRecent(ctx context.Context, s settings.Settings, limit int) []comments.Comment
}

// Controller maneja /v1/embed, /v1/count y /v1/comments/recent.
type Controller struct {
	settings SettingsLoader
	signer   embed.Issuer
	recent   RecentFetcher
	trust    embed.Trust
}

// NewController: trust decide qué requests pueden declarar un usuario logueado.
func NewController(s SettingsLoader, signer embed.Issuer, recent RecentFetcher, trust embed.Trust) *Controller {
	return &Controller{settings: s, signer: signer, recent: recent, trust: trust}
}

// Embed maneja GET /v1/embed.
func (c *Controller) Embed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PublicController.Embed"))

	s, err := c.settings.Load(ctx)
	if err != nil {
		log.Error("load settings failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	id := embed.IdentityFromRequest(r, s.Session, c.trust)
	cfg, ok, err := embed.Stream(s, id, c.signer)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrCoralNotConfigured)
		return
	}
	if err != nil {
		// el embed sigue sirviendo, anónimo
		log.Warn("sso token issue failed", logger.UserID(id.UserID), logger.Err(err))
	}
	helpers.WriteJSON(w, http.StatusOK, cfg)
}

// Count maneja GET /v1/count?url=&notext=1.
func (c *Controller) Count(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PublicController.Count"))

	s, err := c.settings.Load(ctx)
	if err != nil {
		log.Error("load settings failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	q := r.URL.Query()
	cfg, ok := embed.Count(s, q.Get("url"), isTruthy(q.Get("notext")))
	if !ok {
		httperrors.WriteError(w, httperrors.ErrCoralNotConfigured)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, cfg)
}

// Recent maneja GET /v1/comments/recent?limit=.
// Sin limit se usa el guardado. Fallas de Coral devuelven lista vacía.
func (c *Controller) Recent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PublicController.Recent"))

	s, err := c.settings.Load(ctx)
	if err != nil {
		log.Error("load settings failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	raw := s.Display.RecentLimit
	if v, ok := r.URL.Query()["limit"]; ok && len(v) > 0 {
		raw = v[0]
	}
	limit := comments.ParseLimit(raw)

	list := c.recent.FetchRecent(ctx, s, limit)
	log.Debug("recent comments served", logger.Count(len(list)))

	helpers.WriteJSON(w, http.StatusOK, dto.RecentCommentsResponse{
		BgColor:       s.Display.BgColor,
		DefaultAvatar: comments.NewAvatars(s.Display, nil).Default(),
		Limit:         limit,
		Comments:      list,
	})
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
