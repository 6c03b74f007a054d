// Package admin contiene los controllers de la API de administración:
// settings, token de API y moderación.
package admin

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/coralbridge/internal/http/dto"
	httperrors "github.com/dropDatabas3/coralbridge/internal/http/errors"
	"github.com/dropDatabas3/coralbridge/internal/http/helpers"
	"github.com/dropDatabas3/coralbridge/internal/moderation"
	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
	"github.com/dropDatabas3/coralbridge/internal/provisioning"
	"github.com/dropDatabas3/coralbridge/internal/settings"
)

// SettingsStore es *settings.Repository.
type SettingsStore interface {
	Load(ctx context.Context) (settings.Settings, error)
	SavePreferences(ctx context.Context, p settings.Preferences) error
}

// Provisioner es *provisioning.Flow.
type Provisioner interface {
	Provision(ctx context.Context, req provisioning.Request) (provisioning.Result, error)
	Revoke(ctx context.Context) error
}

// Moderator es *moderation.Coordinator.
type Moderator interface {
	FetchQueues(ctx context.Context, s settings.Settings) (moderation.Queues, error)
	Decide(ctx context.Context, s settings.Settings, d moderation.Decision) (moderation.Outcome, error)
}

// Controller maneja /v1/admin/*.
type Controller struct {
	settings  SettingsStore
	provision Provisioner
	moderator Moderator
}

func NewController(s SettingsStore, p Provisioner, m Moderator) *Controller {
	return &Controller{settings: s, provision: p, moderator: m}
}

// GetSettings maneja GET /v1/admin/settings.
func (c *Controller) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AdminController.GetSettings"))

	s, err := c.settings.Load(ctx)
	if err != nil {
		log.Error("load settings failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.SettingsFrom(s))
}

// PutSettings maneja PUT /v1/admin/settings. Guarda el formulario completo.
func (c *Controller) PutSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AdminController.PutSettings"))

	var req settings.Preferences
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if err := c.settings.SavePreferences(ctx, req); err != nil {
		log.Error("save preferences failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	s, err := c.settings.Load(ctx)
	if err != nil {
		log.Error("reload settings failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	log.Info("settings saved", logger.Domain(s.Domain))
	helpers.WriteJSON(w, http.StatusOK, dto.SettingsFrom(s))
}

// ProvisionToken maneja POST /v1/admin/token.
// La contraseña solo se usa para el login y no se guarda ni se loguea.
func (c *Controller) ProvisionToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AdminController.ProvisionToken"))

	var req dto.ProvisionRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	res, err := c.provision.Provision(ctx, provisioning.Request{
		Domain:   req.Domain,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		log.Info("provisioning failed", logger.TokenStatus(string(res.Status)), logger.Err(err))
		httperrors.WriteError(w, httperrors.FromCoral(err))
		return
	}

	preview := settings.Settings{APIToken: res.Token}.TokenPreview()
	helpers.WriteJSON(w, http.StatusCreated, dto.ProvisionResponse{
		Status:       string(res.Status),
		TokenPreview: preview,
	})
}

// RevokeToken maneja DELETE /v1/admin/token.
func (c *Controller) RevokeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AdminController.RevokeToken"))

	if err := c.provision.Revoke(ctx); err != nil {
		log.Error("revoke failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Queues maneja GET /v1/admin/moderation/queues.
func (c *Controller) Queues(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AdminController.Queues"))

	s, err := c.settings.Load(ctx)
	if err != nil {
		log.Error("load settings failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	q, err := c.moderator.FetchQueues(ctx, s)
	if err != nil {
		log.Warn("fetch queues failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.FromCoral(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, q)
}

// Decide maneja POST /v1/admin/moderation/{action}.
func (c *Controller) Decide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AdminController.Decide"))

	action, err := moderation.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		httperrors.WriteError(w, httperrors.FromCoral(err))
		return
	}

	var req dto.DecisionRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	s, err := c.settings.Load(ctx)
	if err != nil {
		log.Error("load settings failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	out, err := c.moderator.Decide(ctx, s, moderation.Decision{
		Action:     action,
		CommentID:  req.CommentID,
		RevisionID: req.RevisionID,
	})
	if err != nil {
		log.Info("moderation decision failed",
			logger.Action(string(action)),
			logger.CommentID(req.CommentID),
			logger.Err(err),
		)
		httperrors.WriteError(w, httperrors.FromCoral(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}
