// Package provisioning obtiene el token de API permanente de Coral a partir
// de credenciales de admin, en dos pasos: login local y mutación createToken.
//
// Las credenciales viven solo en variables locales durante el flujo. No hay
// rollback: si el paso 2 falla, el token de sesión del paso 1 expira solo.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/coralbridge/internal/coral"
	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
	"github.com/dropDatabas3/coralbridge/internal/settings"
)

// TokenNamePrefix + fecha distingue aprovisionamientos sucesivos en Coral.
const TokenNamePrefix = "coralbridge-"

// Client es lo que el flujo necesita de coral.Client.
type Client interface {
	Login(ctx context.Context, domain, email, password string) (string, error)
	CallAs(ctx context.Context, domain, bearer string, op coral.Operation) (*coral.Response, error)
}

// Repository es lo que el flujo necesita de settings.Repository.
type Repository interface {
	Load(ctx context.Context) (settings.Settings, error)
	StoreToken(ctx context.Context, token string) error
	SetTokenStatus(ctx context.Context, st settings.TokenStatus) error
	RevokeToken(ctx context.Context) error
}

// Request son las credenciales del formulario. Domain vacío = el guardado.
type Request struct {
	Domain   string `json:"domain"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Result del aprovisionamiento. Token solo viene en éxito.
type Result struct {
	Status settings.TokenStatus `json:"status"`
	Token  string               `json:"-"`
	Detail string               `json:"detail,omitempty"`
}

// Error describe un aprovisionamiento fallido.
type Error struct {
	Status settings.TokenStatus
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "provisioning: " + string(e.Status)
	}
	return fmt.Sprintf("provisioning: %s: %s", e.Status, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Flow ejecuta el aprovisionamiento.
type Flow struct {
	client Client
	repo   Repository
	now    func() time.Time
}

type Option func(*Flow)

func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

func NewFlow(client Client, repo Repository, opts ...Option) *Flow {
	f := &Flow{client: client, repo: repo, now: time.Now}
	for _, o := range opts {
		o(f)
	}
	return f
}

// TokenName es el nombre del token que se crea hoy.
func (f *Flow) TokenName() string {
	return TokenNamePrefix + f.now().UTC().Format("2006-01-02")
}

// Provision intercambia credenciales por un token de API y lo guarda.
// El estado resultante se persiste siempre, también en los fallos.
func (f *Flow) Provision(ctx context.Context, req Request) (Result, error) {
	log := logger.From(ctx).With(logger.Component("provisioning"))

	domain := settings.NormalizeDomain(req.Domain)
	if domain == "" {
		cur, err := f.repo.Load(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("provisioning: load settings: %w", err)
		}
		domain = cur.Domain
	}
	email := strings.TrimSpace(req.Email)

	if domain == "" || email == "" || req.Password == "" {
		return f.fail(ctx, settings.StatusMissingFields, "", nil)
	}
	log = log.With(logger.Domain(domain))

	// Paso 1: login → token de sesión corto
	session, err := f.client.Login(ctx, domain, email, req.Password)
	if err != nil {
		log.Info("coral login failed", logger.Err(err))
		return f.fail(ctx, settings.StatusAuthFailed, detailOf(err), err)
	}

	// Paso 2: createToken con el token de sesión como bearer
	name := f.TokenName()
	resp, err := f.client.CallAs(ctx, domain, session, coral.Operation{
		Name:      "createToken",
		Query:     coral.CreateTokenMutation,
		Variables: map[string]any{"name": name},
	})
	if err != nil {
		log.Info("coral createToken failed", logger.Err(err))
		return f.fail(ctx, settings.StatusTokenFailed, detailOf(err), err)
	}
	signed := signedToken(resp)
	if signed == "" {
		detail := ""
		if resp.HasErrors() {
			detail = coral.Truncate(resp.FirstError(), coral.MaxRemoteDetail)
		}
		log.Info("coral returned no signed token", logger.String("detail", detail))
		return f.fail(ctx, settings.StatusTokenFailed, detail, nil)
	}

	if err := f.repo.StoreToken(ctx, signed); err != nil {
		return Result{}, fmt.Errorf("provisioning: store token: %w", err)
	}
	log.Info("coral api token provisioned", logger.String("token_name", name))
	return Result{Status: settings.StatusConnected, Token: signed}, nil
}

// Revoke borra el token guardado y marca el estado como revoked.
func (f *Flow) Revoke(ctx context.Context) error {
	if err := f.repo.RevokeToken(ctx); err != nil {
		return fmt.Errorf("provisioning: revoke: %w", err)
	}
	logger.From(ctx).Info("coral api token revoked", logger.Component("provisioning"))
	return nil
}

func (f *Flow) fail(ctx context.Context, st settings.TokenStatus, detail string, cause error) (Result, error) {
	if err := f.repo.SetTokenStatus(ctx, st); err != nil {
		logger.From(ctx).Warn("persist token status failed", logger.TokenStatus(string(st)), logger.Err(err))
	}
	return Result{Status: st, Detail: detail}, &Error{Status: st, Detail: detail, Err: cause}
}

// detailOf extrae el texto a mostrar. Solo el texto remoto se expone tal cual.
func detailOf(err error) string {
	var rerr *coral.RemoteError
	if errors.As(err, &rerr) {
		return coral.Truncate(rerr.Message, coral.MaxRemoteDetail)
	}
	if errors.Is(err, coral.ErrTransport) {
		return "could not reach Coral"
	}
	return ""
}

func signedToken(resp *coral.Response) string {
	var data struct {
		CreateToken *struct {
			SignedToken string `json:"signedToken"`
		} `json:"createToken"`
	}
	if err := resp.Decode(&data); err != nil || data.CreateToken == nil {
		return ""
	}
	return strings.TrimSpace(data.CreateToken.SignedToken)
}
