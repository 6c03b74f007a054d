// Package coral es el cliente HTTP de la API de Coral: el endpoint GraphQL
// autenticado con bearer y el intercambio de credenciales /api/auth/local.
//
// Un intento por llamada, sin retries ni backoff. Los errores se clasifican en
// ErrNotConfigured (no hubo llamada), ErrTransport (red/timeout/JSON) y
// *RemoteError (Coral respondió y rechazó).
package coral

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
	"github.com/dropDatabas3/coralbridge/internal/settings"
)

// DefaultTimeout es el timeout fijo de cada llamada.
const DefaultTimeout = 10 * time.Second

// maxBody limita lo que leemos de una respuesta.
const maxBody = 4 << 20

const (
	graphQLPath = "/api/graphql"
	loginPath   = "/api/auth/local"
)

// Endpoint identifica a qué instancia de Coral hablar y con qué credencial.
type Endpoint struct {
	Domain string
	Token  string
}

// Configured indica si hay dominio y token.
func (e Endpoint) Configured() bool {
	return strings.TrimSpace(e.Domain) != "" && strings.TrimSpace(e.Token) != ""
}

// Observer recibe el resultado de cada llamada (métricas).
// outcome: ok | remote_error | transport_error | not_configured.
type Observer interface {
	ObserveCall(op, outcome string, d time.Duration)
}

// Response es el cuerpo JSON de Coral tal cual, incluyendo "errors".
type Response struct {
	Status int             `json:"-"`
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// HasErrors indica si la respuesta trae un array "errors" no vacío.
func (r *Response) HasErrors() bool { return r != nil && len(r.Errors) > 0 }

// FirstError devuelve el mensaje del primer error, o "".
func (r *Response) FirstError() string {
	if !r.HasErrors() {
		return ""
	}
	return r.Errors[0].Message
}

// Decode decodifica "data" en v. Un data ausente o null deja v sin tocar.
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Client habla con Coral. Es seguro para uso concurrente y no guarda estado
// de configuración: dominio y token llegan en cada llamada.
type Client struct {
	http     *http.Client
	observer Observer
}

// Option configura un Client.
type Option func(*Client)

// WithHTTPClient reemplaza el http.Client (tests, transports custom).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithObserver registra un observer de llamadas.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New crea un Client con timeout de 10s.
func New(opts ...Option) *Client {
	c := &Client{http: &http.Client{Timeout: DefaultTimeout}}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Call ejecuta op contra {domain}/api/graphql con el token de ep.
// Sin dominio o token devuelve ErrNotConfigured sin tocar la red.
func (c *Client) Call(ctx context.Context, ep Endpoint, op Operation) (*Response, error) {
	if !ep.Configured() {
		c.observe(op.Name, "not_configured", 0)
		return nil, ErrNotConfigured
	}
	return c.CallAs(ctx, ep.Domain, ep.Token, op)
}

// CallAs es Call con un bearer explícito. Lo usa el aprovisionamiento (paso 2)
// con el token de sesión corto en lugar del token de API.
func (c *Client) CallAs(ctx context.Context, domain, bearer string, op Operation) (*Response, error) {
	domain = strings.TrimRight(strings.TrimSpace(domain), "/")
	if domain == "" || bearer == "" {
		c.observe(op.Name, "not_configured", 0)
		return nil, ErrNotConfigured
	}

	log := logger.From(ctx).With(
		logger.Component("coral.client"),
		logger.Operation(op.Name),
		logger.Domain(domain),
	)

	vars := op.Variables
	if vars == nil {
		vars = map[string]any{}
	}
	payload, err := json.Marshal(map[string]any{"query": op.Query, "variables": vars})
	if err != nil {
		return nil, fmt.Errorf("coral: encode %s: %w", op.Name, err)
	}

	start := time.Now()
	var out Response
	status, err := c.postJSON(ctx, domain+graphQLPath, bearer, payload, &out)
	dur := time.Since(start)
	if err != nil {
		c.observe(op.Name, "transport_error", dur)
		log.Warn("coral call failed", logger.Err(err), logger.Duration(dur))
		return nil, &TransportError{Op: op.Name, Err: err}
	}
	out.Status = status

	outcome := "ok"
	if out.HasErrors() {
		outcome = "remote_error"
		log.Info("coral returned errors", logger.String("first_error", Truncate(out.FirstError(), MaxRemoteDetail)), logger.Status(status))
	} else {
		log.Debug("coral call ok", logger.Status(status), logger.Duration(dur))
	}
	c.observe(op.Name, outcome, dur)
	return &out, nil
}

// Login intercambia email+password por un token de sesión corto
// (POST {domain}/api/auth/local). Las credenciales no se guardan en ningún lado.
func (c *Client) Login(ctx context.Context, domain, email, password string) (string, error) {
	const op = "auth.local"
	domain = strings.TrimRight(strings.TrimSpace(domain), "/")
	if domain == "" {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", fmt.Errorf("coral: encode login: %w", err)
	}

	var out struct {
		Token string `json:"token"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	start := time.Now()
	status, err := c.postJSON(ctx, domain+loginPath, "", payload, &out)
	dur := time.Since(start)
	if err != nil {
		c.observe(op, "transport_error", dur)
		return "", &TransportError{Op: op, Err: err}
	}
	if out.Token == "" {
		c.observe(op, "remote_error", dur)
		msg := fmt.Sprintf("no session token (HTTP %d)", status)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", NewRemoteError(op, msg)
	}
	c.observe(op, "ok", dur)
	return out.Token, nil
}

// postJSON hace un único POST y decodifica el cuerpo JSON en out, sea cual sea el status.
func (c *Client) postJSON(ctx context.Context, url, bearer string, body []byte, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, errors.New("empty response body")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) observe(op, outcome string, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveCall(op, outcome, d)
	}
}

// EndpointFrom arma el Endpoint con el dominio y token de API guardados.
func EndpointFrom(s settings.Settings) Endpoint {
	return Endpoint{Domain: s.Domain, Token: s.APIToken}
}
