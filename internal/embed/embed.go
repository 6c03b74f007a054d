// Package embed arma los descriptores que el sitio necesita para montar el
// stream de comentarios de Coral y el contador, incluido el token SSO del
// visitante logueado.
package embed

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strings"

	"github.com/dropDatabas3/coralbridge/internal/settings"
	"github.com/dropDatabas3/coralbridge/internal/sso"
)

// ContainerID es el id del div donde Coral renderiza el stream.
const ContainerID = "coral_thread"

// SessionHeaderPrefix: el proxy del sitio anfitrión pasa la sesión como X-Session-<Key>.
const SessionHeaderPrefix = "X-Session-"

// ProxySecretHeader lleva el secreto compartido entre el proxy y coralbridge.
const ProxySecretHeader = "X-Session-Proxy-Secret"

// Identity es el usuario logueado en el sitio. Vacío = visitante anónimo.
type Identity struct {
	UserID   string
	Email    string
	Username string
}

// LoggedIn indica si hay un usuario.
func (i Identity) LoggedIn() bool { return strings.TrimSpace(i.UserID) != "" }

// Trust decide si los headers de sesión de un request vienen del proxy.
// El valor cero no confía en nadie.
type Trust struct {
	secret   []byte
	networks []netip.Prefix
}

// NewTrust arma un Trust con el secreto del proxy y las redes confiables (CIDR).
func NewTrust(proxySecret string, cidrs []string) (Trust, error) {
	t := Trust{}
	if s := strings.TrimSpace(proxySecret); s != "" {
		t.secret = []byte(s)
	}
	for _, c := range cidrs {
		p, err := netip.ParsePrefix(strings.TrimSpace(c))
		if err != nil {
			return Trust{}, fmt.Errorf("embed: trusted proxy %q: %w", c, err)
		}
		t.networks = append(t.networks, p.Masked())
	}
	return t, nil
}

// Enabled indica si hay alguna fuente confiable configurada.
func (t Trust) Enabled() bool { return len(t.secret) > 0 || len(t.networks) > 0 }

// Trusted: el request trae el secreto correcto o llega desde una red confiable.
// Se mira RemoteAddr, nunca X-Forwarded-For.
func (t Trust) Trusted(r *http.Request) bool {
	if len(t.secret) > 0 {
		got := r.Header.Get(ProxySecretHeader)
		if got != "" && subtle.ConstantTimeCompare([]byte(got), t.secret) == 1 {
			return true
		}
	}
	if len(t.networks) == 0 {
		return false
	}
	ap, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		return false
	}
	addr := ap.Addr().Unmap()
	for _, n := range t.networks {
		if n.Contains(addr) {
			return true
		}
	}
	return false
}

// IdentityFromRequest lee la sesión de los headers X-Session-<Key> con los
// nombres de clave configurados. Si el request no es confiable devuelve un
// visitante anónimo. Las cookies del navegador no cuentan.
func IdentityFromRequest(r *http.Request, keys settings.SessionKeys, trust Trust) Identity {
	if !trust.Trusted(r) {
		return Identity{}
	}
	return Identity{
		UserID:   header(r, keys.User),
		Email:    header(r, keys.Email),
		Username: header(r, keys.Username),
	}
}

func header(r *http.Request, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSpace(r.Header.Get(SessionHeaderPrefix + key))
}

// StreamConfig son los parámetros de Coral.createStreamEmbed.
type StreamConfig struct {
	RootURL     string `json:"root_url"`
	ScriptURL   string `json:"script_url"`
	ContainerID string `json:"container_id"`
	AccessToken string `json:"access_token,omitempty"`
}

// Issuer firma tokens SSO (sso.Signer).
type Issuer interface {
	Issue(secret string, u sso.User) (string, error)
}

// Stream devuelve la config del embed. ok=false si no hay dominio.
// Sin usuario o sin secreto el embed va sin accessToken; un error de firma
// distinto de ErrNoSecret se devuelve.
func Stream(s settings.Settings, id Identity, signer Issuer) (StreamConfig, bool, error) {
	if s.Domain == "" {
		return StreamConfig{}, false, nil
	}
	cfg := StreamConfig{
		RootURL:     s.Domain,
		ScriptURL:   s.Domain + "/assets/js/embed.js",
		ContainerID: ContainerID,
	}
	if !id.LoggedIn() || signer == nil {
		return cfg, true, nil
	}
	tok, err := signer.Issue(sso.ResolveSecret(s.SSOSecret), sso.User{ID: id.UserID, Email: id.Email, Username: id.Username})
	if errors.Is(err, sso.ErrNoSecret) {
		return cfg, true, nil
	}
	if err != nil {
		return cfg, true, err
	}
	cfg.AccessToken = tok
	return cfg, true, nil
}

// CountConfig describe el contador de comentarios de una historia.
type CountConfig struct {
	ScriptURL string `json:"script_url"`
	URL       string `json:"url,omitempty"`
	NoText    bool   `json:"no_text"`
}

// Count devuelve la config del contador. ok=false si no hay dominio.
func Count(s settings.Settings, storyURL string, noText bool) (CountConfig, bool) {
	if s.Domain == "" {
		return CountConfig{}, false
	}
	return CountConfig{
		ScriptURL: s.Domain + "/assets/js/count.js",
		URL:       strings.TrimSpace(storyURL),
		NoText:    noText,
	}, true
}
