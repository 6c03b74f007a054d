// Package settings modela la configuración de la integración con Coral que el
// sitio guarda como preferencias planas (clave → string), y el repositorio que
// las lee y escribe contra un backend intercambiable.
//
// Settings es un valor: se carga fresco en cada operación y se pasa
// explícitamente a cada componente. Nada en este módulo lo cachea.
package settings

import (
	"strconv"
	"strings"
)

// TokenStatus es el resultado del último aprovisionamiento/revocación del token de API.
type TokenStatus string

const (
	StatusNone          TokenStatus = ""
	StatusConnected     TokenStatus = "connected"
	StatusAuthFailed    TokenStatus = "auth_failed"
	StatusTokenFailed   TokenStatus = "token_failed"
	StatusMissingFields TokenStatus = "missing_fields"
	StatusRevoked       TokenStatus = "revoked"
)

// Describe devuelve el texto que el admin muestra para cada estado.
func (s TokenStatus) Describe() string {
	switch s {
	case StatusConnected:
		return "Connected"
	case StatusAuthFailed:
		return "Authentication failed — check email and password"
	case StatusTokenFailed:
		return "Token creation failed — is this account a Coral admin?"
	case StatusMissingFields:
		return "Domain, email and password are all required"
	case StatusRevoked:
		return "Token revoked"
	default:
		return "Not connected"
	}
}

// Claves de preferencia persistidas.
const (
	KeyDomain          = "coral_domain"
	KeySSOSecret       = "coral_sso_secret"
	KeyAPIToken        = "coral_api_token"
	KeyTokenStatus     = "coral_token_status"
	KeyRecentLimit     = "coral_recent_limit"
	KeyBgColor         = "coral_bg_color"
	KeyPhotoPath       = "coral_photo_path"
	KeyPhotoURL        = "coral_photo_url"
	KeyDefaultPhoto    = "coral_default_photo"
	KeySessionUser     = "coral_session_user"
	KeySessionEmail    = "coral_session_email"
	KeySessionUsername = "coral_session_username"
	KeyQueuePageSize   = "coral_queue_page_size"
)

// Keys lista todas las claves conocidas, en orden estable.
var Keys = []string{
	KeyDomain, KeySSOSecret, KeyAPIToken, KeyTokenStatus,
	KeyRecentLimit, KeyBgColor, KeyPhotoPath, KeyPhotoURL, KeyDefaultPhoto,
	KeySessionUser, KeySessionEmail, KeySessionUsername, KeyQueuePageSize,
}

// IsKnownKey indica si k es una clave de preferencia válida.
func IsKnownKey(k string) bool {
	for _, known := range Keys {
		if k == known {
			return true
		}
	}
	return false
}

// Defaults
const (
	DefaultRecentLimit   = "10"
	DefaultBgColor       = "#D9E0DC"
	DefaultPhotoURL      = "/membership/photos/"
	DefaultPhoto         = "user.jpg"
	DefaultQueuePageSize = 20
)

// SessionKeys nombra dónde guarda el sitio id/email/username del usuario logueado.
type SessionKeys struct {
	User     string
	Email    string
	Username string
}

// Display son los defaults de presentación de los comentarios recientes.
type Display struct {
	// RecentLimit se guarda crudo; se castea a entero al usarlo.
	RecentLimit  string
	BgColor      string
	PhotoPath    string
	PhotoURL     string
	DefaultPhoto string
}

// Settings es la configuración completa de la integración.
type Settings struct {
	Domain        string
	SSOSecret     string
	APIToken      string
	TokenStatus   TokenStatus
	Session       SessionKeys
	Display       Display
	QueuePageSize int
}

// TokenPreview devuelve los primeros 24 caracteres del token seguidos de "…", o "None".
func (s Settings) TokenPreview() string {
	if s.APIToken == "" {
		return "None"
	}
	r := []rune(s.APIToken)
	if len(r) > 24 {
		r = r[:24]
	}
	return string(r) + "…"
}

// NormalizeDomain quita espacios y barras finales.
func NormalizeDomain(d string) string {
	return strings.TrimRight(strings.TrimSpace(d), "/")
}

// fromValues arma Settings desde preferencias planas aplicando defaults.
// El token de API llega ya abierto.
func fromValues(v map[string]string) Settings {
	s := Settings{
		Domain:      NormalizeDomain(v[KeyDomain]),
		SSOSecret:   strings.TrimSpace(v[KeySSOSecret]),
		APIToken:    strings.TrimSpace(v[KeyAPIToken]),
		TokenStatus: TokenStatus(v[KeyTokenStatus]),
		Session: SessionKeys{
			User:     orDefault(v[KeySessionUser], "user"),
			Email:    orDefault(v[KeySessionEmail], "email"),
			Username: orDefault(v[KeySessionUsername], "username"),
		},
		Display: Display{
			RecentLimit:  orDefault(v[KeyRecentLimit], DefaultRecentLimit),
			BgColor:      orDefault(v[KeyBgColor], DefaultBgColor),
			PhotoPath:    v[KeyPhotoPath],
			PhotoURL:     orDefault(v[KeyPhotoURL], DefaultPhotoURL),
			DefaultPhoto: orDefault(v[KeyDefaultPhoto], DefaultPhoto),
		},
		QueuePageSize: DefaultQueuePageSize,
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v[KeyQueuePageSize])); err == nil && n > 0 {
		s.QueuePageSize = n
	}
	return s
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
