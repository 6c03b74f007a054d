package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store es el backend de preferencias: un mapa plano clave → valor.
// Save hace upsert de las claves dadas y no toca las demás.
type Store interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, values map[string]string) error
}

// Sealer cifra el token de API en reposo (implementado por secretbox.Box).
type Sealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

// sealedPrefix marca un valor cifrado por Sealer.
const sealedPrefix = "sealed:"

var (
	// ErrUnknownKey: clave de preferencia desconocida.
	ErrUnknownKey = errors.New("settings: unknown preference key")
	// ErrSealedNoKey: el token está cifrado y no hay Sealer configurado.
	ErrSealedNoKey = errors.New("settings: api token is sealed but no secretbox key is configured")
)

// Preferences son los campos del formulario "guardar configuración".
type Preferences struct {
	Domain       string `json:"domain" yaml:"domain"`
	SSOSecret    string `json:"sso_secret" yaml:"sso_secret"`
	PhotoPath    string `json:"photo_path" yaml:"photo_path"`
	PhotoURL     string `json:"photo_url" yaml:"photo_url"`
	DefaultPhoto string `json:"default_photo" yaml:"default_photo"`
	RecentLimit  string `json:"recent_limit" yaml:"recent_limit"`
	BgColor      string `json:"bg_color" yaml:"bg_color"`
}

// Repository lee y escribe Settings contra un Store. No cachea.
type Repository struct {
	store  Store
	sealer Sealer
}

// RepositoryOption configura un Repository.
type RepositoryOption func(*Repository)

// WithSealer cifra el token de API al guardarlo.
func WithSealer(s Sealer) RepositoryOption {
	return func(r *Repository) { r.sealer = s }
}

// NewRepository crea un Repository sobre store.
func NewRepository(store Store, opts ...RepositoryOption) *Repository {
	r := &Repository{store: store}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Load lee todas las preferencias y arma Settings con defaults.
func (r *Repository) Load(ctx context.Context) (Settings, error) {
	values, err := r.store.Load(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	if values == nil {
		values = map[string]string{}
	}
	tok, err := r.open(values[KeyAPIToken])
	if err != nil {
		return Settings{}, err
	}
	values[KeyAPIToken] = tok
	return fromValues(values), nil
}

// SavePreferences guarda los campos del formulario tal cual llegan.
func (r *Repository) SavePreferences(ctx context.Context, p Preferences) error {
	return r.save(ctx, map[string]string{
		KeyDomain:       strings.TrimSpace(p.Domain),
		KeySSOSecret:    strings.TrimSpace(p.SSOSecret),
		KeyPhotoPath:    p.PhotoPath,
		KeyPhotoURL:     p.PhotoURL,
		KeyDefaultPhoto: p.DefaultPhoto,
		KeyRecentLimit:  p.RecentLimit,
		KeyBgColor:      p.BgColor,
	})
}

// StoreToken guarda un token de API nuevo y marca el estado como connected.
func (r *Repository) StoreToken(ctx context.Context, token string) error {
	sealed, err := r.seal(token)
	if err != nil {
		return err
	}
	return r.save(ctx, map[string]string{
		KeyAPIToken:    sealed,
		KeyTokenStatus: string(StatusConnected),
	})
}

// SetTokenStatus guarda solo el estado del token.
func (r *Repository) SetTokenStatus(ctx context.Context, st TokenStatus) error {
	return r.save(ctx, map[string]string{KeyTokenStatus: string(st)})
}

// RevokeToken borra el token guardado y marca el estado como revoked.
// El token no se invalida del lado de Coral.
func (r *Repository) RevokeToken(ctx context.Context) error {
	return r.save(ctx, map[string]string{
		KeyAPIToken:    "",
		KeyTokenStatus: string(StatusRevoked),
	})
}

// Set guarda una preferencia individual (CLI `settings set`).
// El token de API pasa por el Sealer como en StoreToken.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if key == KeyAPIToken && value != "" {
		sealed, err := r.seal(value)
		if err != nil {
			return err
		}
		value = sealed
	}
	return r.save(ctx, map[string]string{key: value})
}

func (r *Repository) save(ctx context.Context, values map[string]string) error {
	if err := r.store.Save(ctx, values); err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}

func (r *Repository) seal(token string) (string, error) {
	if r.sealer == nil || token == "" {
		return token, nil
	}
	ct, err := r.sealer.Seal(token)
	if err != nil {
		return "", fmt.Errorf("settings: seal api token: %w", err)
	}
	return sealedPrefix + ct, nil
}

func (r *Repository) open(v string) (string, error) {
	if !strings.HasPrefix(v, sealedPrefix) {
		return v, nil
	}
	if r.sealer == nil {
		return "", ErrSealedNoKey
	}
	pt, err := r.sealer.Open(strings.TrimPrefix(v, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("settings: open api token: %w", err)
	}
	return pt, nil
}
