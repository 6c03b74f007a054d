// Package sso emite los tokens de single-sign-on que Coral acepta en el embed.
//
// El token es un JWT HS256 de un solo uso por render: jti aleatorio (UUIDv4),
// iat = ahora, exp = iat + 1h, y el bloque "user" con id/email/username.
package sso

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TTL es la vida fija de un token SSO.
const TTL = time.Hour

// ErrNoSecret indica que no hay clave SSO configurada: el caller debe omitir SSO.
var ErrNoSecret = errors.New("sso: signing secret not configured")

// User es la identidad del visitante tal como la espera Coral.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Claims es el payload del token SSO.
type Claims struct {
	User User `json:"user"`
	jwtv5.RegisteredClaims
}

// Signer firma tokens SSO. El reloj y la fuente aleatoria son inyectables para tests.
type Signer struct {
	now    func() time.Time
	random io.Reader
}

// Option configura un Signer.
type Option func(*Signer)

// WithClock reemplaza time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// WithRandom reemplaza crypto/rand como fuente del jti.
func WithRandom(r io.Reader) Option {
	return func(s *Signer) { s.random = r }
}

// NewSigner crea un Signer con reloj real y crypto/rand.
func NewSigner(opts ...Option) *Signer {
	s := &Signer{now: time.Now, random: rand.Reader}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue construye y firma un token para u con la clave ya normalizada (ver ResolveSecret).
// Con secret vacío devuelve ErrNoSecret y no emite nada.
func (s *Signer) Issue(secret string, u User) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}

	// uuid.NewRandomFromReader lee 16 bytes y fija version=0100 y variant=10 (RFC 4122)
	jti, err := uuid.NewRandomFromReader(s.random)
	if err != nil {
		return "", fmt.Errorf("sso: jti: %w", err)
	}

	iat := s.now().UTC().Truncate(time.Second)
	claims := Claims{
		User: u,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        jti.String(),
			IssuedAt:  jwtv5.NewNumericDate(iat),
			ExpiresAt: jwtv5.NewNumericDate(iat.Add(TTL)),
		},
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sso: sign: %w", err)
	}
	return signed, nil
}

// Verify parsea y valida un token SSO firmado con secret. Solo acepta HS256.
// Lo usan los tests y el comando `sso verify` del CLI.
func Verify(secret, token string, opts ...jwtv5.ParserOption) (*Claims, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	opts = append([]jwtv5.ParserOption{jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()})}, opts...)

	var claims Claims
	_, err := jwtv5.ParseWithClaims(token, &claims, func(*jwtv5.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("sso: verify: %w", err)
	}
	return &claims, nil
}
