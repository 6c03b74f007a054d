package embed

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/coralbridge/internal/settings"
	"github.com/dropDatabas3/coralbridge/internal/sso"
)

func keys() settings.SessionKeys {
	return settings.SessionKeys{User: "user", Email: "email", Username: "username"}
}

func TestIdentityFromRequest(t *testing.T) {
	trust, err := NewTrust("shh", nil)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/v1/embed", nil)
	r.Header.Set(ProxySecretHeader, "shh")
	r.Header.Set("X-Session-User", "42")
	r.Header.Set("X-Session-Email", "ana@site")
	r.AddCookie(&http.Cookie{Name: "username", Value: "ignored"})

	id := IdentityFromRequest(r, keys(), trust)
	assert.Equal(t, Identity{UserID: "42", Email: "ana@site"}, id)
	assert.True(t, id.LoggedIn())

	anon := IdentityFromRequest(httptest.NewRequest(http.MethodGet, "/", nil), keys(), trust)
	assert.False(t, anon.LoggedIn())
}

func TestIdentityFromRequest_ForgedCookiesGetNoToken(t *testing.T) {
	trust, err := NewTrust("shh", []string{"10.0.0.0/8"})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/v1/embed", nil)
	r.RemoteAddr = "203.0.113.9:5555"
	r.AddCookie(&http.Cookie{Name: "user", Value: "1"})
	r.AddCookie(&http.Cookie{Name: "email", Value: "admin@site.example"})
	r.AddCookie(&http.Cookie{Name: "username", Value: "admin"})

	id := IdentityFromRequest(r, keys(), trust)
	assert.False(t, id.LoggedIn())

	s := settings.Settings{Domain: "https://coral.example", SSOSecret: "ssosec_k"}
	cfg, ok, err := Stream(s, id, sso.NewSigner())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, cfg.AccessToken)
}

func TestIdentityFromRequest_UntrustedHeaders(t *testing.T) {
	cases := []struct {
		name   string
		trust  func() Trust
		secret string
		remote string
	}{
		{"no trust configured", func() Trust { return Trust{} }, "shh", "10.1.2.3:80"},
		{"wrong secret", func() Trust { tr, _ := NewTrust("shh", nil); return tr }, "nope", "10.1.2.3:80"},
		{"outside trusted net", func() Trust { tr, _ := NewTrust("", []string{"10.0.0.0/8"}); return tr }, "", "192.0.2.1:80"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/v1/embed", nil)
			r.RemoteAddr = tc.remote
			r.Header.Set("X-Forwarded-For", "10.0.0.1")
			if tc.secret != "" {
				r.Header.Set(ProxySecretHeader, tc.secret)
			}
			r.Header.Set("X-Session-User", "1")
			assert.False(t, IdentityFromRequest(r, keys(), tc.trust()).LoggedIn())
		})
	}
}

func TestIdentityFromRequest_TrustedNetwork(t *testing.T) {
	trust, err := NewTrust("", []string{"10.0.0.0/8", "::1/128"})
	require.NoError(t, err)
	assert.True(t, trust.Enabled())

	for _, remote := range []string{"10.20.30.40:1234", "[::1]:8080"} {
		r := httptest.NewRequest(http.MethodGet, "/v1/embed", nil)
		r.RemoteAddr = remote
		r.Header.Set("X-Session-User", "7")
		assert.Equal(t, "7", IdentityFromRequest(r, keys(), trust).UserID, remote)
	}
}

func TestNewTrust_BadCIDR(t *testing.T) {
	_, err := NewTrust("", []string{"10.0.0.0/99"})
	require.Error(t, err)
	assert.False(t, Trust{}.Enabled())
}

func TestStream(t *testing.T) {
	signer := sso.NewSigner(
		sso.WithClock(func() time.Time { return time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC) }),
		sso.WithRandom(bytes.NewReader(bytes.Repeat([]byte{1}, 64))),
	)
	s := settings.Settings{Domain: "https://coral.example", SSOSecret: "ssosec_k"}

	cfg, ok, err := Stream(s, Identity{UserID: "42", Email: "a@b", Username: "ana"}, signer)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://coral.example/assets/js/embed.js", cfg.ScriptURL)
	assert.Equal(t, "coral_thread", cfg.ContainerID)
	require.NotEmpty(t, cfg.AccessToken)

	claims, err := sso.Verify("k", cfg.AccessToken, jwtNow())
	require.NoError(t, err)
	assert.Equal(t, "ana", claims.User.Username)
}

func TestStream_NoTokenCases(t *testing.T) {
	signer := sso.NewSigner()

	_, ok, _ := Stream(settings.Settings{}, Identity{UserID: "1"}, signer)
	assert.False(t, ok)

	cfg, ok, err := Stream(settings.Settings{Domain: "https://c"}, Identity{UserID: "1"}, signer)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, cfg.AccessToken, "no secret → no token")

	cfg, _, err = Stream(settings.Settings{Domain: "https://c", SSOSecret: "x"}, Identity{}, signer)
	require.NoError(t, err)
	assert.Empty(t, cfg.AccessToken, "anonymous → no token")
}

type failingIssuer struct{}

func (failingIssuer) Issue(string, sso.User) (string, error) { return "", errors.New("rng") }

func TestStream_SignError(t *testing.T) {
	_, ok, err := Stream(settings.Settings{Domain: "https://c", SSOSecret: "x"}, Identity{UserID: "1"}, failingIssuer{})
	assert.True(t, ok)
	require.Error(t, err)
}

func TestCount(t *testing.T) {
	_, ok := Count(settings.Settings{}, "https://site/a", false)
	assert.False(t, ok)

	c, ok := Count(settings.Settings{Domain: "https://c"}, " https://site/a ", true)
	require.True(t, ok)
	assert.Equal(t, CountConfig{ScriptURL: "https://c/assets/js/count.js", URL: "https://site/a", NoText: true}, c)
}

func jwtNow() jwtv5.ParserOption {
	return jwtv5.WithTimeFunc(func() time.Time { return time.Date(2024, 5, 6, 0, 10, 0, 0, time.UTC) })
}
