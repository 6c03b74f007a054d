package sso

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

func fixedSigner() *Signer {
	return NewSigner(
		WithClock(func() time.Time { return fixedNow }),
		WithRandom(bytes.NewReader(bytes.Repeat([]byte{0xff}, 16))),
	)
}

func decodeSegment(t *testing.T, seg string) []byte {
	t.Helper()
	require.NotContains(t, seg, "=", "segment must not be padded")
	b, err := base64.RawURLEncoding.DecodeString(seg)
	require.NoError(t, err)
	return b
}

func TestResolveSecret(t *testing.T) {
	assert.Equal(t, "abc123", ResolveSecret("ssosec_abc123"))
	assert.Equal(t, "abc123", ResolveSecret("abc123"))
	assert.Equal(t, "", ResolveSecret(""))
	// solo se quita un prefijo
	assert.Equal(t, "ssosec_x", ResolveSecret("ssosec_ssosec_x"))
	assert.Equal(t, "xssosec_", ResolveSecret("xssosec_"))
}

func TestIssue_EmptySecret(t *testing.T) {
	for _, u := range []User{{}, {ID: "1", Email: "a@b.c", Username: "ann"}} {
		tok, err := NewSigner().Issue("", u)
		require.ErrorIs(t, err, ErrNoSecret)
		assert.Empty(t, tok)
	}
}

func TestIssue_Structure(t *testing.T) {
	secret := "s3cr3t"
	tok, err := fixedSigner().Issue(secret, User{ID: "42", Email: "ann@example.com", Username: "ann"})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	var header map[string]string
	require.NoError(t, json.Unmarshal(decodeSegment(t, parts[0]), &header))
	assert.Equal(t, map[string]string{"alg": "HS256", "typ": "JWT"}, header)

	var payload struct {
		JTI  string `json:"jti"`
		IAT  int64  `json:"iat"`
		EXP  int64  `json:"exp"`
		User User   `json:"user"`
	}
	require.NoError(t, json.Unmarshal(decodeSegment(t, parts[1]), &payload))
	assert.Equal(t, fixedNow.Unix(), payload.IAT)
	assert.Equal(t, int64(3600), payload.EXP-payload.IAT)
	assert.Equal(t, User{ID: "42", Email: "ann@example.com", Username: "ann"}, payload.User)

	// HMAC-SHA256 sobre "<header>.<payload>" con la misma clave
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(parts[0] + "." + parts[1]))
	assert.True(t, hmac.Equal(mac.Sum(nil), decodeSegment(t, parts[2])))
}

func TestIssue_JTIIsVersion4(t *testing.T) {
	tok, err := fixedSigner().Issue("k", User{ID: "1"})
	require.NoError(t, err)

	claims, err := Verify("k", tok, jwtv5.WithTimeFunc(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	id, err := uuid.Parse(claims.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), id.Version())
	assert.Equal(t, uuid.RFC4122, id.Variant())
	// todos los bytes 0xff: solo cambian los bits de versión y variante
	assert.Equal(t, "ffffffff-ffff-4fff-bfff-ffffffffffff", claims.ID)
}

func TestIssue_FreshJTIPerCall(t *testing.T) {
	s := NewSigner()
	a, err := s.Issue("k", User{ID: "1"})
	require.NoError(t, err)
	b, err := s.Issue("k", User{ID: "1"})
	require.NoError(t, err)

	ca, err := Verify("k", a)
	require.NoError(t, err)
	cb, err := Verify("k", b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
	assert.Equal(t, TTL, cb.ExpiresAt.Sub(cb.IssuedAt.Time))
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := NewSigner().Issue("right", User{ID: "1"})
	require.NoError(t, err)

	_, err = Verify("wrong", tok)
	require.Error(t, err)

	_, err = Verify("", tok)
	require.ErrorIs(t, err, ErrNoSecret)
}
