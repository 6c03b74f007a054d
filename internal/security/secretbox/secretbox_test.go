package secretbox

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	return raw
}

func TestSealOpen_RoundTrip(t *testing.T) {
	box, err := New(base64.StdEncoding.EncodeToString(testKey()))
	require.NoError(t, err)

	msg := "eyJhbGciOiJIUzI1NiJ9.token ✓"
	ct, err := box.Seal(msg)
	require.NoError(t, err)
	assert.NotContains(t, ct, "token")

	pt, err := box.Open(ct)
	require.NoError(t, err)
	assert.Equal(t, msg, pt)
}

func TestOpen_DetectsTamper(t *testing.T) {
	box, err := New(hex.EncodeToString(testKey()))
	require.NoError(t, err)

	ct, err := box.Seal("top secret")
	require.NoError(t, err)

	parts := strings.Split(ct, "|")
	require.Len(t, parts, 2)
	bs, err := base64.StdEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	bs[0] ^= 0x01 // flip
	corrupted := parts[0] + "|" + base64.StdEncoding.EncodeToString(bs)

	_, err = box.Open(corrupted)
	require.Error(t, err)

	_, err = box.Open("no-separator")
	require.Error(t, err)
}

func TestNew_KeyFormats(t *testing.T) {
	_, err := New("")
	require.ErrorIs(t, err, ErrNoKey)

	_, err = New("short")
	require.Error(t, err)

	_, err = New(base64.RawStdEncoding.EncodeToString(testKey()))
	require.NoError(t, err)

	_, err = New(strings.Repeat("k", 32))
	require.NoError(t, err)

	k, err := GenerateKey()
	require.NoError(t, err)
	_, err = New(k)
	require.NoError(t, err)
}

func TestDifferentKeysCannotOpen(t *testing.T) {
	a, err := New(strings.Repeat("a", 32))
	require.NoError(t, err)
	b, err := New(strings.Repeat("b", 32))
	require.NoError(t, err)

	ct, err := a.Seal("x")
	require.NoError(t, err)
	_, err = b.Open(ct)
	require.Error(t, err)
}
