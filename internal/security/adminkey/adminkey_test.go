package adminkey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// params chicos para que los tests sean rápidos
var fast = Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16}

func TestHashVerify(t *testing.T) {
	phc, err := Hash(fast, "s3cret-admin")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(phc, "$argon2id$v=19$m=1024,t=1,p=1$"))

	assert.True(t, Verify("s3cret-admin", phc))
	assert.False(t, Verify("wrong", phc))
	assert.False(t, Verify("", phc))
}

func TestHash_Empty(t *testing.T) {
	_, err := Hash(fast, "")
	require.ErrorIs(t, err, ErrEmptyKey)
}

func TestVerify_Malformed(t *testing.T) {
	for _, phc := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$ZGs",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$ZGs",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$ZGs",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$ZGs",
	} {
		assert.False(t, Verify("k", phc), phc)
	}
}

func TestVerifier(t *testing.T) {
	assert.Nil(t, NewVerifier("  "))
	var nilV *Verifier
	assert.False(t, nilV.Verify("x"))

	phc, err := Hash(fast, "k1")
	require.NoError(t, err)
	v := NewVerifier(phc)
	require.NotNil(t, v)
	assert.True(t, v.Verify("k1"))
	assert.False(t, v.Verify("k2"))
}
