// Package adminkey hashea y verifica la API key de administración con argon2id.
// El hash se guarda en config como PHC string; la key en claro nunca se persiste.
package adminkey

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
}

var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32}

var ErrEmptyKey = errors.New("adminkey: empty key")

// Hash devuelve un PHC string: $argon2id$v=19$m=...,t=...,p=...$<saltB64>$<dkB64>
func Hash(p Params, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := argon2.IDKey([]byte(key), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Verify compara key contra el PHC en tiempo constante.
// Un PHC mal formado nunca verifica.
func Verify(key, phc string) bool {
	if key == "" {
		return false
	}
	parts := strings.Split(phc, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, dk
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	var v int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &v); err != nil || v != argon2.Version {
		return false
	}
	var m, t, p int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil || m <= 0 || t <= 0 || p <= 0 || p > 255 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	dkStored, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(dkStored) == 0 {
		return false
	}
	dk := argon2.IDKey([]byte(key), salt, uint32(t), uint32(m), uint8(p), uint32(len(dkStored)))
	return subtle.ConstantTimeCompare(dk, dkStored) == 1
}

// Verifier verifica contra un hash fijo (el de config).
type Verifier struct {
	phc string
}

// NewVerifier devuelve nil si phc está vacío: sin hash no hay admin API.
func NewVerifier(phc string) *Verifier {
	phc = strings.TrimSpace(phc)
	if phc == "" {
		return nil
	}
	return &Verifier{phc: phc}
}

func (v *Verifier) Verify(key string) bool {
	if v == nil {
		return false
	}
	return Verify(key, v.phc)
}

// Enabled es false para un Verifier nil.
func (v *Verifier) Enabled() bool { return v != nil }
