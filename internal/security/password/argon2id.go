package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Params define el costo de Argon2id.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// Default es el perfil recomendado por OWASP para Argon2id.
var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 2, SaltLen: 16, KeyLen: 32}

// MinBcryptCost es el costo mínimo aceptado para hashes bcrypt heredados.
// Digests más baratos no verifican nunca.
const MinBcryptCost = 12

var ErrEmptyPassword = errors.New("empty password")

// Hasher hashea y verifica credenciales. No guarda estado salvo los params.
type Hasher struct {
	params Params
}

func NewHasher(p Params) *Hasher {
	if p.Memory == 0 {
		p.Memory = Default.Memory
	}
	if p.Time == 0 {
		p.Time = Default.Time
	}
	if p.Parallelism == 0 {
		p.Parallelism = Default.Parallelism
	}
	if p.SaltLen == 0 {
		p.SaltLen = Default.SaltLen
	}
	if p.KeyLen == 0 {
		p.KeyLen = Default.KeyLen
	}
	return &Hasher{params: p}
}

// Hash devuelve un PHC string: $argon2id$v=19$m=...,t=...,p=...$<saltB64>$<dkB64>
func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := argon2.IDKey([]byte(plain), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Verify compara en tiempo constante. Un mismatch o un digest corrupto es false.
// Acepta también digests bcrypt ($2a$/$2b$/$2y$) importados de otros sistemas,
// con costo >= MinBcryptCost.
func (h *Hasher) Verify(plain, digest string) bool {
	if plain == "" || digest == "" {
		return false
	}
	if isBcrypt(digest) {
		if BcryptCost(digest) < MinBcryptCost {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
	}
	p, salt, dk, err := decodePHC(digest)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, uint32(len(dk)))
	return subtle.ConstantTimeCompare(got, dk) == 1
}

// NeedsRehash indica si el digest fue generado con un algoritmo o costo
// distinto al configurado actualmente.
func (h *Hasher) NeedsRehash(digest string) bool {
	if isBcrypt(digest) {
		return true
	}
	p, _, _, err := decodePHC(digest)
	if err != nil {
		return true
	}
	return p.Memory != h.params.Memory || p.Time != h.params.Time || p.Parallelism != h.params.Parallelism
}

// BcryptCost devuelve el costo de un digest bcrypt, o 0 si no lo es.
func BcryptCost(digest string) int {
	if !isBcrypt(digest) {
		return 0
	}
	c, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return 0
	}
	return c
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") || strings.HasPrefix(digest, "$2b$") || strings.HasPrefix(digest, "$2y$")
}

func decodePHC(digest string) (Params, []byte, []byte, error) {
	var p Params
	parts := strings.Split(digest, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, dk
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errors.New("invalid argon2id digest")
	}
	var v int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &v); err != nil || v != argon2.Version {
		return p, nil, nil, errors.New("unsupported argon2 version")
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Parallelism); err != nil {
		return p, nil, nil, err
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, err
	}
	dk, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(dk) == 0 {
		return p, nil, nil, errors.New("invalid argon2id key")
	}
	return p, salt, dk, nil
}
