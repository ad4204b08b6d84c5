package tokens

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SHA256Hex devuelve sha256(input) en hexadecimal. Es la clave con la que se
// guardan los refresh tokens; el valor crudo nunca llega a la DB.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Equal compara dos secretos en tiempo constante. Hashea ambos lados para no
// filtrar el largo esperado.
func Equal(got, want string) bool {
	if want == "" {
		return false
	}
	a := sha256.Sum256([]byte(got))
	b := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
