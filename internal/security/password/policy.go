package password

import (
	"strings"
	"unicode"
)

// DefaultSymbols es el set de símbolos aceptados por la política.
const DefaultSymbols = "!@#$%^&*()-_=+[]{};:,.?/~"

// Policy define la complejidad mínima exigida en registro y cambio de password.
type Policy struct {
	MinLength int
	Symbols   string
	Blacklist *Blacklist
}

// DefaultPolicy: 8+ caracteres, al menos una letra, un dígito y un símbolo.
func DefaultPolicy() Policy {
	return Policy{MinLength: 8, Symbols: DefaultSymbols}
}

// Validate devuelve ok=false y los motivos cuando s no cumple la política.
func (p Policy) Validate(s string) (ok bool, reasons []string) {
	minLen := p.MinLength
	if minLen <= 0 {
		minLen = 8
	}
	symbols := p.Symbols
	if symbols == "" {
		symbols = DefaultSymbols
	}

	if len([]rune(s)) < minLen {
		reasons = append(reasons, "too_short")
	}
	var hasL, hasD, hasS bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case strings.ContainsRune(symbols, r):
			hasS = true
		}
	}
	if !hasL {
		reasons = append(reasons, "missing_letter")
	}
	if !hasD {
		reasons = append(reasons, "missing_digit")
	}
	if !hasS {
		reasons = append(reasons, "missing_symbol")
	}
	if p.Blacklist.Contains(s) {
		reasons = append(reasons, "blacklisted")
	}
	return len(reasons) == 0, reasons
}

// PolicyError lleva los motivos de rechazo de Validate.
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return "password policy: " + strings.Join(e.Reasons, ",")
}

// Check es Validate con forma de error; nil si s cumple la política.
func (p Policy) Check(s string) error {
	if ok, reasons := p.Validate(s); !ok {
		return &PolicyError{Reasons: reasons}
	}
	return nil
}
