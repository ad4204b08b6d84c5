package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour

	// MinSecretLen es el largo mínimo aceptado para cada secreto HMAC.
	MinSecretLen = 32
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
	ErrWeakSecret   = errors.New("jwt secret too short")
	ErrSameSecret   = errors.New("access and refresh secrets must differ")
)

// Issuer firma y verifica access/refresh tokens con HS256.
// Los secretos son inmutables después de construirlo.
type Issuer struct {
	iss           string
	accessSecret  []byte
	refreshSecret []byte

	// Now permite fijar el reloj en tests.
	Now func() time.Time
}

func NewIssuer(iss string, accessSecret, refreshSecret []byte) (*Issuer, error) {
	if len(accessSecret) < MinSecretLen || len(refreshSecret) < MinSecretLen {
		return nil, ErrWeakSecret
	}
	if string(accessSecret) == string(refreshSecret) {
		return nil, ErrSameSecret
	}
	return &Issuer{
		iss:           iss,
		accessSecret:  append([]byte(nil), accessSecret...),
		refreshSecret: append([]byte(nil), refreshSecret...),
		Now:           time.Now,
	}, nil
}

func (i *Issuer) now() time.Time {
	if i.Now == nil {
		return time.Now()
	}
	return i.Now()
}

// IssueAccessToken firma un access token de 15 minutos.
func (i *Issuer) IssueAccessToken(identityID, email, role, tenantID string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(AccessTTL)
	c := Claims{
		Email:    email,
		Role:     role,
		TenantID: tenantID,
		Use:      UseAccess,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.iss,
			Subject:   identityID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}
	signed, err := i.sign(c, i.accessSecret)
	return signed, exp, err
}

// IssueRefreshToken firma un refresh token de 7 días. El jti aleatorio
// garantiza que dos emisiones nunca produzcan el mismo string.
func (i *Issuer) IssueRefreshToken(identityID string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(RefreshTTL)
	c := Claims{
		Use: UseRefresh,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.iss,
			Subject:   identityID,
			ID:        uuid.NewString(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}
	signed, err := i.sign(c, i.refreshSecret)
	return signed, exp, err
}

func (i *Issuer) sign(c Claims, secret []byte) (string, error) {
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, c)
	signed, err := tk.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", c.Use, err)
	}
	return signed, nil
}

// VerifyAccess valida un access token.
func (i *Issuer) VerifyAccess(token string) (*Claims, error) {
	return i.verify(token, i.accessSecret, UseAccess)
}

// VerifyRefresh valida un refresh token. No consulta el registro de sesiones.
func (i *Issuer) VerifyRefresh(token string) (*Claims, error) {
	return i.verify(token, i.refreshSecret, UseRefresh)
}

// Verify valida firma y expiración contra un secreto arbitrario sin mirar "typ".
func (i *Issuer) Verify(token string, secret []byte) (*Claims, error) {
	return i.verify(token, secret, "")
}

func (i *Issuer) verify(token string, secret []byte, use string) (*Claims, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(i.now),
	}
	if i.iss != "" {
		opts = append(opts, jwtv5.WithIssuer(i.iss))
	}

	var c Claims
	_, err := jwtv5.ParseWithClaims(token, &c, func(*jwtv5.Token) (any, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if use != "" && c.Use != use {
		return nil, ErrTokenInvalid
	}
	if c.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return &c, nil
}
