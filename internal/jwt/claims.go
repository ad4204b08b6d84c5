package jwt

import (
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Valores del claim "typ".
const (
	UseAccess  = "access"
	UseRefresh = "refresh"
)

// Claims es el payload de ambos tokens. Los access llevan email, rol y tenant;
// los refresh solo sub + jti.
type Claims struct {
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	TenantID string `json:"tid,omitempty"`
	Use      string `json:"typ"`
	jwtv5.RegisteredClaims
}

// IdentityID es un alias legible de "sub".
func (c *Claims) IdentityID() string { return c.Subject }
