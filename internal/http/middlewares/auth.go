package middlewares

import (
	stderrs "errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/propmanager/internal/domain/types"
	"github.com/dropDatabas3/propmanager/internal/http/errors"
	"github.com/dropDatabas3/propmanager/internal/jwt"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
)

// AccessVerifier verifica access tokens. *jwt.Issuer lo implementa.
type AccessVerifier interface {
	VerifyAccess(token string) (*jwt.Claims, error)
}

func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// RequireAuth exige un access token válido y carga el Principal en el ctx.
// No toca la base: el token es autocontenido.
func RequireAuth(v AccessVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}

			claims, err := v.VerifyAccess(raw)
			if err != nil {
				if stderrs.Is(err, jwt.ErrTokenExpired) {
					w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="expired"`)
					errors.WriteError(w, errors.ErrTokenExpired)
					return
				}
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenInvalid)
				return
			}

			role := types.Role(claims.Role)
			if !role.IsValid() {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenInvalid.WithDetail("unknown role"))
				return
			}

			p := &Principal{
				IdentityID: claims.IdentityID(),
				Email:      claims.Email,
				Role:       role,
				TenantID:   claims.TenantID,
			}
			r = scopeLogger(r, logger.IdentityID(p.IdentityID), logger.Role(string(p.Role)))
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
