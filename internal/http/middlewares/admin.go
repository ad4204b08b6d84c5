package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/propmanager/internal/http/errors"
)

// RequireAdmin exige rol admin. Va después de RequireAuth.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p == nil {
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}
			if !p.IsAdmin() {
				errors.WriteError(w, errors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
