package middlewares

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/propmanager/internal/http/errors"
	"github.com/dropDatabas3/propmanager/internal/infra/tenantsql"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
)

// TenantResolver resuelve el tenant de un principal. *tenantsql.Resolver lo implementa.
type TenantResolver interface {
	Resolve(ctx context.Context, tokenTenantID, identityID string) (string, error)
}

// WithTenantContext resuelve el tenant del principal y lo deja como Scope en
// el ctx para la Data Access Boundary. Va siempre después de RequireAuth.
func WithTenantContext(res TenantResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p == nil {
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}

			tid, err := res.Resolve(r.Context(), p.TenantID, p.IdentityID)
			if err != nil {
				logger.From(r.Context()).Error("tenant resolution failed", logger.Component("tenant"), logger.Err(err))
				errors.WriteError(w, errors.ErrTenantResolutionFailed.WithCause(err))
				return
			}

			// copia: el principal del ctx padre no se muta
			scoped := *p
			scoped.TenantID = tid

			r = scopeLogger(r, logger.TenantID(tid))
			ctx := WithPrincipal(r.Context(), &scoped)
			ctx = tenantsql.WithScope(ctx, tenantsql.Scope{TenantID: tid, IdentityID: p.IdentityID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
