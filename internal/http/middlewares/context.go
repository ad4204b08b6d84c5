package middlewares

import (
	"context"

	"github.com/dropDatabas3/propmanager/internal/domain/types"
)

type ctxKey string

const (
	ctxPrincipalKey ctxKey = "principal"
	ctxRequestIDKey ctxKey = "request_id"
)

// Principal es la identidad autenticada del request. TenantID queda vacío
// hasta que corre WithTenantContext.
type Principal struct {
	IdentityID string
	Email      string
	Role       types.Role
	TenantID   string
}

func (p *Principal) IsAdmin() bool { return p != nil && p.Role == types.RoleAdmin }

// WithPrincipal inyecta el principal en el contexto
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey, p)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetPrincipal devuelve nil si RequireAuth no corrió.
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(ctxPrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

// MustGetPrincipal hace panic si no hay principal. Solo en rutas protegidas.
func MustGetPrincipal(ctx context.Context) *Principal {
	p := GetPrincipal(ctx)
	if p == nil {
		panic("middlewares: no principal in context")
	}
	return p
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}
