package tenantsql

import "context"

// Scope es el contexto de tenant de una request. Vive en el context.Context
// y nunca sobrevive a la request.
type Scope struct {
	TenantID   string
	IdentityID string
}

type scopeKey struct{}

// WithScope devuelve un ctx con el scope dado. Lo usan el middleware de tenant
// y los flujos de sistema (webhooks) que traen el tenant explícito.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom extrae el scope; ok=false si no hay o si no tiene tenant.
func ScopeFrom(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(Scope)
	if !ok || s.TenantID == "" {
		return Scope{}, false
	}
	return s, true
}
