package tenantsql

import "context"

// TenantOwned es cualquier payload de creación que lleva tenant_id.
type TenantOwned interface {
	SetTenantID(id string)
}

// EnrichCreate pisa el tenant del payload con el tenant verificado de la
// request. Lo que haya mandado el cliente se descarta.
func EnrichCreate(ctx context.Context, payload TenantOwned) error {
	s, ok := ScopeFrom(ctx)
	if !ok {
		return ErrNoScope
	}
	payload.SetTenantID(s.TenantID)
	return nil
}
