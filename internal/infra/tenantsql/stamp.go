package tenantsql

import "context"

const (
	// Nombres de las variables que leen las políticas RLS.
	TenantSetting   = "app.current_tenant_id"
	IdentitySetting = "app.current_identity_id"

	stampSQL = `SELECT set_config('app.current_tenant_id', $1, $3), set_config('app.current_identity_id', $2, $3)`
	resetSQL = `SELECT set_config('app.current_tenant_id', '', false), set_config('app.current_identity_id', '', false)`
)

// stamp fija el scope en la conexión. local=true limita el valor a la
// transacción en curso.
func stamp(ctx context.Context, c Conn, s Scope, local bool) error {
	_, err := c.Exec(ctx, stampSQL, s.TenantID, s.IdentityID, local)
	return err
}

// reset deja la conexión sin tenant. Una conexión sin tenant no ve filas
// (las políticas comparan contra NULL).
func reset(ctx context.Context, c Conn) error {
	_, err := c.Exec(ctx, resetSQL)
	return err
}
