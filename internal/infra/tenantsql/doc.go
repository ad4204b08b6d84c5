// Package tenantsql ata el contexto de tenant de cada request a la conexión
// física de PostgreSQL que ejecuta sus queries.
//
// Las políticas RLS leen current_setting('app.current_tenant_id'), que es
// estado de la conexión, no de la request. Por eso toda unidad de trabajo
// tenant-scoped pasa por Boundary:
//
//	Acquire (con timeout) → set_config(...) → fn(conn) → reset → Release
//
// Una conexión cuyo reset falla se destruye y nunca vuelve al pool.
package tenantsql
