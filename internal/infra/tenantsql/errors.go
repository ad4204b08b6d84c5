package tenantsql

import "errors"

var (
	// ErrResourceExhausted: no hubo conexión libre dentro del acquire timeout.
	ErrResourceExhausted = errors.New("tenantsql: connection pool exhausted")

	// ErrUnavailable: el pool no pudo entregar una conexión por otra causa
	// (DB caída, pool cerrado).
	ErrUnavailable = errors.New("tenantsql: database unavailable")

	// ErrTenantContext: no se pudo fijar el contexto de tenant en la conexión
	// y el modo es fail-closed.
	ErrTenantContext = errors.New("tenantsql: tenant context could not be set")

	// ErrTenantResolution: no se pudo determinar el tenant de la identidad.
	ErrTenantResolution = errors.New("tenantsql: tenant could not be resolved")

	// ErrNoScope: se pidió una unidad tenant-scoped sin Scope en el context.
	ErrNoScope = errors.New("tenantsql: no tenant scope in context")
)
