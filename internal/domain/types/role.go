// Package types define tipos de dominio compartidos entre paquetes.
package types

// Role es el rol de una identidad dentro de su tenant.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// IsValid retorna true si el rol es conocido.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

// FailMode define qué hacer cuando no se puede fijar el contexto de tenant
// en una conexión.
type FailMode string

const (
	// FailClosed aborta la unidad de trabajo (default).
	FailClosed FailMode = "closed"
	// FailOpen loguea y sigue; la DB niega por default si las variables no están.
	FailOpen FailMode = "open"
)

func (m FailMode) IsValid() bool {
	return m == FailClosed || m == FailOpen
}
