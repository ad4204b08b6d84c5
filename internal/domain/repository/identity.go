package repository

import (
	"context"
	"time"

	"github.com/dropDatabas3/propmanager/internal/domain/types"
)

// Identity es un usuario autenticable. Pertenece a exactamente un tenant.
type Identity struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         types.Role
	Active       bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateIdentityInput contiene los datos para registrar una identidad.
// TenantID lo completa siempre el servidor (ver tenantsql.EnrichCreate).
type CreateIdentityInput struct {
	TenantID     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         types.Role
}

func (in *CreateIdentityInput) SetTenantID(id string) { in.TenantID = id }

// IdentityRepository define operaciones sobre identidades.
type IdentityRepository interface {
	// GetByEmail busca por email (case-insensitive). ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*Identity, error)

	GetByID(ctx context.Context, id string) (*Identity, error)

	// Create falla con ErrConflict si el email ya existe.
	Create(ctx context.Context, input CreateIdentityInput) (*Identity, error)

	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// UpdatePasswordRevokeSessions guarda el hash nuevo y borra todas las
	// sesiones de la identidad en la misma transacción. Si algo falla no
	// cambia nada. Devuelve las sesiones borradas.
	UpdatePasswordRevokeSessions(ctx context.Context, id, passwordHash string) (int, error)

	SetActive(ctx context.Context, id string, active bool) error

	TouchLastLogin(ctx context.Context, id string, at time.Time) error

	// Delete borra la identidad y todas sus sesiones en la misma transacción.
	Delete(ctx context.Context, id string) error

	// CountByTenant cuenta identidades del tenant (cuota MaxUsers).
	CountByTenant(ctx context.Context, tenantID string) (int, error)

	// TenantForIdentity devuelve el tenant de la identidad. Se usa cuando el
	// token no trae "tid".
	TenantForIdentity(ctx context.Context, identityID string) (string, error)
}
