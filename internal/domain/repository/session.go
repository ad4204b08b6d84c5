package repository

import (
	"context"
	"time"
)

// Session es una sesión de refresh persistida. Solo se guarda el hash del token.
type Session struct {
	TokenHash  string
	IdentityID string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// SessionRepository define operaciones sobre sesiones.
type SessionRepository interface {
	Create(ctx context.Context, s Session) error

	// GetByHash devuelve ErrNotFound si no existe. No filtra por expiración.
	GetByHash(ctx context.Context, tokenHash string) (*Session, error)

	// DeleteByHash es idempotente: borrar algo inexistente no es error.
	DeleteByHash(ctx context.Context, tokenHash string) error

	// DeleteByIdentity retorna el número de sesiones borradas.
	DeleteByIdentity(ctx context.Context, identityID string) (int, error)

	// DeleteExpired elimina sesiones con expires_at <= now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
