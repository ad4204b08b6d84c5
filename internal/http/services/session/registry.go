// Package session implementa el registro de sesiones de refresh.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
	tokens "github.com/dropDatabas3/propmanager/internal/security/token"
)

// Registry guarda sesiones indexadas por sha256(refresh token). Una sesión
// es válida solo mientras la fila existe y ExpiresAt > now.
type Registry struct {
	repo repository.SessionRepository
	// Now permite fijar el reloj en tests.
	Now func() time.Time
}

func NewRegistry(repo repository.SessionRepository) *Registry {
	return &Registry{repo: repo, Now: time.Now}
}

func (r *Registry) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Create registra una sesión. Una identidad puede tener varias.
func (r *Registry) Create(ctx context.Context, identityID, refreshToken string, expiresAt time.Time) error {
	if identityID == "" || refreshToken == "" {
		return fmt.Errorf("session create: %w", repository.ErrInvalidInput)
	}
	return r.repo.Create(ctx, repository.Session{
		TokenHash:  tokens.SHA256Hex(refreshToken),
		IdentityID: identityID,
		ExpiresAt:  expiresAt,
		CreatedAt:  r.now(),
	})
}

// FindValid devuelve la sesión si existe y no expiró. Un miss (inexistente o
// expirada) es ok=false sin error.
func (r *Registry) FindValid(ctx context.Context, refreshToken string) (*repository.Session, bool, error) {
	if refreshToken == "" {
		return nil, false, nil
	}
	s, err := r.repo.GetByHash(ctx, tokens.SHA256Hex(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !s.ExpiresAt.After(r.now()) {
		return nil, false, nil
	}
	return s, true, nil
}

// Revoke es idempotente.
func (r *Registry) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return r.repo.DeleteByHash(ctx, tokens.SHA256Hex(refreshToken))
}

func (r *Registry) RevokeAll(ctx context.Context, identityID string) (int, error) {
	return r.repo.DeleteByIdentity(ctx, identityID)
}

// PurgeExpired borra sesiones vencidas. Es solo housekeeping: FindValid ya
// las ignora.
func (r *Registry) PurgeExpired(ctx context.Context) (int, error) {
	return r.repo.DeleteExpired(ctx, r.now())
}
