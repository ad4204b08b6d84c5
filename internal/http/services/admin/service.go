// Package admin contiene la administración de identidades dentro del tenant
// del admin que actúa.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
	"github.com/dropDatabas3/propmanager/internal/domain/types"
	"github.com/dropDatabas3/propmanager/internal/http/services/session"
	"github.com/dropDatabas3/propmanager/internal/infra/tenantsql"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
	"github.com/dropDatabas3/propmanager/internal/security/password"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidEmail  = errors.New("invalid email")
	ErrInvalidRole   = errors.New("invalid role")
	ErrEmailInUse    = errors.New("email already in use")
	ErrSelfAction    = errors.New("admins cannot deactivate or delete themselves")
)

// TenantInvalidator borra el tenant cacheado de una identidad.
type TenantInvalidator interface {
	Invalidate(ctx context.Context, identityID string)
}

type Deps struct {
	Identities repository.IdentityRepository
	Tenants    repository.TenantRepository
	Sessions   *session.Registry
	Hasher     *password.Hasher
	Policy     password.Policy
	Resolver   TenantInvalidator // Opcional
}

type Service struct {
	deps Deps
}

func NewService(d Deps) *Service { return &Service{deps: d} }

type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Role      string
	Password  string
}

// Register crea una identidad en el tenant del admin. El tenant sale siempre
// del contexto verificado, nunca del body.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*repository.Identity, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, ErrInvalidEmail
	}
	role := types.Role(strings.TrimSpace(in.Role))
	if role == "" {
		role = types.RoleUser
	}
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	if err := s.deps.Policy.Check(in.Password); err != nil {
		return nil, err
	}

	create := repository.CreateIdentityInput{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      role,
	}
	if err := tenantsql.EnrichCreate(ctx, &create); err != nil {
		return nil, err
	}

	if err := s.checkUserQuota(ctx, create.TenantID); err != nil {
		return nil, err
	}

	digest, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	create.PasswordHash = digest

	idn, err := s.deps.Identities.Create(ctx, create)
	if err != nil {
		if repository.IsConflict(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}
	logger.From(ctx).Info("identity registered",
		logger.Component("admin"), logger.IdentityID(idn.ID), logger.Role(string(idn.Role)))
	return idn, nil
}

// checkUserQuota es aproximado: dos registros concurrentes pueden pasar el
// mismo conteo.
func (s *Service) checkUserQuota(ctx context.Context, tenantID string) error {
	tn, err := s.deps.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}
	if tn.Quotas.MaxUsers <= 0 {
		return nil
	}
	n, err := s.deps.Identities.CountByTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if n >= tn.Quotas.MaxUsers {
		return repository.ErrQuotaExceeded
	}
	return nil
}

// target carga una identidad del tenant del admin. Identidades de otro
// tenant se reportan como inexistentes.
func (s *Service) target(ctx context.Context, identityID string) (*repository.Identity, tenantsql.Scope, error) {
	scope, ok := tenantsql.ScopeFrom(ctx)
	if !ok {
		return nil, scope, tenantsql.ErrNoScope
	}
	if identityID == scope.IdentityID {
		return nil, scope, ErrSelfAction
	}
	idn, err := s.deps.Identities.GetByID(ctx, identityID)
	if err != nil {
		return nil, scope, err
	}
	if idn.TenantID != scope.TenantID {
		return nil, scope, repository.ErrNotFound
	}
	return idn, scope, nil
}

// Deactivate desactiva la identidad y revoca todas sus sesiones. Los access
// tokens ya emitidos siguen válidos hasta expirar.
func (s *Service) Deactivate(ctx context.Context, identityID string) error {
	idn, _, err := s.target(ctx, identityID)
	if err != nil {
		return err
	}
	if err := s.deps.Identities.SetActive(ctx, idn.ID, false); err != nil {
		return err
	}
	n, err := s.deps.Sessions.RevokeAll(ctx, idn.ID)
	if err != nil {
		return err
	}
	logger.From(ctx).Info("identity deactivated",
		logger.Component("admin"), logger.IdentityID(idn.ID), logger.Count(int64(n)))
	return nil
}

// Delete borra la identidad y sus sesiones en la misma transacción.
func (s *Service) Delete(ctx context.Context, identityID string) error {
	idn, _, err := s.target(ctx, identityID)
	if err != nil {
		return err
	}
	if err := s.deps.Identities.Delete(ctx, idn.ID); err != nil {
		return err
	}
	if s.deps.Resolver != nil {
		s.deps.Resolver.Invalidate(ctx, idn.ID)
	}
	logger.From(ctx).Info("identity deleted", logger.Component("admin"), logger.IdentityID(idn.ID))
	return nil
}
