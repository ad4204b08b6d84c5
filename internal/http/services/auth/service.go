// Package auth contiene el flujo de credenciales: login, refresh, logout y
// cambio de password. Nada de esto pasa por el contexto de tenant.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
	"github.com/dropDatabas3/propmanager/internal/http/services/session"
	jwtx "github.com/dropDatabas3/propmanager/internal/jwt"
	"github.com/dropDatabas3/propmanager/internal/metrics"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
	"github.com/dropDatabas3/propmanager/internal/security/password"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
)

// Deps contiene las dependencias del service.
type Deps struct {
	Identities repository.IdentityRepository
	Tenants    repository.TenantRepository
	Sessions   *session.Registry
	Issuer     *jwtx.Issuer
	Hasher     *password.Hasher
	Policy     password.Policy
	Metrics    *metrics.Metrics // Opcional
}

type Service struct {
	deps Deps

	dummyOnce sync.Once
	dummyHash string
}

func NewService(d Deps) *Service {
	return &Service{deps: d}
}

// LoginResult es el resultado interno de un login exitoso.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // segundos
	Identity     *repository.Identity
}

// RefreshResult: refresh no rota el refresh token.
type RefreshResult struct {
	AccessToken string
	ExpiresIn   int64
}

// dummy iguala el costo de un email inexistente con el de uno real.
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.deps.Hasher.Hash("dummy-password-for-timing")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *Service) record(event string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			result = "invalid_credentials"
		case errors.Is(err, ErrSessionNotFound):
			result = "session_not_found"
		case errors.Is(err, jwtx.ErrTokenExpired):
			result = "expired"
		case errors.Is(err, jwtx.ErrTokenInvalid):
			result = "invalid"
		}
	}
	s.deps.Metrics.RecordAuth(event, result)
}

// Login verifica credenciales y emite access + refresh. Todos los rechazos
// (email desconocido, password mala, identidad o tenant inactivos) son el
// mismo ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, plain string) (res *LoginResult, err error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth"), logger.Op("Login"))
	defer func() { s.record("login", err) }()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || plain == "" {
		return nil, ErrMissingFields
	}

	idn, err := s.deps.Identities.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			_ = s.deps.Hasher.Verify(plain, s.dummy())
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.deps.Hasher.Verify(plain, idn.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !idn.Active {
		log.Info("login rejected: identity inactive", logger.IdentityID(idn.ID))
		return nil, ErrInvalidCredentials
	}

	tn, err := s.deps.Tenants.GetByID(ctx, idn.TenantID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !tn.Active {
		log.Info("login rejected: tenant inactive", logger.IdentityID(idn.ID), logger.TenantID(tn.ID))
		return nil, ErrInvalidCredentials
	}

	access, _, err := s.deps.Issuer.IssueAccessToken(idn.ID, idn.Email, string(idn.Role), idn.TenantID)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.deps.Issuer.IssueRefreshToken(idn.ID)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Sessions.Create(ctx, idn.ID, refresh, refreshExp); err != nil {
		return nil, err
	}

	// best effort: un fallo acá no invalida el login
	if err := s.deps.Identities.TouchLastLogin(ctx, idn.ID, time.Now()); err != nil {
		log.Warn("touch last login failed", logger.Err(err))
	}
	if s.deps.Hasher.NeedsRehash(idn.PasswordHash) {
		if h, err := s.deps.Hasher.Hash(plain); err == nil {
			if err := s.deps.Identities.UpdatePassword(ctx, idn.ID, h); err != nil {
				log.Warn("password rehash failed", logger.Err(err))
			}
		}
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(jwtx.AccessTTL.Seconds()),
		Identity:     idn,
	}, nil
}

// Refresh emite un access token nuevo a partir de un refresh válido y con
// sesión registrada. No extiende la sesión.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (res *RefreshResult, err error) {
	defer func() { s.record("refresh", err) }()

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, ErrMissingFields
	}
	claims, err := s.deps.Issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	sess, ok, err := s.deps.Sessions.FindValid(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !ok || sess.IdentityID != claims.IdentityID() {
		return nil, ErrSessionNotFound
	}

	idn, err := s.deps.Identities.GetByID(ctx, sess.IdentityID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !idn.Active {
		return nil, ErrSessionNotFound
	}
	tn, err := s.deps.Tenants.GetByID(ctx, idn.TenantID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !tn.Active {
		return nil, ErrSessionNotFound
	}

	access, _, err := s.deps.Issuer.IssueAccessToken(idn.ID, idn.Email, string(idn.Role), idn.TenantID)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{AccessToken: access, ExpiresIn: int64(jwtx.AccessTTL.Seconds())}, nil
}

// Logout revoca la sesión del refresh token. Siempre "funciona": tokens
// desconocidos o ya revocados no son error para el cliente.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	err := s.deps.Sessions.Revoke(ctx, strings.TrimSpace(refreshToken))
	if err != nil {
		logger.From(ctx).Warn("logout revoke failed", logger.Component("auth"), logger.Err(err))
	}
	s.record("logout", err)
}

// ChangePassword valida la política, verifica la password actual y, en una
// sola transacción, guarda el hash nuevo y revoca todas las sesiones.
func (s *Service) ChangePassword(ctx context.Context, identityID, current, next string) error {
	if current == "" || next == "" {
		return ErrMissingFields
	}
	if err := s.deps.Policy.Check(next); err != nil {
		return err
	}

	idn, err := s.deps.Identities.GetByID(ctx, identityID)
	if err != nil {
		return err
	}
	if !s.deps.Hasher.Verify(current, idn.PasswordHash) {
		return ErrInvalidCredentials
	}

	h, err := s.deps.Hasher.Hash(next)
	if err != nil {
		return err
	}
	// hash y sesiones cambian juntos: si falla, la password vieja y sus
	// sesiones siguen intactas
	n, err := s.deps.Identities.UpdatePasswordRevokeSessions(ctx, idn.ID, h)
	if err != nil {
		return err
	}
	logger.From(ctx).Info("password changed", logger.Component("auth"), logger.IdentityID(idn.ID), logger.Count(int64(n)))
	s.record("password_change", nil)
	return nil
}

// Me devuelve la identidad autenticada.
func (s *Service) Me(ctx context.Context, identityID string) (*repository.Identity, error) {
	return s.deps.Identities.GetByID(ctx, identityID)
}
