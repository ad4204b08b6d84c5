// Package memory implementa los repositorios de credenciales en memoria.
// Lo usan los tests de servicios y controllers, y el modo dev sin DB.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
)

// Store guarda tenants, identidades y sesiones en maps protegidos por un mutex.
type Store struct {
	mu         sync.RWMutex
	tenants    map[string]repository.Tenant
	identities map[string]repository.Identity
	sessions   map[string]repository.Session

	// Now permite fijar el reloj en tests.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		tenants:    map[string]repository.Tenant{},
		identities: map[string]repository.Identity{},
		sessions:   map[string]repository.Session{},
		Now:        time.Now,
	}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Store) Identities() *IdentityRepo { return &IdentityRepo{s: s} }
func (s *Store) Sessions() *SessionRepo    { return &SessionRepo{s: s} }
func (s *Store) Tenants() *TenantRepo      { return &TenantRepo{s: s} }

// ─── Tenants ───

type TenantRepo struct{ s *Store }

var _ repository.TenantRepository = (*TenantRepo)(nil)

func (r *TenantRepo) GetByID(_ context.Context, id string) (*repository.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *TenantRepo) GetBySlug(_ context.Context, slug string) (*repository.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.tenants {
		if t.Slug == slug {
			t := t
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *TenantRepo) Create(_ context.Context, in repository.CreateTenantInput) (*repository.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tenants {
		if t.Slug == in.Slug {
			return nil, repository.ErrConflict
		}
	}
	now := r.s.now()
	t := repository.Tenant{
		ID: uuid.NewString(), Slug: in.Slug, Name: in.Name, Quotas: in.Quotas,
		Active: true, CreatedAt: now, UpdatedAt: now,
	}
	r.s.tenants[t.ID] = t
	return &t, nil
}

// SetTenantActive es un helper de tests.
func (s *Store) SetTenantActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tenants[id]; ok {
		t.Active = active
		s.tenants[id] = t
	}
}

// ─── Identities ───

type IdentityRepo struct{ s *Store }

var _ repository.IdentityRepository = (*IdentityRepo)(nil)

func (r *IdentityRepo) GetByEmail(_ context.Context, email string) (*repository.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = strings.TrimSpace(email)
	for _, it := range r.s.identities {
		if strings.EqualFold(it.Email, email) {
			it := it
			return &it, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *IdentityRepo) GetByID(_ context.Context, id string) (*repository.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.identities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (r *IdentityRepo) Create(_ context.Context, in repository.CreateIdentityInput) (*repository.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tenants[in.TenantID]; !ok {
		return nil, repository.ErrInvalidInput
	}
	for _, it := range r.s.identities {
		if strings.EqualFold(it.Email, strings.TrimSpace(in.Email)) {
			return nil, repository.ErrConflict
		}
	}
	now := r.s.now()
	it := repository.Identity{
		ID: uuid.NewString(), TenantID: in.TenantID, Email: strings.TrimSpace(in.Email),
		PasswordHash: in.PasswordHash, FirstName: in.FirstName, LastName: in.LastName,
		Role: in.Role, Active: true, CreatedAt: now, UpdatedAt: now,
	}
	r.s.identities[it.ID] = it
	return &it, nil
}

func (r *IdentityRepo) update(id string, fn func(*repository.Identity)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.identities[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&it)
	r.s.identities[id] = it
	return nil
}

func (r *IdentityRepo) UpdatePassword(_ context.Context, id, hash string) error {
	return r.update(id, func(it *repository.Identity) {
		it.PasswordHash = hash
		it.UpdatedAt = r.s.now()
	})
}

// UpdatePasswordRevokeSessions cambia el hash y borra las sesiones bajo el
// mismo lock.
func (r *IdentityRepo) UpdatePasswordRevokeSessions(_ context.Context, id, hash string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.identities[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	it.PasswordHash = hash
	it.UpdatedAt = r.s.now()
	r.s.identities[id] = it

	n := 0
	for h, sess := range r.s.sessions {
		if sess.IdentityID == id {
			delete(r.s.sessions, h)
			n++
		}
	}
	return n, nil
}

func (r *IdentityRepo) SetActive(_ context.Context, id string, active bool) error {
	return r.update(id, func(it *repository.Identity) {
		it.Active = active
		it.UpdatedAt = r.s.now()
	})
}

func (r *IdentityRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(it *repository.Identity) { it.LastLoginAt = &at })
}

// Delete borra identidad y sesiones bajo el mismo lock.
func (r *IdentityRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.identities[id]; !ok {
		return repository.ErrNotFound
	}
	for h, sess := range r.s.sessions {
		if sess.IdentityID == id {
			delete(r.s.sessions, h)
		}
	}
	delete(r.s.identities, id)
	return nil
}

func (r *IdentityRepo) CountByTenant(_ context.Context, tenantID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, it := range r.s.identities {
		if it.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (r *IdentityRepo) TenantForIdentity(_ context.Context, id string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.identities[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	return it.TenantID, nil
}

// ─── Sessions ───

type SessionRepo struct{ s *Store }

var _ repository.SessionRepository = (*SessionRepo)(nil)

func (r *SessionRepo) Create(_ context.Context, sess repository.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.identities[sess.IdentityID]; !ok {
		return repository.ErrInvalidInput
	}
	if _, ok := r.s.sessions[sess.TokenHash]; ok {
		return repository.ErrConflict
	}
	r.s.sessions[sess.TokenHash] = sess
	return nil
}

func (r *SessionRepo) GetByHash(_ context.Context, hash string) (*repository.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sess, ok := r.s.sessions[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sess, nil
}

func (r *SessionRepo) DeleteByHash(_ context.Context, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, hash)
	return nil
}

func (r *SessionRepo) DeleteByIdentity(_ context.Context, id string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for h, sess := range r.s.sessions {
		if sess.IdentityID == id {
			delete(r.s.sessions, h)
			n++
		}
	}
	return n, nil
}

func (r *SessionRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for h, sess := range r.s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(r.s.sessions, h)
			n++
		}
	}
	return n, nil
}

// SessionCount es un helper de tests.
func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
