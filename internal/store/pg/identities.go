package pg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
	"github.com/dropDatabas3/propmanager/internal/domain/types"
)

// IdentityRepo implementa repository.IdentityRepository.
type IdentityRepo struct{ pool *pgxpool.Pool }

var _ repository.IdentityRepository = (*IdentityRepo)(nil)

const identityCols = `id::text, tenant_id::text, email, password_hash, first_name, last_name,
	role, active, last_login_at, created_at, updated_at`

func scanIdentity(row pgx.Row) (*repository.Identity, error) {
	var (
		it   repository.Identity
		role string
	)
	if err := row.Scan(&it.ID, &it.TenantID, &it.Email, &it.PasswordHash, &it.FirstName, &it.LastName,
		&role, &it.Active, &it.LastLoginAt, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.Role = types.Role(role)
	return &it, nil
}

func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (*repository.Identity, error) {
	const q = `SELECT ` + identityCols + ` FROM identity WHERE lower(email) = lower($1)`
	it, err := scanIdentity(r.pool.QueryRow(ctx, q, strings.TrimSpace(email)))
	if err != nil {
		return nil, mapErr(err)
	}
	return it, nil
}

func (r *IdentityRepo) GetByID(ctx context.Context, id string) (*repository.Identity, error) {
	const q = `SELECT ` + identityCols + ` FROM identity WHERE id = $1`
	it, err := scanIdentity(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, repository.ErrNotFound
		}
		return nil, mapErr(err)
	}
	return it, nil
}

func (r *IdentityRepo) Create(ctx context.Context, in repository.CreateIdentityInput) (*repository.Identity, error) {
	const q = `
		INSERT INTO identity (tenant_id, email, password_hash, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + identityCols
	it, err := scanIdentity(r.pool.QueryRow(ctx, q,
		in.TenantID, strings.TrimSpace(in.Email), in.PasswordHash, in.FirstName, in.LastName, string(in.Role)))
	if err != nil {
		return nil, mapErr(err)
	}
	return it, nil
}

func (r *IdentityRepo) exec(ctx context.Context, q string, args ...any) error {
	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		if isInvalidUUID(err) {
			return repository.ErrNotFound
		}
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *IdentityRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `UPDATE identity SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
}

func (r *IdentityRepo) UpdatePasswordRevokeSessions(ctx context.Context, id, passwordHash string) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	tag, err := tx.Exec(ctx, `UPDATE identity SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	if err != nil {
		if isInvalidUUID(err) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("update password: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return 0, repository.ErrNotFound
	}
	tag, err = tx.Exec(ctx, `DELETE FROM session WHERE identity_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", mapErr(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *IdentityRepo) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx, `UPDATE identity SET active = $2, updated_at = now() WHERE id = $1`, id, active)
}

func (r *IdentityRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE identity SET last_login_at = $2 WHERE id = $1`, id, at)
}

// Delete borra sesiones e identidad en una sola transacción.
func (r *IdentityRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if _, err := tx.Exec(ctx, `DELETE FROM session WHERE identity_id = $1`, id); err != nil {
		if isInvalidUUID(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("delete sessions: %w", mapErr(err))
	}
	tag, err := tx.Exec(ctx, `DELETE FROM identity WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *IdentityRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM identity WHERE tenant_id = $1`, tenantID).Scan(&n)
	return n, mapErr(err)
}

func (r *IdentityRepo) TenantForIdentity(ctx context.Context, identityID string) (string, error) {
	var tid string
	err := r.pool.QueryRow(ctx, `SELECT tenant_id::text FROM identity WHERE id = $1`, identityID).Scan(&tid)
	if err != nil {
		if isInvalidUUID(err) {
			return "", repository.ErrNotFound
		}
		return "", mapErr(err)
	}
	return tid, nil
}
