package pg

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
)

// TenantRepo implementa repository.TenantRepository.
type TenantRepo struct{ pool *pgxpool.Pool }

var _ repository.TenantRepository = (*TenantRepo)(nil)

const tenantCols = `id::text, slug, name, max_properties, max_users, active, created_at, updated_at`

func scanTenant(row pgx.Row) (*repository.Tenant, error) {
	var t repository.Tenant
	if err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Quotas.MaxProperties, &t.Quotas.MaxUsers,
		&t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepo) GetByID(ctx context.Context, id string) (*repository.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx, `SELECT `+tenantCols+` FROM tenant WHERE id = $1`, id))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, repository.ErrNotFound
		}
		return nil, mapErr(err)
	}
	return t, nil
}

func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*repository.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx, `SELECT `+tenantCols+` FROM tenant WHERE slug = $1`, strings.TrimSpace(slug)))
	if err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

func (r *TenantRepo) Create(ctx context.Context, in repository.CreateTenantInput) (*repository.Tenant, error) {
	const q = `
		INSERT INTO tenant (slug, name, max_properties, max_users)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + tenantCols
	t, err := scanTenant(r.pool.QueryRow(ctx, q,
		strings.TrimSpace(in.Slug), strings.TrimSpace(in.Name), in.Quotas.MaxProperties, in.Quotas.MaxUsers))
	if err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}
