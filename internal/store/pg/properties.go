package pg

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
	"github.com/dropDatabas3/propmanager/internal/infra/tenantsql"
)

// TenantData agrupa las queries de datos de negocio. Todas reciben la
// conexión ya marcada por tenantsql.Boundary y dependen de RLS para el
// filtrado; ninguna filtra por tenant_id en el WHERE.
type TenantData struct{}

const propertyCols = `id::text, tenant_id::text, name, address, city, units, COALESCE(created_by::text, ''), created_at`

func scanProperty(row pgx.Row) (repository.Property, error) {
	var p repository.Property
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Address, &p.City, &p.Units, &p.CreatedBy, &p.CreatedAt)
	return p, err
}

func (TenantData) ListProperties(ctx context.Context, c tenantsql.Conn, limit int) ([]repository.Property, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := c.Query(ctx, `SELECT `+propertyCols+` FROM property ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]repository.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (TenantData) CountProperties(ctx context.Context, c tenantsql.Conn) (int, error) {
	var n int
	err := c.QueryRow(ctx, `SELECT count(*) FROM property`).Scan(&n)
	return n, mapErr(err)
}

func (TenantData) InsertProperty(ctx context.Context, c tenantsql.Conn, in repository.CreatePropertyInput) (repository.Property, error) {
	const q = `
		INSERT INTO property (tenant_id, name, address, city, units, created_by)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid)
		RETURNING ` + propertyCols
	p, err := scanProperty(c.QueryRow(ctx, q, in.TenantID, in.Name, in.Address, in.City, in.Units, in.CreatedBy))
	return p, mapErr(err)
}

// TenantQuota lee las cuotas del tenant. Dentro de una tx, FOR UPDATE
// serializa los creates concurrentes del mismo tenant.
func (TenantData) TenantQuota(ctx context.Context, c tenantsql.Conn, tenantID string) (repository.Quotas, error) {
	var q repository.Quotas
	err := c.QueryRow(ctx, `SELECT max_properties, max_users FROM tenant WHERE id = $1 FOR UPDATE`, tenantID).
		Scan(&q.MaxProperties, &q.MaxUsers)
	return q, mapErr(err)
}

func (TenantData) InsertActivity(ctx context.Context, c tenantsql.Conn, in repository.CreateActivityInput) (repository.ActivityEntry, error) {
	payload := in.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	var e repository.ActivityEntry
	err := c.QueryRow(ctx, `
		INSERT INTO activity_log (tenant_id, identity_id, kind, payload)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4)
		RETURNING id::text, tenant_id::text, COALESCE(identity_id::text, ''), kind, payload, created_at`,
		in.TenantID, in.IdentityID, in.Kind, []byte(payload),
	).Scan(&e.ID, &e.TenantID, &e.IdentityID, &e.Kind, &e.Payload, &e.CreatedAt)
	return e, mapErr(err)
}
