//go:build integration

package pg

import (
	"context"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgmodule "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
	"github.com/dropDatabas3/propmanager/internal/domain/types"
	"github.com/dropDatabas3/propmanager/internal/infra/tenantsql"
)

// setupDB levanta Postgres, aplica migraciones como owner y devuelve un Store
// conectado con un rol sin privilegios (el owner/superuser saltea RLS).
func setupDB(t *testing.T) (owner *Store, app *Store) {
	t.Helper()
	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("SKIP_INTEGRATION=true")
	}
	ctx := context.Background()

	container, err := pgmodule.Run(ctx,
		"postgres:16-alpine",
		pgmodule.WithDatabase("propmanager_test"),
		pgmodule.WithUsername("owner"),
		pgmodule.WithPassword("owner"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("no se pudo levantar postgres (docker?): %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	owner, err = New(ctx, dsn, PoolConfig{MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(owner.Close)

	_, err = owner.Migrate(ctx)
	require.NoError(t, err)

	_, err = owner.Pool().Exec(ctx, `
		CREATE ROLE app_rw LOGIN PASSWORD 'app_rw';
		GRANT USAGE ON SCHEMA public TO app_rw;
		GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO app_rw;`)
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	u.User = url.UserPassword("app_rw", "app_rw")

	// un solo slot: todas las unidades reusan la misma conexión física
	app, err = New(ctx, u.String(), PoolConfig{MaxConns: 1})
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return owner, app
}

func scoped(tenantID string) context.Context {
	return tenantsql.WithScope(context.Background(), tenantsql.Scope{TenantID: tenantID})
}

func TestIntegration_TenantIsolation(t *testing.T) {
	owner, app := setupDB(t)
	ctx := context.Background()

	ta, err := owner.Tenants().Create(ctx, repository.CreateTenantInput{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)
	tb, err := owner.Tenants().Create(ctx, repository.CreateTenantInput{Slug: "globex", Name: "Globex", Quotas: repository.Quotas{MaxProperties: 1}})
	require.NoError(t, err)

	b, err := tenantsql.New(tenantsql.Config{Pool: tenantsql.PgxPool{P: app.Pool()}, FailMode: types.FailClosed})
	require.NoError(t, err)
	data := TenantData{}

	t.Run("insert en tx queda visible solo para su tenant", func(t *testing.T) {
		err := b.WithTenantTx(scoped(ta.ID), func(c tenantsql.Conn) error {
			q, err := data.TenantQuota(ctx, c, ta.ID)
			if err != nil {
				return err
			}
			assert.Equal(t, 0, q.MaxProperties)
			_, err = data.InsertProperty(ctx, c, repository.CreatePropertyInput{TenantID: ta.ID, Name: "Torre A", Units: 4})
			return err
		})
		require.NoError(t, err)

		var got []repository.Property
		require.NoError(t, b.WithTenantConnection(scoped(ta.ID), func(c tenantsql.Conn) error {
			got, err = data.ListProperties(ctx, c, 10)
			return err
		}))
		require.Len(t, got, 1)
		assert.Equal(t, ta.ID, got[0].TenantID)

		require.NoError(t, b.WithTenantConnection(scoped(tb.ID), func(c tenantsql.Conn) error {
			got, err = data.ListProperties(ctx, c, 10)
			return err
		}))
		assert.Empty(t, got)
	})

	t.Run("la conexión vuelve al pool sin tenant", func(t *testing.T) {
		require.NoError(t, b.WithTenantConnection(scoped(ta.ID), func(c tenantsql.Conn) error {
			_, err := data.CountProperties(ctx, c)
			return err
		}))

		var n int
		require.NoError(t, app.Pool().QueryRow(ctx, `SELECT count(*) FROM property`).Scan(&n))
		assert.Equal(t, 0, n)

		var cur string
		require.NoError(t, app.Pool().QueryRow(ctx, `SELECT COALESCE(current_setting('app.current_tenant_id', true), '')`).Scan(&cur))
		assert.Empty(t, cur)
	})

	t.Run("RLS rechaza escribir filas de otro tenant", func(t *testing.T) {
		err := b.WithTenantTx(scoped(ta.ID), func(c tenantsql.Conn) error {
			_, err := data.InsertProperty(ctx, c, repository.CreatePropertyInput{TenantID: tb.ID, Name: "Intrusa", Units: 1})
			return err
		})
		require.Error(t, err)

		var n int
		require.NoError(t, owner.Pool().QueryRow(ctx, `SELECT count(*) FROM property WHERE tenant_id = $1`, tb.ID).Scan(&n))
		assert.Equal(t, 0, n)
	})

	t.Run("sin scope no hay conexión", func(t *testing.T) {
		err := b.WithTenantConnection(context.Background(), func(tenantsql.Conn) error { return nil })
		assert.ErrorIs(t, err, tenantsql.ErrNoScope)
	})

	t.Run("activity log aislado", func(t *testing.T) {
		require.NoError(t, b.WithTenantTx(scoped(tb.ID), func(c tenantsql.Conn) error {
			_, err := data.InsertActivity(ctx, c, repository.CreateActivityInput{TenantID: tb.ID, Kind: "lease.signed", Payload: []byte(`{"unit":"3B"}`)})
			return err
		}))
		var n int
		require.NoError(t, b.WithTenantConnection(scoped(ta.ID), func(c tenantsql.Conn) error {
			return c.QueryRow(ctx, `SELECT count(*) FROM activity_log`).Scan(&n)
		}))
		assert.Equal(t, 0, n)
	})
}

func TestIntegration_CredentialRepos(t *testing.T) {
	owner, _ := setupDB(t)
	ctx := context.Background()

	tn, err := owner.Tenants().Create(ctx, repository.CreateTenantInput{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)
	_, err = owner.Tenants().Create(ctx, repository.CreateTenantInput{Slug: "acme", Name: "Otra"})
	assert.True(t, repository.IsConflict(err))

	in := repository.CreateIdentityInput{Email: "Ana@Acme.io", PasswordHash: "x", FirstName: "Ana", LastName: "Paz", Role: types.RoleAdmin}
	in.SetTenantID(tn.ID)
	idn, err := owner.Identities().Create(ctx, in)
	require.NoError(t, err)

	got, err := owner.Identities().GetByEmail(ctx, "ana@acme.io")
	require.NoError(t, err)
	assert.Equal(t, idn.ID, got.ID)

	_, err = owner.Identities().GetByID(ctx, "not-a-uuid")
	assert.True(t, repository.IsNotFound(err))

	sessions := owner.Sessions()
	now := time.Now().UTC()
	require.NoError(t, sessions.Create(ctx, repository.Session{TokenHash: "h1", IdentityID: idn.ID, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, sessions.Create(ctx, repository.Session{TokenHash: "h2", IdentityID: idn.ID, ExpiresAt: now.Add(-time.Minute)}))

	n, err := sessions.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = owner.Identities().UpdatePasswordRevokeSessions(ctx, idn.ID, "y")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err = owner.Identities().GetByID(ctx, idn.ID)
	require.NoError(t, err)
	assert.Equal(t, "y", got.PasswordHash)
	require.NoError(t, sessions.Create(ctx, repository.Session{TokenHash: "h1", IdentityID: idn.ID, ExpiresAt: now.Add(time.Hour)}))

	require.NoError(t, owner.Identities().Delete(ctx, idn.ID))
	_, err = sessions.GetByHash(ctx, "h1")
	assert.True(t, repository.IsNotFound(err))
}
