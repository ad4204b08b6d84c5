package property

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
	"github.com/dropDatabas3/propmanager/internal/infra/tenantsql"
)

// fakeBoundary ejecuta fn con un Conn nulo y aplica la tx a mano: los
// inserts de fakeData se descartan si fn falla.
type fakeBoundary struct {
	data    *fakeData
	units   int
	txUnits int
}

func (b *fakeBoundary) WithTenantConnection(ctx context.Context, fn func(tenantsql.Conn) error) error {
	if _, ok := tenantsql.ScopeFrom(ctx); !ok {
		return tenantsql.ErrNoScope
	}
	b.units++
	return fn(nullConn{})
}

func (b *fakeBoundary) WithTenantTx(ctx context.Context, fn func(tenantsql.Conn) error) error {
	if _, ok := tenantsql.ScopeFrom(ctx); !ok {
		return tenantsql.ErrNoScope
	}
	b.txUnits++
	b.data.begin()
	if err := fn(nullConn{}); err != nil {
		b.data.rollback()
		return err
	}
	b.data.commit()
	return nil
}

type nullConn struct{}

func (nullConn) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected")
}
func (nullConn) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected")
}
func (nullConn) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

type fakeData struct {
	quota      repository.Quotas
	props      []repository.Property
	activity   []repository.CreateActivityInput
	pendingP   []repository.Property
	pendingA   []repository.CreateActivityInput
	failInsert bool
}

func (d *fakeData) begin()    { d.pendingP, d.pendingA = nil, nil }
func (d *fakeData) rollback() { d.pendingP, d.pendingA = nil, nil }
func (d *fakeData) commit() {
	d.props = append(d.props, d.pendingP...)
	d.activity = append(d.activity, d.pendingA...)
	d.rollback()
}

func (d *fakeData) ListProperties(_ context.Context, _ tenantsql.Conn, limit int) ([]repository.Property, error) {
	return d.props, nil
}
func (d *fakeData) CountProperties(context.Context, tenantsql.Conn) (int, error) {
	return len(d.props), nil
}
func (d *fakeData) InsertProperty(_ context.Context, _ tenantsql.Conn, in repository.CreatePropertyInput) (repository.Property, error) {
	if d.failInsert {
		return repository.Property{}, errors.New("insert failed")
	}
	p := repository.Property{
		ID: fmt.Sprintf("p-%d", len(d.props)+1), TenantID: in.TenantID, Name: in.Name,
		Address: in.Address, City: in.City, Units: in.Units, CreatedBy: in.CreatedBy,
	}
	d.pendingP = append(d.pendingP, p)
	return p, nil
}
func (d *fakeData) TenantQuota(context.Context, tenantsql.Conn, string) (repository.Quotas, error) {
	return d.quota, nil
}
func (d *fakeData) InsertActivity(_ context.Context, _ tenantsql.Conn, in repository.CreateActivityInput) (repository.ActivityEntry, error) {
	d.pendingA = append(d.pendingA, in)
	return repository.ActivityEntry{TenantID: in.TenantID, Kind: in.Kind}, nil
}

func scoped() context.Context {
	return tenantsql.WithScope(context.Background(), tenantsql.Scope{TenantID: "t-1", IdentityID: "i-1"})
}

func TestCreate_EnrichesTenantAndLogsActivity(t *testing.T) {
	d := &fakeData{}
	b := &fakeBoundary{data: d}
	svc := NewService(b, d)

	p, err := svc.Create(scoped(), CreateInput{Name: " Torre Sur ", Address: "Av 1"})
	require.NoError(t, err)
	require.Equal(t, "t-1", p.TenantID)
	require.Equal(t, "i-1", p.CreatedBy)
	require.Equal(t, "Torre Sur", p.Name)
	require.Equal(t, 1, p.Units)

	require.Equal(t, 1, b.txUnits)
	require.Len(t, d.activity, 1)
	require.Equal(t, "t-1", d.activity[0].TenantID)
	require.Equal(t, "property.created", d.activity[0].Kind)
}

func TestCreate_QuotaExceededRollsBack(t *testing.T) {
	d := &fakeData{quota: repository.Quotas{MaxProperties: 1}}
	svc := NewService(&fakeBoundary{data: d}, d)

	_, err := svc.Create(scoped(), CreateInput{Name: "A", Address: "x"})
	require.NoError(t, err)
	_, err = svc.Create(scoped(), CreateInput{Name: "B", Address: "y"})
	require.ErrorIs(t, err, repository.ErrQuotaExceeded)
	require.Len(t, d.props, 1)
	require.Len(t, d.activity, 1)
}

func TestCreate_InsertFailureLeavesNothing(t *testing.T) {
	d := &fakeData{failInsert: true}
	svc := NewService(&fakeBoundary{data: d}, d)
	_, err := svc.Create(scoped(), CreateInput{Name: "A", Address: "x"})
	require.Error(t, err)
	require.Empty(t, d.props)
	require.Empty(t, d.activity)
}

func TestCreate_Validation(t *testing.T) {
	d := &fakeData{}
	svc := NewService(&fakeBoundary{data: d}, d)

	_, err := svc.Create(scoped(), CreateInput{Name: "", Address: "x"})
	require.ErrorIs(t, err, ErrMissingFields)
	_, err = svc.Create(scoped(), CreateInput{Name: "A", Address: "x", Units: -2})
	require.ErrorIs(t, err, repository.ErrInvalidInput)
	_, err = svc.Create(context.Background(), CreateInput{Name: "A", Address: "x"})
	require.ErrorIs(t, err, tenantsql.ErrNoScope)
}

func TestList_UsesConnectionUnit(t *testing.T) {
	d := &fakeData{props: []repository.Property{{ID: "p-1", TenantID: "t-1"}}}
	b := &fakeBoundary{data: d}
	svc := NewService(b, d)

	out, err := svc.List(scoped(), 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, 1, b.units)
	require.Zero(t, b.txUnits)
}
