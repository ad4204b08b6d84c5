package webhook

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
	"github.com/dropDatabas3/propmanager/internal/infra/tenantsql"
)

type fakeBoundary struct{ scopes []tenantsql.Scope }

func (b *fakeBoundary) WithTenantTx(ctx context.Context, fn func(tenantsql.Conn) error) error {
	s, ok := tenantsql.ScopeFrom(ctx)
	if !ok {
		return tenantsql.ErrNoScope
	}
	b.scopes = append(b.scopes, s)
	return fn(nil)
}

type fakeWriter struct{ got []repository.CreateActivityInput }

func (w *fakeWriter) InsertActivity(_ context.Context, _ tenantsql.Conn, in repository.CreateActivityInput) (repository.ActivityEntry, error) {
	w.got = append(w.got, in)
	return repository.ActivityEntry{ID: "a-1", TenantID: in.TenantID, Kind: in.Kind, Payload: in.Payload}, nil
}

const tenant = "5b0c6a2e-4f7e-4a43-9d0c-0f6a1f1b2c3d"

func TestRecordActivity_ScopesExplicitTenant(t *testing.T) {
	b, w := &fakeBoundary{}, &fakeWriter{}
	svc := NewService(b, w)

	e, err := svc.RecordActivity(context.Background(), ActivityInput{
		TenantID: tenant, Kind: "payment.received", Payload: json.RawMessage(`{"amount":10}`),
	})
	require.NoError(t, err)
	require.Equal(t, tenant, e.TenantID)
	require.Equal(t, []tenantsql.Scope{{TenantID: tenant}}, b.scopes)
	require.Equal(t, tenant, w.got[0].TenantID)
}

func TestRecordActivity_Validation(t *testing.T) {
	svc := NewService(&fakeBoundary{}, &fakeWriter{})
	ctx := context.Background()

	_, err := svc.RecordActivity(ctx, ActivityInput{TenantID: "acme", Kind: "x"})
	require.ErrorIs(t, err, ErrInvalidTenant)
	_, err = svc.RecordActivity(ctx, ActivityInput{TenantID: tenant})
	require.ErrorIs(t, err, ErrMissingKind)
	_, err = svc.RecordActivity(ctx, ActivityInput{TenantID: tenant, Kind: "x", Payload: json.RawMessage(`{`)})
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestRecordActivity_IgnoresCallerScope(t *testing.T) {
	b, w := &fakeBoundary{}, &fakeWriter{}
	svc := NewService(b, w)
	ctx := tenantsql.WithScope(context.Background(), tenantsql.Scope{TenantID: "otro", IdentityID: "i"})

	_, err := svc.RecordActivity(ctx, ActivityInput{TenantID: tenant, Kind: "x"})
	require.NoError(t, err)
	require.Equal(t, tenant, b.scopes[0].TenantID)
	require.Empty(t, b.scopes[0].IdentityID)
}
