package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
	"github.com/dropDatabas3/propmanager/internal/infra/tenantsql"
	"github.com/dropDatabas3/propmanager/internal/jwt"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestFromError_MapsDomainSentinels(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{jwt.ErrTokenExpired, "TOKEN_EXPIRED", 401},
		{fmt.Errorf("wrap: %w", jwt.ErrTokenInvalid), "TOKEN_INVALID", 401},
		{tenantsql.ErrResourceExhausted, "RESOURCE_EXHAUSTED", 503},
		{tenantsql.ErrTenantContext, "TENANT_CONTEXT_FAILED", 503},
		{tenantsql.ErrTenantResolution, "TENANT_RESOLUTION_FAILED", 500},
		{repository.ErrNotFound, "NOT_FOUND", 404},
		{repository.ErrQuotaExceeded, "QUOTA_EXCEEDED", 409},
		{fmt.Errorf("boom"), "INTERNAL_SERVER_ERROR", 500},
		{ErrSessionNotFound, "SESSION_NOT_FOUND", 401},
	}
	for _, c := range cases {
		got := FromError(c.err)
		require.Equal(t, c.code, got.Code, c.err.Error())
		require.Equal(t, c.status, got.HTTPStatus, c.err.Error())
	}
}

func TestWriteError_HidesDetailOutsideDev(t *testing.T) {
	ExposeDetails(false)
	rec := httptest.NewRecorder()
	WriteError(rec, ErrInternalServerError.WithDetail("pg: conn refused").WithCause(fmt.Errorf("dial tcp")))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "INTERNAL_SERVER_ERROR", body.Code)
	require.Empty(t, body.Detail)
	require.Empty(t, body.Cause)
}

func TestWriteError_DevShowsDetail(t *testing.T) {
	ExposeDetails(true)
	defer ExposeDetails(false)

	rec := httptest.NewRecorder()
	WriteError(rec, ErrInternalServerError.WithDetail("pg: conn refused").WithCause(fmt.Errorf("dial tcp")))
	body := decode(t, rec)
	require.Equal(t, "pg: conn refused", body.Detail)
	require.Equal(t, "dial tcp", body.Cause)
}

func TestWriteError_RetryAfterAndReasons(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, tenantsql.ErrResourceExhausted)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = httptest.NewRecorder()
	WriteError(rec, ErrPasswordTooWeak.WithReasons("too_short", "missing_digit"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, []string{"too_short", "missing_digit"}, decode(t, rec).Reasons)
}

func TestWithHelpers_DoNotMutateBase(t *testing.T) {
	_ = ErrConflict.WithDetail("x").WithReasons("y").WithRetryAfter(3)
	require.Empty(t, ErrConflict.Detail)
	require.Empty(t, ErrConflict.Reasons)
	require.Zero(t, ErrConflict.RetryAfter)
}
