package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/propmanager/internal/infra/tenantsql"
	"github.com/dropDatabas3/propmanager/internal/jwt"
	"github.com/dropDatabas3/propmanager/internal/rate"
)

var (
	accessSecret  = []byte("access-secret-access-secret-0123456789")
	refreshSecret = []byte("refresh-secret-refresh-secret-0123456789")
)

func newIssuer(t *testing.T) *jwt.Issuer {
	t.Helper()
	iss, err := jwt.NewIssuer("test", accessSecret, refreshSecret)
	require.NoError(t, err)
	return iss
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
}

func TestChain_Order(t *testing.T) {
	var seen []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = append(seen, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(okHandler(), mk("a"), mk("b"), mk("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestRequestID_PropagatesOrGenerates(t *testing.T) {
	var got string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}), WithRequestID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc", got)
	require.Equal(t, "abc", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, got)
	require.NotEqual(t, "abc", got)
}

func TestRecover_Returns500(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), WithRecover())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestRequireAuth(t *testing.T) {
	iss := newIssuer(t)
	var principal *Principal
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal = GetPrincipal(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), WithLogging(), RequireAuth(iss))

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "TOKEN_MISSING")
		require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "TOKEN_INVALID")
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		tok, _, err := iss.IssueRefreshToken("11111111-1111-1111-1111-111111111111")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Contains(t, rec.Body.String(), "TOKEN_INVALID")
	})

	t.Run("expired", func(t *testing.T) {
		old := newIssuer(t)
		old.Now = func() time.Time { return time.Now().Add(-time.Hour) }
		tok, _, err := old.IssueAccessToken("id-1", "a@b.c", "user", "t-1")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "TOKEN_EXPIRED")
	})

	t.Run("unknown role", func(t *testing.T) {
		tok, _, err := iss.IssueAccessToken("id-1", "a@b.c", "root", "t-1")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Contains(t, rec.Body.String(), "TOKEN_INVALID")
	})

	t.Run("ok", func(t *testing.T) {
		tok, _, err := iss.IssueAccessToken("id-1", "a@b.c", "admin", "t-1")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, principal)
		require.Equal(t, "id-1", principal.IdentityID)
		require.Equal(t, "t-1", principal.TenantID)
		require.True(t, principal.IsAdmin())
	})
}

type stubResolver struct {
	tid string
	err error
}

func (s stubResolver) Resolve(_ context.Context, tokenTID, _ string) (string, error) {
	if tokenTID != "" {
		return tokenTID, nil
	}
	return s.tid, s.err
}

func TestWithTenantContext(t *testing.T) {
	var scope tenantsql.Scope
	var scoped bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, scoped = tenantsql.ScopeFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	withPrincipal := func(p *Principal) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
			})
		}
	}

	t.Run("token tid", func(t *testing.T) {
		h := Chain(inner, withPrincipal(&Principal{IdentityID: "i", TenantID: "t-tok"}), WithTenantContext(stubResolver{tid: "t-db"}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.True(t, scoped)
		require.Equal(t, tenantsql.Scope{TenantID: "t-tok", IdentityID: "i"}, scope)
	})

	t.Run("fallback lookup", func(t *testing.T) {
		p := &Principal{IdentityID: "i"}
		h := Chain(inner, withPrincipal(p), WithTenantContext(stubResolver{tid: "t-db"}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, "t-db", scope.TenantID)
		require.Empty(t, p.TenantID, "el principal original no se muta")
	})

	t.Run("resolution failure", func(t *testing.T) {
		scoped = false
		h := Chain(inner, withPrincipal(&Principal{IdentityID: "i"}), WithTenantContext(stubResolver{err: errors.New("db down")}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Contains(t, rec.Body.String(), "TENANT_RESOLUTION_FAILED")
		require.False(t, scoped)
	})
}

func TestRequireAdmin(t *testing.T) {
	h := Chain(okHandler(), RequireAdmin())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(rec, req.WithContext(WithPrincipal(req.Context(), &Principal{Role: "user"})))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithPrincipal(req.Context(), &Principal{Role: "admin"})))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := Chain(okHandler(), WithRateLimit(RateLimitConfig{
		Bucket:  "login",
		Limiter: rate.NewMemoryLimiter(2, time.Minute),
	}))
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	// el mismo peer rotando X-Forwarded-For sigue en su bucket
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
	}

	// otro peer tiene su propio bucket
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimit_BehindTrustedProxy(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	h := Chain(okHandler(), WithRateLimit(RateLimitConfig{
		Bucket:  "login",
		Limiter: rate.NewMemoryLimiter(1, time.Minute),
		Proxies: proxies,
	}))
	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusNoContent, send("198.51.100.1"))
	require.Equal(t, http.StatusNoContent, send("198.51.100.2"))
	require.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
	// un valor inventado a la izquierda no cambia el salto real
	require.Equal(t, http.StatusTooManyRequests, send("1.2.3.4, 198.51.100.2"))
}

func TestTrustedProxies_ClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.10"})
	require.NoError(t, err)

	cases := []struct {
		name   string
		tp     *TrustedProxies
		remote string
		xff    string
		want   string
	}{
		{"sin proxies confiables ignora XFF", nil, "203.0.113.7:1", "1.1.1.1", "203.0.113.7"},
		{"peer no confiable ignora XFF", proxies, "203.0.113.7:1", "1.1.1.1", "203.0.113.7"},
		{"peer confiable sin XFF", proxies, "10.0.0.1:1", "", "10.0.0.1"},
		{"un salto", proxies, "10.0.0.1:1", "198.51.100.4", "198.51.100.4"},
		{"cadena de proxies", proxies, "10.0.0.1:1", "198.51.100.4, 192.0.2.10, 10.9.9.9", "198.51.100.4"},
		{"spoof a la izquierda", proxies, "192.0.2.10:1", "6.6.6.6, 198.51.100.4", "198.51.100.4"},
		{"basura en XFF", proxies, "10.0.0.1:1", "not-an-ip", "10.0.0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			require.Equal(t, tc.want, tc.tp.ClientIP(req))
		})
	}

	_, err = ParseTrustedProxies([]string{"10.0.0.0/33"})
	require.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.local"})
	require.Error(t, err)
}

func TestWebhookSecret(t *testing.T) {
	h := Chain(okHandler(), RequireWebhookSecret("s3cret"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(WebhookSecretHeader, "s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// secreto vacío: deshabilitado
	h = Chain(okHandler(), RequireWebhookSecret(""))
	req.Header.Set(WebhookSecretHeader, "")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSecurityAndNoStoreHeaders(t *testing.T) {
	h := Chain(okHandler(), WithSecurityHeaders(), WithNoStore())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}
