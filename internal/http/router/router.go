// Package router arma el árbol de rutas chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminctrl "github.com/dropDatabas3/propmanager/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/propmanager/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/propmanager/internal/http/controllers/health"
	propctrl "github.com/dropDatabas3/propmanager/internal/http/controllers/property"
	webhookctrl "github.com/dropDatabas3/propmanager/internal/http/controllers/webhook"
	httperrors "github.com/dropDatabas3/propmanager/internal/http/errors"
	mw "github.com/dropDatabas3/propmanager/internal/http/middlewares"
	"github.com/dropDatabas3/propmanager/internal/metrics"
	"github.com/dropDatabas3/propmanager/internal/rate"
)

// Deps contiene todo lo que el router necesita. Controllers nil = rutas no
// registradas.
type Deps struct {
	Auth     *authctrl.Controller
	Admin    *adminctrl.Controller
	Property *propctrl.Controller
	Webhook  *webhookctrl.Controller
	Health   *healthctrl.Controller

	Verifier mw.AccessVerifier
	Resolver mw.TenantResolver
	Metrics  *metrics.Metrics

	LoginLimiter   rate.Limiter // Opcional
	RefreshLimiter rate.Limiter // Opcional
	TrustedProxies *mw.TrustedProxies // nil: la IP es la del peer
	WebhookSecret  string
}

// New devuelve el handler raíz con los middlewares globales aplicados.
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
		mw.WithMetrics(d.Metrics),
		mw.WithSecurityHeaders(),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, d)
	r.Route("/v1", func(v1 chi.Router) {
		registerAuthRoutes(v1, d)
		registerAdminRoutes(v1, d)
		registerPropertyRoutes(v1, d)
		registerWebhookRoutes(v1, d)
	})
	return r
}

// tenantScoped: auth + resolución de tenant.
func tenantScoped(d Deps) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		mw.RequireAuth(d.Verifier),
		mw.WithTenantContext(d.Resolver),
	}
}
