package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/propmanager/internal/http/middlewares"
)

// Las rutas de credenciales no pasan por el contexto de tenant, salvo /me
// que solo necesita el principal.
func registerAuthRoutes(r chi.Router, d Deps) {
	if d.Auth == nil {
		return
	}
	r.Route("/auth", func(a chi.Router) {
		a.Use(mw.WithNoStore())

		a.With(mw.WithRateLimit(mw.RateLimitConfig{
			Bucket: "login", Limiter: d.LoginLimiter, Proxies: d.TrustedProxies, Metrics: d.Metrics,
		})).Post("/login", d.Auth.Login)

		a.With(mw.WithRateLimit(mw.RateLimitConfig{
			Bucket: "refresh", Limiter: d.RefreshLimiter, Proxies: d.TrustedProxies, Metrics: d.Metrics,
		})).Post("/refresh", d.Auth.Refresh)

		a.Post("/logout", d.Auth.Logout)
		a.With(mw.RequireAuth(d.Verifier)).Post("/password", d.Auth.ChangePassword)
	})
	r.With(mw.RequireAuth(d.Verifier)).Get("/me", d.Auth.Me)
}
