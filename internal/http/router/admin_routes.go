package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/propmanager/internal/http/middlewares"
)

func registerAdminRoutes(r chi.Router, d Deps) {
	if d.Admin == nil {
		return
	}
	r.Route("/admin/identities", func(a chi.Router) {
		a.Use(mw.RequireAuth(d.Verifier), mw.RequireAdmin(), mw.WithTenantContext(d.Resolver))

		a.Post("/", d.Admin.Register)
		a.Post("/{id}/deactivate", d.Admin.Deactivate)
		a.Delete("/{id}", d.Admin.Delete)
	})
}
