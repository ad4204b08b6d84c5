package router

import (
	"github.com/go-chi/chi/v5"

	mw "github.com/dropDatabas3/propmanager/internal/http/middlewares"
)

func registerPropertyRoutes(r chi.Router, d Deps) {
	if d.Property == nil {
		return
	}
	r.Route("/properties", func(p chi.Router) {
		p.Use(tenantScoped(d)...)
		p.Get("/", d.Property.List)
		p.Post("/", d.Property.Create)
	})
}

func registerWebhookRoutes(r chi.Router, d Deps) {
	if d.Webhook == nil {
		return
	}
	r.With(mw.RequireWebhookSecret(d.WebhookSecret)).Post("/webhooks/activity", d.Webhook.Activity)
}
