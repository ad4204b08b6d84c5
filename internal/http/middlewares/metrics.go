package middlewares

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/propmanager/internal/metrics"
)

// WithMetrics registra latencia y status por ruta. Usa el patrón de chi
// (ej. /v1/properties/{id}) para no explotar la cardinalidad.
func WithMetrics(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.Inflight(1)
			defer m.Inflight(-1)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			path := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				path = rc.RoutePattern()
			}
			if path == "" {
				path = metrics.NormalizePath(r.URL.Path)
			}
			m.ObserveHTTP(r.Method, path, rec.status, time.Since(start))
		})
	}
}
