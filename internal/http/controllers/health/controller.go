// Package health contiene liveness y readiness.
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	httperrors "github.com/dropDatabas3/propmanager/internal/http/errors"
	"github.com/dropDatabas3/propmanager/internal/http/helpers"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
)

// Pinger es cualquier dependencia que pueda chequearse (pool, cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

type Controller struct {
	checks map[string]Pinger
}

func NewController(checks map[string]Pinger) *Controller {
	return &Controller{checks: checks}
}

// Healthz: el proceso está vivo.
func (c *Controller) Healthz(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz chequea cada dependencia con un timeout corto.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	ready := true
	for name, p := range c.checks {
		if err := p.Ping(ctx); err != nil {
			logger.From(ctx).Warn("readiness check failed", logger.Component(name), logger.Err(err))
			status[name] = "down"
			ready = false
			continue
		}
		status[name] = "up"
	}
	if !ready {
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithReasons(downList(status)...))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": status})
}

func downList(status map[string]string) []string {
	var out []string
	for k, v := range status {
		if v == "down" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
