// Package webhook contiene el endpoint de ingreso de eventos externos.
package webhook

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/propmanager/internal/http/dto"
	httperrors "github.com/dropDatabas3/propmanager/internal/http/errors"
	"github.com/dropDatabas3/propmanager/internal/http/helpers"
	svc "github.com/dropDatabas3/propmanager/internal/http/services/webhook"
)

type Controller struct {
	service *svc.Service
}

func NewController(s *svc.Service) *Controller {
	return &Controller{service: s}
}

// Activity handles POST /v1/webhooks/activity
func (c *Controller) Activity(w http.ResponseWriter, r *http.Request) {
	var req dto.ActivityWebhookRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	e, err := c.service.RecordActivity(r.Context(), svc.ActivityInput{
		TenantID: req.TenantID, Kind: req.Kind, Payload: req.Payload,
	})
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrInvalidTenant):
			httperrors.WriteError(w, httperrors.ErrInvalidFormat.WithReasons("tenant_id"))
		case errors.Is(err, svc.ErrMissingKind):
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithReasons("kind"))
		default:
			httperrors.Write(r.Context(), w, err)
		}
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.ActivityResponse{
		ID: e.ID, TenantID: e.TenantID, Kind: e.Kind, CreatedAt: e.CreatedAt,
	})
}
