// Package admin contiene los endpoints de administración de identidades.
package admin

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/propmanager/internal/http/dto"
	httperrors "github.com/dropDatabas3/propmanager/internal/http/errors"
	"github.com/dropDatabas3/propmanager/internal/http/helpers"
	svc "github.com/dropDatabas3/propmanager/internal/http/services/admin"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
	"github.com/dropDatabas3/propmanager/internal/security/password"
)

type Controller struct {
	service *svc.Service
}

func NewController(s *svc.Service) *Controller {
	return &Controller{service: s}
}

// Register handles POST /v1/admin/identities
func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterIdentityRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.TenantID != "" {
		logger.From(r.Context()).Debug("client tenant_id ignored", logger.Op("admin.register"))
	}
	idn, err := c.service.Register(r.Context(), svc.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Password:  req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/admin/identities/"+idn.ID)
	helpers.WriteJSON(w, http.StatusCreated, dto.NewIdentitySummary(idn))
}

// Deactivate handles POST /v1/admin/identities/{id}/deactivate
func (c *Controller) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := c.service.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /v1/admin/identities/{id}
func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *password.PolicyError
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrInvalidEmail):
		httperrors.WriteError(w, httperrors.ErrInvalidFormat.WithReasons("email"))
	case errors.Is(err, svc.ErrInvalidRole):
		httperrors.WriteError(w, httperrors.ErrInvalidFormat.WithReasons("role"))
	case errors.Is(err, svc.ErrEmailInUse):
		httperrors.WriteError(w, httperrors.ErrEmailAlreadyInUse)
	case errors.Is(err, svc.ErrSelfAction):
		httperrors.WriteError(w, httperrors.ErrConflict.WithDetail(err.Error()))
	case errors.As(err, &pe):
		httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithReasons(pe.Reasons...))
	default:
		httperrors.Write(r.Context(), w, err)
	}
}
