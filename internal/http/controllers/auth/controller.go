// Package auth contiene los endpoints de credenciales.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dropDatabas3/propmanager/internal/http/dto"
	httperrors "github.com/dropDatabas3/propmanager/internal/http/errors"
	"github.com/dropDatabas3/propmanager/internal/http/helpers"
	"github.com/dropDatabas3/propmanager/internal/http/middlewares"
	svc "github.com/dropDatabas3/propmanager/internal/http/services/auth"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
	"github.com/dropDatabas3/propmanager/internal/security/password"
)

type Controller struct {
	service *svc.Service
}

func NewController(s *svc.Service) *Controller {
	return &Controller{service: s}
}

// Login handles POST /v1/auth/login
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("auth.login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res, err := c.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		c.handleServiceError(w, r, err, log)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.LoginResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    res.ExpiresIn,
		Identity:     dto.NewIdentitySummary(res.Identity),
	})
}

// Refresh handles POST /v1/auth/refresh
func (c *Controller) Refresh(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("auth.refresh"))

	var req dto.RefreshRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res, err := c.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		c.handleServiceError(w, r, err, log)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.RefreshResponse{
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   res.ExpiresIn,
	})
}

// Logout handles POST /v1/auth/logout. Siempre 204, aunque el body sea
// inválido o el token desconocido.
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	var req dto.LogoutRequest
	r.Body = http.MaxBytesReader(w, r.Body, helpers.MaxBodyBytes)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		c.service.Logout(r.Context(), req.RefreshToken)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles POST /v1/auth/password
func (c *Controller) ChangePassword(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("auth.password"))
	p := middlewares.MustGetPrincipal(r.Context())

	var req dto.ChangePasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.service.ChangePassword(r.Context(), p.IdentityID, req.CurrentPassword, req.NewPassword); err != nil {
		c.handleServiceError(w, r, err, log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /v1/me
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("auth.me"))
	p := middlewares.MustGetPrincipal(r.Context())

	idn, err := c.service.Me(r.Context(), p.IdentityID)
	if err != nil {
		c.handleServiceError(w, r, err, log)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewIdentitySummary(idn))
}

func (c *Controller) handleServiceError(w http.ResponseWriter, r *http.Request, err error, log *zap.Logger) {
	var pe *password.PolicyError
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	case errors.Is(err, svc.ErrInvalidCredentials):
		httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
	case errors.Is(err, svc.ErrSessionNotFound):
		httperrors.WriteError(w, httperrors.ErrSessionNotFound)
	case errors.As(err, &pe):
		httperrors.WriteError(w, httperrors.ErrPasswordTooWeak.WithReasons(pe.Reasons...))
	default:
		log.Debug("auth error", logger.Err(err))
		httperrors.Write(r.Context(), w, err)
	}
}
