package errors

import (
	"context"
	"encoding/json"
	stderrs "errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/dropDatabas3/propmanager/internal/domain/repository"
	"github.com/dropDatabas3/propmanager/internal/infra/tenantsql"
	"github.com/dropDatabas3/propmanager/internal/jwt"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
)

var exposeDetail atomic.Bool

// ExposeDetails habilita Detail y causa en las respuestas. Solo para dev.
func ExposeDetails(on bool) { exposeDetail.Store(on) }

// errorResponse controla exactamente qué campos se envían al cliente.
type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Reasons []string `json:"reasons,omitempty"`
	Detail  string   `json:"detail,omitempty"`
	Cause   string   `json:"cause,omitempty"`
}

// FromError convierte cualquier error en un AppError. Reconoce los errores
// centinela de las capas de dominio; el resto es 500.
func FromError(err error) *AppError {
	var appErr *AppError
	if stderrs.As(err, &appErr) {
		return appErr
	}
	switch {
	case stderrs.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired.WithCause(err)
	case stderrs.Is(err, jwt.ErrTokenInvalid):
		return ErrTokenInvalid.WithCause(err)
	case stderrs.Is(err, tenantsql.ErrResourceExhausted):
		return ErrResourceExhausted.WithCause(err)
	case stderrs.Is(err, tenantsql.ErrTenantContext):
		return ErrTenantContextFailed.WithCause(err)
	case stderrs.Is(err, tenantsql.ErrTenantResolution), stderrs.Is(err, tenantsql.ErrNoScope):
		return ErrTenantResolutionFailed.WithCause(err)
	case stderrs.Is(err, tenantsql.ErrUnavailable):
		return ErrServiceUnavailable.WithCause(err)
	case stderrs.Is(err, repository.ErrNotFound):
		return ErrNotFound.WithCause(err)
	case stderrs.Is(err, repository.ErrConflict):
		return ErrConflict.WithCause(err)
	case stderrs.Is(err, repository.ErrQuotaExceeded):
		return ErrQuotaExceeded.WithCause(err)
	case stderrs.Is(err, repository.ErrInvalidInput):
		return ErrInvalidFormat.WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}

// WriteError escribe la respuesta HTTP para err.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Reasons: appErr.Reasons,
	}
	if exposeDetail.Load() {
		resp.Detail = appErr.Detail
		if appErr.Err != nil {
			resp.Cause = appErr.Err.Error()
		}
	}

	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	if appErr.RetryAfter > 0 {
		h.Set("Retry-After", strconv.Itoa(appErr.RetryAfter))
	}
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// Write es WriteError + log. Los 5xx se loguean como error con la causa.
func Write(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := FromError(err)
	if appErr.HTTPStatus >= 500 {
		logger.From(ctx).Error("request failed",
			logger.String("code", appErr.Code),
			logger.Status(appErr.HTTPStatus),
			logger.Err(appErr.Err),
		)
	}
	WriteError(w, appErr)
}
