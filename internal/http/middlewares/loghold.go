package middlewares

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/dropDatabas3/propmanager/internal/observability/logger"
)

type logHolder struct{ log *zap.Logger }

type logHolderKey struct{}

func withLogHolder(ctx context.Context, h *logHolder) context.Context {
	return context.WithValue(ctx, logHolderKey{}, h)
}

// scopeLogger agrega fields al logger del request y devuelve el request nuevo.
func scopeLogger(r *http.Request, fields ...zap.Field) *http.Request {
	l := logger.From(r.Context()).With(fields...)
	if h, ok := r.Context().Value(logHolderKey{}).(*logHolder); ok {
		h.log = l
	}
	return r.WithContext(logger.ToContext(r.Context(), l))
}
