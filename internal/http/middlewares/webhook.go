package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/propmanager/internal/http/errors"
	tokens "github.com/dropDatabas3/propmanager/internal/security/token"
)

const WebhookSecretHeader = "X-Webhook-Secret"

// RequireWebhookSecret compara el header contra el secreto compartido en
// tiempo constante. Secreto vacío = webhooks deshabilitados.
func RequireWebhookSecret(secret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tokens.Equal(r.Header.Get(WebhookSecretHeader), secret) {
				errors.WriteError(w, errors.ErrWebhookUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
