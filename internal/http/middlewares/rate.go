package middlewares

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/dropDatabas3/propmanager/internal/http/errors"
	"github.com/dropDatabas3/propmanager/internal/metrics"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
	"github.com/dropDatabas3/propmanager/internal/rate"
)

// TrustedProxies son los peers cuyo X-Forwarded-For se acepta. Un valor
// nil no confía en nadie: la IP es siempre la de RemoteAddr.
type TrustedProxies struct {
	nets []*net.IPNet
}

// ParseTrustedProxies acepta CIDRs ("10.0.0.0/8") o IPs sueltas.
func ParseTrustedProxies(list []string) (*TrustedProxies, error) {
	tp := &TrustedProxies{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if !strings.Contains(s, "/") {
			ip := net.ParseIP(s)
			if ip == nil {
				return nil, fmt.Errorf("trusted proxy %q: invalid ip", s)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			tp.nets = append(tp.nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(s)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
		}
		tp.nets = append(tp.nets, n)
	}
	return tp, nil
}

func (tp *TrustedProxies) trusts(ip string) bool {
	if tp == nil {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range tp.nets {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// ClientIP devuelve la IP del cliente. X-Forwarded-For solo se lee si el
// peer directo es un proxy confiable, y se recorre de derecha a izquierda
// hasta el primer salto que no lo sea.
func (tp *TrustedProxies) ClientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !tp.trusts(peer) {
		return peer
	}
	client := peer
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" || net.ParseIP(hop) == nil {
			break
		}
		client = hop
		if !tp.trusts(hop) {
			break
		}
	}
	return client
}

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPRateKey: ip|path. No lee el body.
func IPRateKey(tp *TrustedProxies) RateKeyFunc {
	return func(r *http.Request) string {
		return tp.ClientIP(r) + "|" + r.URL.Path
	}
}

type RateLimitConfig struct {
	Bucket  string // label para métricas (login, refresh)
	Limiter rate.Limiter
	KeyFunc RateKeyFunc
	Proxies *TrustedProxies // usado por el KeyFunc default
	Metrics *metrics.Metrics
}

// WithRateLimit corta con 429 cuando el bucket se agota. Si el limiter
// falla, el request pasa.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPRateKey(cfg.Proxies)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := cfg.Limiter.Allow(r.Context(), cfg.Bucket+"|"+cfg.KeyFunc(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter failed", logger.Component("rate"), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				cfg.Metrics.RecordRateLimited(cfg.Bucket)
				secs := int(math.Ceil(res.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				errors.WriteError(w, errors.ErrRateLimitExceeded.WithRetryAfter(secs))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
