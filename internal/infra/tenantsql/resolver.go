package tenantsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/propmanager/internal/cache"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
)

// TenantLookup resuelve el tenant de una identidad contra el credential store.
type TenantLookup interface {
	TenantForIdentity(ctx context.Context, identityID string) (string, error)
}

// ResolverConfig permite personalizar el Resolver.
type ResolverConfig struct {
	Lookup TenantLookup
	Cache  cache.Client  // Opcional
	TTL    time.Duration // TTL de cada entrada en cache (default 5m)
}

// Resolver determina el tenant de una request. Prefiere el claim "tid" del
// token; si falta, consulta el store. Lookups concurrentes de la misma
// identidad se colapsan en uno (singleflight) y el resultado se cachea.
type Resolver struct {
	lookup TenantLookup
	cache  cache.Client
	ttl    time.Duration
	sf     singleflight.Group
}

func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Lookup == nil {
		return nil, errors.New("tenantsql: resolver lookup is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Resolver{lookup: cfg.Lookup, cache: cfg.Cache, ttl: ttl}, nil
}

func cacheKey(identityID string) string { return "identity_tenant:" + identityID }

// Resolve devuelve el tenant para (tid del token, identidad). Cualquier fallo
// se reporta como ErrTenantResolution.
func (r *Resolver) Resolve(ctx context.Context, tokenTenantID, identityID string) (string, error) {
	if tokenTenantID != "" {
		return tokenTenantID, nil
	}
	if identityID == "" {
		return "", ErrTenantResolution
	}

	key := cacheKey(identityID)
	if r.cache != nil {
		if v, err := r.cache.Get(ctx, key); err == nil && v != "" {
			return v, nil
		} else if err != nil && !cache.IsNotFound(err) {
			logger.From(ctx).Warn("tenant cache get failed", logger.Component("tenantsql"), logger.Err(err))
		}
	}

	v, err, _ := r.sf.Do(identityID, func() (any, error) {
		// el lookup es compartido: no depende de la cancelación de quien llegó primero
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		tid, err := r.lookup.TenantForIdentity(lctx, identityID)
		if err != nil {
			return "", err
		}
		if tid == "" {
			return "", errors.New("identity has no tenant")
		}
		if r.cache != nil {
			if err := r.cache.Set(lctx, key, tid, r.ttl); err != nil {
				logger.From(ctx).Warn("tenant cache set failed", logger.Component("tenantsql"), logger.Err(err))
			}
		}
		return tid, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTenantResolution, err)
	}
	return v.(string), nil
}

// Invalidate borra la entrada cacheada de una identidad (ej. al eliminarla).
func (r *Resolver) Invalidate(ctx context.Context, identityID string) {
	if r.cache == nil || identityID == "" {
		return
	}
	_ = r.cache.Delete(ctx, cacheKey(identityID))
}
