// Package server arma las dependencias del servicio HTTP y lo ejecuta.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/propmanager/internal/cache"
	"github.com/dropDatabas3/propmanager/internal/config"
	"github.com/dropDatabas3/propmanager/internal/domain/types"
	adminctrl "github.com/dropDatabas3/propmanager/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/propmanager/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/propmanager/internal/http/controllers/health"
	propctrl "github.com/dropDatabas3/propmanager/internal/http/controllers/property"
	webhookctrl "github.com/dropDatabas3/propmanager/internal/http/controllers/webhook"
	httperrors "github.com/dropDatabas3/propmanager/internal/http/errors"
	"github.com/dropDatabas3/propmanager/internal/http/middlewares"
	"github.com/dropDatabas3/propmanager/internal/http/router"
	adminsvc "github.com/dropDatabas3/propmanager/internal/http/services/admin"
	authsvc "github.com/dropDatabas3/propmanager/internal/http/services/auth"
	propsvc "github.com/dropDatabas3/propmanager/internal/http/services/property"
	"github.com/dropDatabas3/propmanager/internal/http/services/session"
	webhooksvc "github.com/dropDatabas3/propmanager/internal/http/services/webhook"
	"github.com/dropDatabas3/propmanager/internal/infra/tenantsql"
	jwtx "github.com/dropDatabas3/propmanager/internal/jwt"
	"github.com/dropDatabas3/propmanager/internal/metrics"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
	"github.com/dropDatabas3/propmanager/internal/rate"
	"github.com/dropDatabas3/propmanager/internal/security/password"
	"github.com/dropDatabas3/propmanager/internal/store/pg"
)

// App es el servicio ya cableado. Close libera cache/redis y por último el pool.
type App struct {
	Handler http.Handler
	Store   *pg.Store
	Metrics *metrics.Metrics

	closers []func()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Build construye todas las dependencias a partir de la config ya validada.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.From(ctx).With(logger.Component("wiring"))
	httperrors.ExposeDetails(cfg.IsDev())

	st, err := pg.New(ctx, cfg.Database.DSN, pg.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	app := &App{Store: st}
	app.closers = append(app.closers, st.Close)
	fail := func(err error) (*App, error) {
		app.Close()
		return nil, err
	}

	if cfg.Database.MigrateOnStart {
		n, err := st.Migrate(ctx)
		if err != nil {
			return fail(fmt.Errorf("migrate: %w", err))
		}
		log.Info("migrations applied", logger.Count(int64(n)))
	}

	m, err := metrics.New(metrics.Config{Pool: st.Pool})
	if err != nil {
		return fail(fmt.Errorf("metrics: %w", err))
	}
	app.Metrics = m

	// cache + rate limiters comparten el cliente redis cuando kind=redis
	var (
		cc             cache.Client
		loginLimiter   rate.Limiter
		refreshLimiter rate.Limiter
	)
	switch cfg.Cache.Kind {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return fail(fmt.Errorf("redis: %w", err))
		}
		cc = cache.NewRedisFromClient(rdb, cfg.Cache.Redis.Prefix)
		if cfg.Rate.Enabled {
			prefix := cfg.Cache.Redis.Prefix + ":rl:"
			loginLimiter = rate.NewRedisLimiter(rdb, prefix, cfg.Rate.Login.Limit, cfg.Rate.Login.Window)
			refreshLimiter = rate.NewRedisLimiter(rdb, prefix, cfg.Rate.Refresh.Limit, cfg.Rate.Refresh.Window)
		}
	default:
		cc = cache.NewMemory(cfg.Cache.Redis.Prefix)
		if cfg.Rate.Enabled {
			loginLimiter = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, cfg.Rate.Login.Window)
			refreshLimiter = rate.NewMemoryLimiter(cfg.Rate.Refresh.Limit, cfg.Rate.Refresh.Window)
		}
	}
	app.closers = append(app.closers, func() { _ = cc.Close() })

	issuer, err := jwtx.NewIssuer(cfg.JWT.Issuer, []byte(cfg.JWT.AccessSecret), []byte(cfg.JWT.RefreshSecret))
	if err != nil {
		return fail(fmt.Errorf("jwt: %w", err))
	}

	blacklist, err := password.LoadBlacklist(cfg.Password.BlacklistPath)
	if err != nil {
		return fail(fmt.Errorf("password blacklist: %w", err))
	}
	policy := password.DefaultPolicy()
	policy.Blacklist = blacklist
	hasher := password.NewHasher(password.Params{
		Memory:      cfg.Password.MemoryKiB,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
	})

	boundary, err := tenantsql.New(tenantsql.Config{
		Pool:           tenantsql.PgxPool{P: st.Pool()},
		FailMode:       types.FailMode(cfg.TenantContext.FailMode),
		AcquireTimeout: cfg.Database.AcquireTimeout,
		MetricsFunc:    m.RecordTenantUnit,
	})
	if err != nil {
		return fail(err)
	}
	resolver, err := tenantsql.NewResolver(tenantsql.ResolverConfig{
		Lookup: st.Identities(),
		Cache:  cc,
		TTL:    cfg.TenantContext.CacheTTL,
	})
	if err != nil {
		return fail(err)
	}

	proxies, err := middlewares.ParseTrustedProxies(cfg.Rate.TrustedProxies)
	if err != nil {
		return fail(err)
	}

	sessions := session.NewRegistry(st.Sessions())
	data := pg.TenantData{}

	app.Handler = router.New(router.Deps{
		Auth: authctrl.NewController(authsvc.NewService(authsvc.Deps{
			Identities: st.Identities(),
			Tenants:    st.Tenants(),
			Sessions:   sessions,
			Issuer:     issuer,
			Hasher:     hasher,
			Policy:     policy,
			Metrics:    m,
		})),
		Admin: adminctrl.NewController(adminsvc.NewService(adminsvc.Deps{
			Identities: st.Identities(),
			Tenants:    st.Tenants(),
			Sessions:   sessions,
			Hasher:     hasher,
			Policy:     policy,
			Resolver:   resolver,
		})),
		Property: propctrl.NewController(propsvc.NewService(boundary, data)),
		Webhook:  webhookctrl.NewController(webhooksvc.NewService(boundary, data)),
		Health: healthctrl.NewController(map[string]healthctrl.Pinger{
			"postgres": st,
			"cache":    cc,
		}),
		Verifier:       issuer,
		Resolver:       resolver,
		Metrics:        m,
		LoginLimiter:   loginLimiter,
		RefreshLimiter: refreshLimiter,
		TrustedProxies: proxies,
		WebhookSecret:  cfg.Webhook.Secret,
	})

	log.Info("service wired",
		logger.FailMode(string(boundary.FailMode())),
		logger.String("cache", cfg.Cache.Kind),
		logger.Any("rate_limit", cfg.Rate.Enabled),
	)
	return app, nil
}
