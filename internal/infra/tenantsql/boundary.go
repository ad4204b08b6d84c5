package tenantsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/propmanager/internal/domain/types"
	"github.com/dropDatabas3/propmanager/internal/observability/logger"
)

// MetricsFunc callback para reportar cada fase de una unidad de trabajo.
// phase: acquire | stamp | reset | unit. result: ok | error | timeout |
// fail_open | discarded.
type MetricsFunc func(phase, result string, d time.Duration)

// Config permite personalizar la instancia del Boundary.
type Config struct {
	Pool           Pool
	FailMode       types.FailMode
	AcquireTimeout time.Duration
	ResetTimeout   time.Duration
	MetricsFunc    MetricsFunc // Opcional
}

// Boundary es el único camino al pool para código tenant-scoped.
type Boundary struct {
	pool           Pool
	failMode       types.FailMode
	acquireTimeout time.Duration
	resetTimeout   time.Duration
	metricsFunc    MetricsFunc
}

func New(cfg Config) (*Boundary, error) {
	if cfg.Pool == nil {
		return nil, errors.New("tenantsql: pool is required")
	}
	mode := cfg.FailMode
	if mode == "" {
		mode = types.FailClosed
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("tenantsql: invalid fail mode %q", cfg.FailMode)
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 5 * time.Second
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 2 * time.Second
	}
	return &Boundary{
		pool:           cfg.Pool,
		failMode:       mode,
		acquireTimeout: cfg.AcquireTimeout,
		resetTimeout:   cfg.ResetTimeout,
		metricsFunc:    cfg.MetricsFunc,
	}, nil
}

// FailMode devuelve el modo efectivo.
func (b *Boundary) FailMode() types.FailMode { return b.failMode }

func (b *Boundary) observe(phase, result string, start time.Time) {
	if b.metricsFunc != nil {
		b.metricsFunc(phase, result, time.Since(start))
	}
}

// WithTenantConnection presta una conexión, le fija el scope del ctx a nivel
// sesión, ejecuta fn y la devuelve limpia al pool. Todas las queries de fn
// corren sobre esa misma conexión. La conexión se libera siempre: éxito,
// error, panic o cancelación.
func (b *Boundary) WithTenantConnection(ctx context.Context, fn func(Conn) error) error {
	return b.run(ctx, "conn", func(pc PooledConn, s Scope, log *zap.Logger) error {
		if err := b.stamp(ctx, pc, s, false, log); err != nil {
			return err
		}
		return fn(view{c: pc})
	})
}

// WithTenantTx es como WithTenantConnection pero dentro de una transacción.
// El scope se fija con is_local=true justo después de BEGIN y desaparece con
// el COMMIT/ROLLBACK. Cualquier error de fn hace rollback.
func (b *Boundary) WithTenantTx(ctx context.Context, fn func(Conn) error) error {
	return b.run(ctx, "tx", func(pc PooledConn, s Scope, log *zap.Logger) error {
		tx, err := pc.Begin(ctx)
		if err != nil {
			return fmt.Errorf("tenantsql: begin: %w", err)
		}
		done := false
		defer func() {
			if !done {
				rctx, cancel := context.WithTimeout(context.Background(), b.resetTimeout)
				defer cancel()
				_ = tx.Rollback(rctx)
			}
		}()

		if err := b.stamp(ctx, tx, s, true, log); err != nil {
			return err
		}
		if err := fn(view{c: tx}); err != nil {
			return err
		}
		done = true
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("tenantsql: commit: %w", err)
		}
		return nil
	})
}

func (b *Boundary) run(ctx context.Context, mode string, body func(PooledConn, Scope, *zap.Logger) error) error {
	s, ok := ScopeFrom(ctx)
	if !ok {
		return ErrNoScope
	}
	log := logger.From(ctx).With(
		logger.Component("tenantsql"),
		logger.String("unit", mode),
		logger.TenantID(s.TenantID),
	)

	pc, err := b.acquire(ctx)
	if err != nil {
		log.Warn("tenant unit: acquire failed", logger.Err(err))
		return err
	}

	start := time.Now()
	defer b.release(pc, log)

	err = body(pc, s, log)
	if err != nil {
		b.observe("unit", "error", start)
		return err
	}
	b.observe("unit", "ok", start)
	return nil
}

func (b *Boundary) acquire(ctx context.Context) (PooledConn, error) {
	start := time.Now()
	actx, cancel := context.WithTimeout(ctx, b.acquireTimeout)
	defer cancel()

	pc, err := b.pool.Acquire(actx)
	if err == nil {
		b.observe("acquire", "ok", start)
		return pc, nil
	}
	// la request se canceló: no es culpa del pool
	if ctx.Err() != nil {
		b.observe("acquire", "error", start)
		return nil, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || actx.Err() != nil {
		b.observe("acquire", "timeout", start)
		return nil, ErrResourceExhausted
	}
	b.observe("acquire", "error", start)
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (b *Boundary) stamp(ctx context.Context, c Conn, s Scope, local bool, log *zap.Logger) error {
	start := time.Now()
	err := stamp(ctx, c, s, local)
	if err == nil {
		b.observe("stamp", "ok", start)
		return nil
	}
	if ctx.Err() != nil {
		b.observe("stamp", "error", start)
		return ctx.Err()
	}
	if b.failMode == types.FailOpen {
		b.observe("stamp", "fail_open", start)
		log.Warn("tenant context not set, continuing (fail-open)",
			logger.FailMode(string(b.failMode)), logger.Err(err))
		return nil
	}
	b.observe("stamp", "error", start)
	log.Error("tenant context not set, aborting unit",
		logger.FailMode(string(b.failMode)), logger.Err(err))
	return fmt.Errorf("%w: %v", ErrTenantContext, err)
}

// release limpia las variables y devuelve la conexión. Usa su propio ctx: la
// request puede estar cancelada y la limpieza tiene que correr igual.
func (b *Boundary) release(pc PooledConn, log *zap.Logger) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), b.resetTimeout)
	defer cancel()

	if err := reset(ctx, pc); err != nil {
		b.observe("reset", "discarded", start)
		log.Warn("tenant context reset failed, discarding connection", logger.Err(err))
		pc.Discard()
		return
	}
	b.observe("reset", "ok", start)
	pc.Release()
}
