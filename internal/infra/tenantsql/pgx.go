package tenantsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool adapta *pgxpool.Pool a Pool.
type PgxPool struct {
	P *pgxpool.Pool
}

func (p PgxPool) Acquire(ctx context.Context) (PooledConn, error) {
	c, err := p.P.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxConn{c: c}, nil
}

type pgxConn struct {
	c *pgxpool.Conn
}

func (p *pgxConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.c.Exec(ctx, sql, args...)
}

func (p *pgxConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.c.Query(ctx, sql, args...)
}

func (p *pgxConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.c.QueryRow(ctx, sql, args...)
}

func (p *pgxConn) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.c.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (p *pgxConn) Release() { p.c.Release() }

// Discard toma la conexión fuera del pool y la cierra. El pool repone el
// slot con una conexión nueva cuando haga falta.
func (p *pgxConn) Discard() {
	raw := p.c.Hijack()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = raw.Close(ctx)
}
