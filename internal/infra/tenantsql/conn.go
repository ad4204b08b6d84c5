package tenantsql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Conn es lo único que ve el código de negocio: ejecutar statements sobre la
// conexión ya marcada con el tenant.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx es una transacción abierta sobre una PooledConn. pgx.Tx la satisface.
type Tx interface {
	Conn
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// PooledConn es una conexión física prestada por el pool.
type PooledConn interface {
	Conn
	Begin(ctx context.Context) (Tx, error)
	// Release la devuelve al pool.
	Release()
	// Discard la cierra y la saca del pool.
	Discard()
}

// Pool entrega conexiones físicas. Acquire debe respetar ctx.
type Pool interface {
	Acquire(ctx context.Context) (PooledConn, error)
}

// view oculta Release/Begin/Commit al código de negocio.
type view struct{ c Conn }

func (v view) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return v.c.Exec(ctx, sql, args...)
}

func (v view) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return v.c.Query(ctx, sql, args...)
}

func (v view) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return v.c.QueryRow(ctx, sql, args...)
}
