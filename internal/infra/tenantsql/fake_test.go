package tenantsql

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB simula lo mínimo de Postgres + RLS: variables por conexión y una
// tabla cuyas filas solo ve el tenant que las escribió.
//
// Statements soportados:
//
//	stampSQL / resetSQL
//	"insert" ($1=name)       → fila para el tenant actual; sin tenant falla
//	"count"                  → QueryRow: filas visibles
//	"whoami"                 → QueryRow: conn id, tenant, identity
type fakeDB struct {
	mu   sync.Mutex
	rows []fakeRowData

	slots chan *fakeConn

	failStamp atomic.Bool
	failReset atomic.Bool
	queryWait time.Duration

	acquired  atomic.Int64
	released  atomic.Int64
	discarded atomic.Int64
	nextID    atomic.Int64
}

type fakeRowData struct {
	tenant string
	name   string
}

func newFakeDB(size int) *fakeDB {
	db := &fakeDB{slots: make(chan *fakeConn, size)}
	for i := 0; i < size; i++ {
		db.slots <- db.newConn()
	}
	return db
}

func (db *fakeDB) newConn() *fakeConn {
	return &fakeConn{db: db, id: db.nextID.Add(1), vars: map[string]string{}}
}

func (db *fakeDB) Acquire(ctx context.Context) (PooledConn, error) {
	select {
	case c := <-db.slots:
		db.acquired.Add(1)
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (db *fakeDB) inUse() int64 {
	return db.acquired.Load() - db.released.Load() - db.discarded.Load()
}

func (db *fakeDB) visible(tenant string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, r := range db.rows {
		if tenant != "" && r.tenant == tenant {
			n++
		}
	}
	return n
}

type fakeConn struct {
	db   *fakeDB
	id   int64
	vars map[string]string // nivel sesión

	mu  sync.Mutex
	log []string
}

func (c *fakeConn) record(s string) {
	c.mu.Lock()
	c.log = append(c.log, s)
	c.mu.Unlock()
}

func (c *fakeConn) setting(local map[string]string, key string) string {
	if local != nil {
		if v, ok := local[key]; ok {
			return v
		}
	}
	return c.vars[key]
}

func (c *fakeConn) exec(ctx context.Context, local map[string]string, inTx bool, pending *[]fakeRowData, sql string, args ...any) (pgconn.CommandTag, error) {
	if err := ctx.Err(); err != nil {
		return pgconn.CommandTag{}, err
	}
	switch sql {
	case stampSQL:
		c.record("stamp")
		if c.db.failStamp.Load() {
			return pgconn.CommandTag{}, errors.New("set_config failed")
		}
		isLocal, _ := args[2].(bool)
		target := c.vars
		if isLocal {
			if !inTx {
				// fuera de una tx, is_local no tiene efecto
				return pgconn.NewCommandTag("SELECT 1"), nil
			}
			target = local
		}
		target[TenantSetting] = args[0].(string)
		target[IdentitySetting] = args[1].(string)
		return pgconn.NewCommandTag("SELECT 1"), nil
	case resetSQL:
		c.record("reset")
		if c.db.failReset.Load() {
			return pgconn.CommandTag{}, errors.New("connection broken")
		}
		c.vars[TenantSetting] = ""
		c.vars[IdentitySetting] = ""
		return pgconn.NewCommandTag("SELECT 1"), nil
	case "insert":
		c.record("insert")
		tenant := c.setting(local, TenantSetting)
		if tenant == "" {
			return pgconn.CommandTag{}, errors.New("new row violates row-level security policy")
		}
		row := fakeRowData{tenant: tenant, name: args[0].(string)}
		if pending != nil {
			*pending = append(*pending, row)
		} else {
			c.db.mu.Lock()
			c.db.rows = append(c.db.rows, row)
			c.db.mu.Unlock()
		}
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("fake: unsupported statement %q", sql)
}

func (c *fakeConn) queryRow(ctx context.Context, local map[string]string, sql string) pgx.Row {
	if c.db.queryWait > 0 {
		time.Sleep(c.db.queryWait)
	}
	if err := ctx.Err(); err != nil {
		return fakeRow{err: err}
	}
	tenant := c.setting(local, TenantSetting)
	switch sql {
	case "whoami":
		c.record("whoami")
		return fakeRow{vals: []any{c.id, tenant, c.setting(local, IdentitySetting)}}
	case "count":
		c.record("count")
		return fakeRow{vals: []any{c.db.visible(tenant)}}
	}
	return fakeRow{err: fmt.Errorf("fake: unsupported query %q", sql)}
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.exec(ctx, nil, false, nil, sql, args...)
}

func (c *fakeConn) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("fake: Query not supported")
}

func (c *fakeConn) QueryRow(ctx context.Context, sql string, _ ...any) pgx.Row {
	return c.queryRow(ctx, nil, sql)
}

func (c *fakeConn) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.record("begin")
	return &fakeTx{c: c, local: map[string]string{}}, nil
}

func (c *fakeConn) Release() {
	c.db.released.Add(1)
	c.db.slots <- c
}

func (c *fakeConn) Discard() {
	c.db.discarded.Add(1)
	// el pool repone el slot con una conexión nueva
	c.db.slots <- c.db.newConn()
}

type fakeTx struct {
	c       *fakeConn
	local   map[string]string
	pending []fakeRowData
	closed  bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if t.closed {
		return pgconn.CommandTag{}, pgx.ErrTxClosed
	}
	return t.c.exec(ctx, t.local, true, &t.pending, sql, args...)
}

func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("fake: Query not supported")
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, _ ...any) pgx.Row {
	return t.c.queryRow(ctx, t.local, sql)
}

func (t *fakeTx) Commit(context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.c.record("commit")
	t.c.db.mu.Lock()
	t.c.db.rows = append(t.c.db.rows, t.pending...)
	t.c.db.mu.Unlock()
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.c.record("rollback")
	t.pending = nil
	return nil
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return fmt.Errorf("fake: scan %d into %d", len(r.vals), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.vals[i].(string)
		case *int64:
			*p = r.vals[i].(int64)
		case *int:
			*p = r.vals[i].(int)
		default:
			return fmt.Errorf("fake: unsupported scan type %T", d)
		}
	}
	return nil
}
