package db

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgwait/pkg/pgwait"
)

// PoolAdapter adapts *pgxpool.Pool to implement the pgwait.DBConnection interface.
// This keeps pgx-specific types out of probes.
//
// Thread-Safety: Safe for concurrent use (pgxpool.Pool is thread-safe).
type PoolAdapter struct {
	pool      *pgxpool.Pool
	onClose   func()
	closeOnce sync.Once
}

// NewPoolAdapter wraps pool. onClose, if non-nil, runs once after the pool is
// closed; connectors use it to release per-connection resources such as dialers.
func NewPoolAdapter(pool *pgxpool.Pool, onClose func()) *PoolAdapter {
	return &PoolAdapter{pool: pool, onClose: onClose}
}

// Ping acquires the connection and checks the server responds.
func (p *PoolAdapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// QueryRow executes a query that is expected to return at most one row.
func (p *PoolAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgwait.Row {
	return &rowAdapter{row: p.pool.QueryRow(ctx, sql, args...)}
}

// Close closes the pool, then runs the onClose hook. Safe to call more than once.
func (p *PoolAdapter) Close() {
	p.closeOnce.Do(func() {
		p.pool.Close()
		if p.onClose != nil {
			p.onClose()
		}
	})
}

// rowAdapter adapts pgx.Row to implement pgwait.Row.
type rowAdapter struct {
	row interface{ Scan(...any) error }
}

// Scan reads the values from the row into dest values.
func (r *rowAdapter) Scan(dest ...any) error {
	return r.row.Scan(dest...)
}

// Verify PoolAdapter implements DBConnection at compile time
var _ pgwait.DBConnection = (*PoolAdapter)(nil)
