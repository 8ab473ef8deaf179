// Package postgres builds the instrumented pgx connection pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/go-core/log"
)

// PoolOptions configures NewPool.
type PoolOptions struct {
	Logger   log.Logger
	Observer QueryObserver
	MaxConns int32
}

// NewPool parses databaseURL, installs the otelpgx plus logging query
// tracer and verifies connectivity.
func NewPool(ctx context.Context, databaseURL string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	cfg.ConnConfig.Tracer = loggingTracer{
		inner:    otelpgx.NewTracer(),
		logger:   logger,
		observer: opts.Observer,
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
