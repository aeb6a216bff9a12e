// Package db opens the optional Postgres pool the console keeps its session
// in, and reports its health.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ApplicationName is reported to Postgres in pg_stat_activity.
const ApplicationName = "clinic-admin"

type poolOptions struct {
	maxConns    int32
	minConns    int32
	pingTimeout time.Duration
	logger      zerolog.Logger
}

// PoolOption configures Connect.
type PoolOption func(*poolOptions)

// WithConns sets the pool bounds. Zero values keep the pgx defaults.
func WithConns(maxConns, minConns int32) PoolOption {
	return func(o *poolOptions) {
		o.maxConns = maxConns
		o.minConns = minConns
	}
}

func WithPingTimeout(d time.Duration) PoolOption {
	return func(o *poolOptions) { o.pingTimeout = d }
}

func WithLogger(l zerolog.Logger) PoolOption {
	return func(o *poolOptions) { o.logger = l }
}

// Connect parses databaseURL, opens a pool and pings it once.
func Connect(ctx context.Context, databaseURL string, opts ...PoolOption) (*pgxpool.Pool, error) {
	o := poolOptions{pingTimeout: 5 * time.Second, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if o.maxConns > 0 {
		cfg.MaxConns = o.maxConns
	}
	if o.minConns > 0 {
		cfg.MinConns = o.minConns
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, o.pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	o.logger.Info().
		Str("host", cfg.ConnConfig.Host).
		Str("database", cfg.ConnConfig.Database).
		Int32("max_conns", cfg.MaxConns).
		Msg("connected to session database")
	return pool, nil
}
