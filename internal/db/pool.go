// Package db provides the Postgres pool seam shared by PostGIS readers.
package db

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of *pgxpool.Pool used by this module. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig sizes the connection pool. Zero values use the defaults.
type PoolConfig struct {
	MaxConns int32       `mapstructure:"max_conns"`
	MinConns int32       `mapstructure:"min_conns"`
	Retry    RetryConfig `mapstructure:"retry"`
}

// Connect opens a pgx pool against connString and verifies it with a ping,
// retrying while the server is unreachable.
func Connect(ctx context.Context, connString string, poolCfg PoolConfig) (*pgxpool.Pool, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "db: parse config")
	}

	// Readers are short-lived batch jobs; keep the pool small.
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 0
	if poolCfg.MaxConns > 0 {
		pgxCfg.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		pgxCfg.MinConns = poolCfg.MinConns
	}
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "db: connect")
	}
	if err := pingWithRetry(ctx, pool, poolCfg.Retry); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "db: ping")
	}
	return pool, nil
}

// Identifier quotes a possibly schema-qualified table or column name.
func Identifier(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}
