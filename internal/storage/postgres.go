package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createKVTableSQL = `CREATE TABLE IF NOT EXISTS kv_cache (
        key        text PRIMARY KEY,
        value      text NOT NULL,
        updated_at timestamptz NOT NULL DEFAULT now()
    );`

	getValueSQL = `SELECT value FROM kv_cache WHERE key = $1;`

	putValueSQL = `INSERT INTO kv_cache (key, value, updated_at)
    VALUES ($1, $2, now())
    ON CONFLICT (key) DO UPDATE
    SET value = EXCLUDED.value, updated_at = now();`
)

// PostgresConfig encapsulates PostgreSQL connectivity.
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Postgres persists key/value pairs in a single table via pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres configures a connection pool and ensures the backing table exists.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	backend := &Postgres{pool: pool}
	if err := backend.ensure(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return backend, nil
}

func (p *Postgres) ensure(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createKVTableSQL); err != nil {
		return fmt.Errorf("ensure kv_cache table: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (p *Postgres) Close() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Close()
}

// Get returns the stored value for key, or ErrKeyNotFound.
func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	if p == nil || p.pool == nil {
		return "", ErrNotConfigured
	}

	var value string
	err := p.pool.QueryRow(ctx, getValueSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Put writes or replaces the value for key.
func (p *Postgres) Put(ctx context.Context, key, value string) error {
	if p == nil || p.pool == nil {
		return ErrNotConfigured
	}

	if _, err := p.pool.Exec(ctx, putValueSQL, key, value); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

var _ Backend = (*Postgres)(nil)
