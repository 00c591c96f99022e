// Package postgres opens pooled PostgreSQL connections through the pgx driver
// and applies embedded schema migrations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const driverName = "pgx"

// pool holds the settings applied to a new connection pool.
type pool struct {
	connectTimeout  time.Duration
	connMaxIdleTime time.Duration
	connMaxLifetime time.Duration
	maxIdleConns    int
	maxOpenConns    int
}

func defaultPool() pool {
	return pool{
		connectTimeout:  10 * time.Second,
		connMaxIdleTime: 5 * time.Minute,
		connMaxLifetime: 30 * time.Minute,
		maxIdleConns:    5,
		maxOpenConns:    25,
	}
}

type Option func(*pool)

// WithConnectTimeout bounds the initial connect and ping. Zero keeps the default.
func WithConnectTimeout(d time.Duration) Option {
	return func(p *pool) {
		if d > 0 {
			p.connectTimeout = d
		}
	}
}

func WithConnMaxIdleTime(d time.Duration) Option {
	return func(p *pool) {
		p.connMaxIdleTime = d
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(p *pool) {
		p.connMaxLifetime = d
	}
}

func WithMaxIdleConns(n int) Option {
	return func(p *pool) {
		p.maxIdleConns = n
	}
}

func WithMaxOpenConns(n int) Option {
	return func(p *pool) {
		p.maxOpenConns = n
	}
}

func (p pool) apply(db *sqlx.DB) {
	db.SetConnMaxIdleTime(p.connMaxIdleTime)
	db.SetConnMaxLifetime(p.connMaxLifetime)
	db.SetMaxIdleConns(p.maxIdleConns)
	db.SetMaxOpenConns(p.maxOpenConns)
}

// New connects to the link database identified by dsn and sizes its pool.
// The connect fails once the connect timeout elapses or ctx is done.
func New(ctx context.Context, dsn string, opts ...Option) (*sqlx.DB, error) {
	const op = "postgres.New"

	p := defaultPool()
	for _, opt := range opts {
		opt(&p)
	}

	ctx, cancel := context.WithTimeout(ctx, p.connectTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	p.apply(db)

	return db, nil
}
