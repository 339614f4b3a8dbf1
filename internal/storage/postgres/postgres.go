// Package postgres stores save slots in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
)

// Pool is the connection pool of the save database.
type Pool struct {
	pool   *pgxpool.Pool
	addr   string
	logger *zap.Logger
}

// NewPool connects to the save database described by cfg.
//
// Precondition: cfg must contain valid database connection parameters;
// logger must be non-nil.
// Postcondition: Returns a pool that answered a ping, or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Pool, error) {
	start := time.Now()
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing save database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating save database pool for %s: %w", cfg.Addr(), err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging save database at %s: %w", cfg.Addr(), err)
	}

	p := &Pool{pool: pool, addr: cfg.Addr(), logger: logger.Named("savedb")}
	p.logger.Info("save database connected",
		zap.String("addr", p.addr),
		zap.String("database", cfg.Name),
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Duration("elapsed", time.Since(start)),
	)
	return p, nil
}

// Health pings the save database, giving up after timeout.
//
// Precondition: The pool must not be closed.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		stat := p.pool.Stat()
		p.logger.Warn("save database unhealthy",
			zap.String("addr", p.addr),
			zap.Int32("total_conns", stat.TotalConns()),
			zap.Int32("idle_conns", stat.IdleConns()),
			zap.Error(err),
		)
		return fmt.Errorf("save database %s: %w", p.addr, err)
	}
	return nil
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
	p.logger.Info("save database closed", zap.String("addr", p.addr))
}

// DB returns the underlying pgxpool.Pool for use by repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
