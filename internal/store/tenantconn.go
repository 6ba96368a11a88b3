package store

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/view360/provisioning/internal/config"
)

// TenantPool is the handle returned for a dynamically connected tenant
// database. *pgxpool.Pool satisfies it; tests substitute fakes.
type TenantPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// TenantConnector builds pooled connections to tenant databases whose names
// are only known at runtime. The tenant host, credentials, and retry policy
// are fixed by configuration; only the database name varies per tenant.
type TenantConnector struct {
	cfg config.TenantHostConfig
}

// NewTenantConnector creates a TenantConnector for the configured tenant host.
func NewTenantConnector(cfg config.TenantHostConfig) *TenantConnector {
	return &TenantConnector{cfg: cfg}
}

// DSN returns the connection URL for the named tenant database.
func (c *TenantConnector) DSN(dbName string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.cfg.User), url.QueryEscape(c.cfg.Password),
		c.cfg.Host, c.cfg.Port, url.PathEscape(dbName), c.cfg.SSLMode)
}

// Connect opens and pings a pool bound to the named tenant database.
func (c *TenantConnector) Connect(ctx context.Context, dbName string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, c.DSN(dbName))
	if err != nil {
		return nil, fmt.Errorf("connect to tenant database %s: %w", dbName, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping tenant database %s: %w", dbName, err)
	}
	return pool, nil
}

// ConnectWithRetry attempts Connect up to the configured number of times with
// a fixed delay between attempts. Newly created databases are not immediately
// reachable on some hosting platforms; the capped fixed-delay loop absorbs
// that propagation lag.
func (c *TenantConnector) ConnectWithRetry(ctx context.Context, dbName string) (TenantPool, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.ConnectAttempts; attempt++ {
		pool, err := c.Connect(ctx, dbName)
		if err == nil {
			return pool, nil
		}
		lastErr = err

		if attempt < c.cfg.ConnectAttempts {
			if err := sleep(ctx, c.cfg.ConnectRetryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", c.cfg.ConnectAttempts, lastErr)
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
