package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"compatibility-workers/internal/common/config"
)

// PostgresClient holds the profile database pool. Repositories take DB
// directly.
type PostgresClient struct {
	DB   *sqlx.DB
	name string
}

// NewPostgres opens the pool without dialing.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db, name: cfg.Database}, nil
}

// RegisterMetrics exposes pool statistics (open, in use, wait time) labelled
// with the database name.
func (c *PostgresClient) RegisterMetrics(reg prometheus.Registerer) error {
	if err := reg.Register(collectors.NewDBStatsCollector(c.DB.DB, c.name)); err != nil {
		return fmt.Errorf("register postgres pool metrics: %w", err)
	}
	return nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
