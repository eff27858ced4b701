package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jeovahfialho/sales-analyzer/internal/config"
	"github.com/jeovahfialho/sales-analyzer/internal/domain"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sales (
	order_id   BIGINT,
	region     TEXT,
	product    TEXT,
	quantity   INTEGER,
	unit_price NUMERIC(12, 2),
	total      NUMERIC(14, 2),
	date       DATE
);
CREATE INDEX IF NOT EXISTS idx_sales_date ON sales (date);
CREATE INDEX IF NOT EXISTS idx_sales_product ON sales (product);
`

type DB struct {
	pool *pgxpool.Pool
}

// NewDB opens the pool and pings it. Connection failures are reported as
// domain.ErrDataSourceUnavailable.
func NewDB(cfg *config.Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("erro ao parsear config: %w", err)
	}

	poolConfig.MaxConns = cfg.DatabaseMaxConns
	poolConfig.MinConns = cfg.DatabaseMinConns
	poolConfig.MaxConnLifetime = cfg.DatabaseMaxConnLife
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, domain.Unavailable(config.SourcePostgres, fmt.Errorf("erro ao criar pool: %w", err))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, domain.Unavailable(config.SourcePostgres, fmt.Errorf("erro ao conectar: %w", err))
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) Close() {
	db.pool.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *DB) Stats() *pgxpool.Stat {
	return db.pool.Stat()
}

// EnsureSchema creates the sales table and its indexes when missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("erro ao criar schema: %w", err)
	}
	return nil
}
