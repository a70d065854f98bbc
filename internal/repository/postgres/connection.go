package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"canopy/internal/domain/repositories"
)

// RepositoryConfig holds what every repository needs
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds the prefixed table names of one environment
type TableNames struct {
	Workspaces      string
	FolderSnapshots string
	ViewContents    string
}

// NewTableNames creates table names with the given prefix (dev_, test_, prod_)
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Workspaces:      fmt.Sprintf("%sworkspaces", prefix),
		FolderSnapshots: fmt.Sprintf("%sfolder_snapshots", prefix),
		ViewContents:    fmt.Sprintf("%sview_contents", prefix),
	}
}

// pgBouncerPort is the Supabase transaction pooler port
const pgBouncerPort = 6543

// CreateConnectionPool opens and pings a pgx pool.
//
// The transaction pooler on port 6543 cannot hold prepared statements, so the
// pool switches to QueryExecModeCacheDescribe there, which keeps the extended
// protocol needed for JSONB parameters. A default_query_exec_mode set in the
// connection string wins over this.
//
// The snapshot listener holds one connection for LISTEN; it must reach the
// database directly, not through the transaction pooler.
func CreateConnectionPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if maxConns > 0 {
		config.MaxConns = maxConns
	}
	config.MinConns = min(2, config.MaxConns)

	if config.ConnConfig.Port == pgBouncerPort && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", pgBouncerPort)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction of ctx when there is one, else the pool
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
