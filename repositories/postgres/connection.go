package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/synclinehq/syncline/config"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Sync runs table
		CREATE TABLE IF NOT EXISTS sync_runs (
			id UUID PRIMARY KEY,
			source VARCHAR(100) NOT NULL,
			target VARCHAR(100) NOT NULL,
			status VARCHAR(50) NOT NULL,
			triggered_by UUID,
			total_count INTEGER NOT NULL DEFAULT 0,
			created_count INTEGER NOT NULL DEFAULT 0,
			updated_count INTEGER NOT NULL DEFAULT 0,
			skipped_count INTEGER NOT NULL DEFAULT 0,
			failed_count INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMP
		);

		-- Contact mappings table
		CREATE TABLE IF NOT EXISTS contact_mappings (
			id UUID PRIMARY KEY,
			source VARCHAR(100) NOT NULL,
			source_id VARCHAR(255) NOT NULL,
			target VARCHAR(100) NOT NULL,
			target_id VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			checksum VARCHAR(64) NOT NULL,
			last_synced_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(source, source_id, target)
		);

		-- Indexes for performance
		CREATE INDEX IF NOT EXISTS idx_sync_runs_status ON sync_runs(status);
		CREATE INDEX IF NOT EXISTS idx_sync_runs_started_at ON sync_runs(started_at);
		CREATE INDEX IF NOT EXISTS idx_sync_runs_source_target ON sync_runs(source, target);

		CREATE INDEX IF NOT EXISTS idx_contact_mappings_email ON contact_mappings(email);
		CREATE INDEX IF NOT EXISTS idx_contact_mappings_target ON contact_mappings(target);
		CREATE INDEX IF NOT EXISTS idx_contact_mappings_last_synced_at ON contact_mappings(last_synced_at);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
