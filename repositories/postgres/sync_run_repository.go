package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/synclinehq/syncline/models"
	"github.com/synclinehq/syncline/repositories"
	"go.uber.org/zap"
)

const syncRunColumns = `id, source, target, status, triggered_by, total_count, created_count,
		updated_count, skipped_count, failed_count, error_message, started_at, completed_at`

// SyncRunRepository implements the repositories.SyncRunRepository interface
type SyncRunRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSyncRunRepository creates a new sync run repository
func NewSyncRunRepository(db *DB, logger *zap.Logger) repositories.SyncRunRepository {
	return &SyncRunRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new sync run
func (r *SyncRunRepository) Create(ctx context.Context, run *models.SyncRun) error {
	query := `
		INSERT INTO sync_runs (` + syncRunColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		run.ID,
		run.Source,
		run.Target,
		run.Status,
		run.TriggeredBy,
		run.TotalCount,
		run.CreatedCount,
		run.UpdatedCount,
		run.SkippedCount,
		run.FailedCount,
		run.ErrorMessage,
		run.StartedAt,
		run.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create sync run: %w", err)
	}

	r.logger.Debug("sync run created",
		zap.String("id", run.ID.String()),
		zap.String("source", run.Source),
		zap.String("target", run.Target))
	return nil
}

// GetByID retrieves a sync run by ID
func (r *SyncRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SyncRun, error) {
	query := `
		SELECT ` + syncRunColumns + `
		FROM sync_runs
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	run, err := scanSyncRun(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("sync run %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sync run: %w", err)
	}

	return run, nil
}

// List retrieves sync runs ordered by start time, newest first
func (r *SyncRunRepository) List(ctx context.Context, limit, offset int) ([]*models.SyncRun, error) {
	query := `
		SELECT ` + syncRunColumns + `
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	return collectSyncRuns(rows)
}

// GetLatest retrieves the most recent run for a source/target pair
func (r *SyncRunRepository) GetLatest(ctx context.Context, source, target string) (*models.SyncRun, error) {
	query := `
		SELECT ` + syncRunColumns + `
		FROM sync_runs
		WHERE source = $1 AND target = $2
		ORDER BY started_at DESC
		LIMIT 1
	`

	executor := GetExecutor(ctx, r.db)
	run, err := scanSyncRun(executor.QueryRowContext(ctx, query, source, target))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("sync run for %s->%s: %w", source, target, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest sync run: %w", err)
	}

	return run, nil
}

// Update updates a sync run's status and counters
func (r *SyncRunRepository) Update(ctx context.Context, run *models.SyncRun) error {
	query := `
		UPDATE sync_runs
		SET status = $2,
		    total_count = $3,
		    created_count = $4,
		    updated_count = $5,
		    skipped_count = $6,
		    failed_count = $7,
		    error_message = $8,
		    completed_at = $9
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		run.ID,
		run.Status,
		run.TotalCount,
		run.CreatedCount,
		run.UpdatedCount,
		run.SkippedCount,
		run.FailedCount,
		run.ErrorMessage,
		run.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("sync run %s: %w", run.ID, repositories.ErrNotFound)
	}

	r.logger.Debug("sync run updated",
		zap.String("id", run.ID.String()),
		zap.String("status", string(run.Status)))
	return nil
}

// GetByDateRange retrieves runs started within a date range
func (r *SyncRunRepository) GetByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*models.SyncRun, error) {
	query := `
		SELECT ` + syncRunColumns + `
		FROM sync_runs
		WHERE started_at >= $1 AND started_at < $2
		ORDER BY started_at DESC
		LIMIT $3 OFFSET $4
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, start, end, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	return collectSyncRuns(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSyncRun(row rowScanner) (*models.SyncRun, error) {
	run := &models.SyncRun{}
	err := row.Scan(
		&run.ID,
		&run.Source,
		&run.Target,
		&run.Status,
		&run.TriggeredBy,
		&run.TotalCount,
		&run.CreatedCount,
		&run.UpdatedCount,
		&run.SkippedCount,
		&run.FailedCount,
		&run.ErrorMessage,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func collectSyncRuns(rows *sql.Rows) ([]*models.SyncRun, error) {
	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync run rows: %w", err)
	}

	return runs, nil
}
