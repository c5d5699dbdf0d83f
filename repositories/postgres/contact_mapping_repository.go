package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/synclinehq/syncline/models"
	"github.com/synclinehq/syncline/repositories"
	"go.uber.org/zap"
)

const contactMappingColumns = `id, source, source_id, target, target_id, email, checksum,
		last_synced_at, created_at, updated_at`

// ContactMappingRepository implements the repositories.ContactMappingRepository interface
type ContactMappingRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewContactMappingRepository creates a new contact mapping repository
func NewContactMappingRepository(db *DB, logger *zap.Logger) repositories.ContactMappingRepository {
	return &ContactMappingRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or refreshes a mapping keyed on (source, source_id, target)
func (r *ContactMappingRepository) Upsert(ctx context.Context, mapping *models.ContactMapping) error {
	query := `
		INSERT INTO contact_mappings (` + contactMappingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (source, source_id, target)
		DO UPDATE SET target_id = EXCLUDED.target_id,
		              email = EXCLUDED.email,
		              checksum = EXCLUDED.checksum,
		              last_synced_at = EXCLUDED.last_synced_at,
		              updated_at = EXCLUDED.updated_at
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		mapping.ID,
		mapping.Source,
		mapping.SourceID,
		mapping.Target,
		mapping.TargetID,
		mapping.Email,
		mapping.Checksum,
		mapping.LastSyncedAt,
		mapping.CreatedAt,
		mapping.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert contact mapping: %w", err)
	}

	r.logger.Debug("contact mapping upserted",
		zap.String("source_id", mapping.SourceID),
		zap.String("target", mapping.Target))
	return nil
}

// GetBySourceID retrieves the mapping for a source contact
func (r *ContactMappingRepository) GetBySourceID(ctx context.Context, source, sourceID, target string) (*models.ContactMapping, error) {
	query := `
		SELECT ` + contactMappingColumns + `
		FROM contact_mappings
		WHERE source = $1 AND source_id = $2 AND target = $3
	`

	executor := GetExecutor(ctx, r.db)
	mapping := &models.ContactMapping{}

	err := executor.QueryRowContext(ctx, query, source, sourceID, target).Scan(
		&mapping.ID,
		&mapping.Source,
		&mapping.SourceID,
		&mapping.Target,
		&mapping.TargetID,
		&mapping.Email,
		&mapping.Checksum,
		&mapping.LastSyncedAt,
		&mapping.CreatedAt,
		&mapping.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("contact mapping for %s/%s: %w", source, sourceID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contact mapping: %w", err)
	}

	return mapping, nil
}

// GetByEmail retrieves all mappings for a normalized email
func (r *ContactMappingRepository) GetByEmail(ctx context.Context, email string) ([]*models.ContactMapping, error) {
	query := `
		SELECT ` + contactMappingColumns + `
		FROM contact_mappings
		WHERE email = $1
		ORDER BY last_synced_at DESC
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*models.ContactMapping
	for rows.Next() {
		mapping := &models.ContactMapping{}
		err := rows.Scan(
			&mapping.ID,
			&mapping.Source,
			&mapping.SourceID,
			&mapping.Target,
			&mapping.TargetID,
			&mapping.Email,
			&mapping.Checksum,
			&mapping.LastSyncedAt,
			&mapping.CreatedAt,
			&mapping.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact mapping: %w", err)
		}
		mappings = append(mappings, mapping)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact mapping rows: %w", err)
	}

	return mappings, nil
}

// Delete removes a mapping
func (r *ContactMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM contact_mappings WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact mapping: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("contact mapping %s: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("contact mapping deleted", zap.String("id", id.String()))
	return nil
}

// CountByTarget returns the number of contacts mapped to a target provider
func (r *ContactMappingRepository) CountByTarget(ctx context.Context, target string) (int, error) {
	query := `SELECT COUNT(*) FROM contact_mappings WHERE target = $1`

	executor := GetExecutor(ctx, r.db)
	var count int
	if err := executor.QueryRowContext(ctx, query, target).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contact mappings: %w", err)
	}

	return count, nil
}
