package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/synclinehq/syncline/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Commits if the function succeeds, rolls back on error.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// SyncRunRepository handles sync run data operations
type SyncRunRepository interface {
	// Create creates a new sync run
	Create(ctx context.Context, run *models.SyncRun) error

	// GetByID retrieves a sync run by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.SyncRun, error)

	// List retrieves sync runs ordered by start time, newest first
	List(ctx context.Context, limit, offset int) ([]*models.SyncRun, error)

	// GetLatest retrieves the most recent run for a source/target pair
	GetLatest(ctx context.Context, source, target string) (*models.SyncRun, error)

	// Update updates a sync run's status and counters
	Update(ctx context.Context, run *models.SyncRun) error

	// GetByDateRange retrieves runs started within a date range
	GetByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*models.SyncRun, error)
}

// ContactMappingRepository handles contact mapping data operations
type ContactMappingRepository interface {
	// Upsert inserts or refreshes a mapping keyed on (source, source_id, target)
	Upsert(ctx context.Context, mapping *models.ContactMapping) error

	// GetBySourceID retrieves the mapping for a source contact
	GetBySourceID(ctx context.Context, source, sourceID, target string) (*models.ContactMapping, error)

	// GetByEmail retrieves all mappings for a normalized email
	GetByEmail(ctx context.Context, email string) ([]*models.ContactMapping, error)

	// Delete removes a mapping
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByTarget returns the number of contacts mapped to a target provider
	CountByTarget(ctx context.Context, target string) (int, error)
}

// ErrNotFound is returned when a lookup matches no row.
// Callers branch on it with errors.Is.
var ErrNotFound = errors.New("not found")

// Repositories aggregates all repository interfaces
type Repositories struct {
	SyncRuns        SyncRunRepository
	ContactMappings ContactMappingRepository
}
