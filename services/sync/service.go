// Package sync runs the contact synchronization pipeline between two
// configured providers.
package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/synclinehq/syncline/models"
	"github.com/synclinehq/syncline/repositories"
	"github.com/synclinehq/syncline/services/providers"
	"github.com/synclinehq/syncline/utils"
	"go.uber.org/zap"
)

// Service copies contacts from the source provider to the target provider,
// using stored mappings to skip contacts that have not changed since the
// last run.
type Service struct {
	source   providers.Provider
	target   providers.Provider
	runs     repositories.SyncRunRepository
	mappings repositories.ContactMappingRepository
	tx       repositories.TransactionManager
	pageSize int
	logger   *zap.Logger
}

// NewService creates a sync service between the given providers.
func NewService(
	source, target providers.Provider,
	runs repositories.SyncRunRepository,
	mappings repositories.ContactMappingRepository,
	tx repositories.TransactionManager,
	pageSize int,
	logger *zap.Logger,
) *Service {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Service{
		source:   source,
		target:   target,
		runs:     runs,
		mappings: mappings,
		tx:       tx,
		pageSize: pageSize,
		logger:   logger,
	}
}

// Run executes one full sync pass. The returned run always reflects the
// final persisted state; a non-nil error means the pass aborted before
// reaching the end of the source listing.
func (s *Service) Run(ctx context.Context, triggeredBy *uuid.UUID) (*models.SyncRun, error) {
	run := models.NewSyncRun(s.source.Name(), s.target.Name(), triggeredBy)
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record sync run: %w", err)
	}

	run.Status = models.SyncRunRunning
	if err := s.runs.Update(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to start sync run: %w", err)
	}

	s.logger.Info("sync run started",
		zap.String("run_id", run.ID.String()),
		zap.String("source", run.Source),
		zap.String("target", run.Target))

	cursor := ""
	for {
		contacts, next, err := s.source.ListContacts(ctx, cursor, s.pageSize)
		if err != nil {
			s.fail(ctx, run, fmt.Sprintf("source listing failed: %v", err))
			return run, fmt.Errorf("source listing failed: %w", err)
		}

		for _, contact := range contacts {
			run.TotalCount++
			s.syncContact(ctx, run, contact)
		}

		if next == "" {
			break
		}
		cursor = next
	}

	run.Complete()
	if err := s.runs.Update(ctx, run); err != nil {
		return run, fmt.Errorf("failed to finalize sync run: %w", err)
	}

	s.logger.Info("sync run completed",
		zap.String("run_id", run.ID.String()),
		zap.Int("total", run.TotalCount),
		zap.Int("created", run.CreatedCount),
		zap.Int("updated", run.UpdatedCount),
		zap.Int("skipped", run.SkippedCount),
		zap.Int("failed", run.FailedCount))

	return run, nil
}

// syncContact pushes one contact to the target unless its stored checksum
// shows it is already up to date. Per-contact failures are counted, not
// fatal.
func (s *Service) syncContact(ctx context.Context, run *models.SyncRun, contact *models.Contact) {
	if err := utils.ValidateEmail(contact.Email); err != nil {
		s.logger.Warn("skipping contact with invalid email",
			zap.String("run_id", run.ID.String()),
			zap.String("source_id", contact.ID))
		run.SkippedCount++
		return
	}

	mapping, err := s.mappings.GetBySourceID(ctx, run.Source, contact.ID, run.Target)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		s.logger.Error("mapping lookup failed",
			zap.String("run_id", run.ID.String()),
			zap.String("source_id", contact.ID),
			zap.Error(err))
		run.FailedCount++
		return
	}

	checksum := contact.Checksum()
	if mapping != nil && mapping.Checksum == checksum {
		run.SkippedCount++
		return
	}

	targetID, err := s.target.UpsertContact(ctx, contact)
	if err != nil {
		s.logger.Warn("target upsert failed",
			zap.String("run_id", run.ID.String()),
			zap.String("source_id", contact.ID),
			zap.Error(err))
		run.FailedCount++
		return
	}

	created := mapping == nil
	if created {
		mapping = models.NewContactMapping(run.Source, contact.ID, run.Target, targetID, contact)
		run.CreatedCount++
	} else {
		mapping.TargetID = targetID
		mapping.Touch(checksum)
		run.UpdatedCount++
	}

	// The mapping and the run counters must land together: a mapping without
	// updated counters misreports the run, and counters without the mapping
	// would skip this contact's next change.
	err = s.tx.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		if err := s.mappings.Upsert(ctx, mapping); err != nil {
			return fmt.Errorf("persist mapping: %w", err)
		}
		return s.runs.Update(ctx, run)
	})
	if err != nil {
		s.logger.Error("mapping persist failed",
			zap.String("run_id", run.ID.String()),
			zap.String("source_id", contact.ID),
			zap.Error(err))
		if created {
			run.CreatedCount--
		} else {
			run.UpdatedCount--
		}
		run.FailedCount++
	}
}

func (s *Service) fail(ctx context.Context, run *models.SyncRun, msg string) {
	run.Fail(msg)
	if err := s.runs.Update(ctx, run); err != nil {
		s.logger.Error("failed to persist failed sync run",
			zap.String("run_id", run.ID.String()),
			zap.Error(err))
	}
}

// GetRun retrieves a sync run by ID.
func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (*models.SyncRun, error) {
	return s.runs.GetByID(ctx, id)
}

// ListRuns retrieves recent sync runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit, offset int) ([]*models.SyncRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.runs.List(ctx, limit, offset)
}

// Status reports whether both providers are reachable and how many contacts
// are currently mapped onto the target.
func (s *Service) Status(ctx context.Context) (map[string]interface{}, error) {
	mapped, err := s.mappings.CountByTarget(ctx, s.target.Name())
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"source":           s.source.Name(),
		"target":           s.target.Name(),
		"source_available": s.source.IsAvailable(ctx),
		"target_available": s.target.IsAvailable(ctx),
		"mapped_contacts":  mapped,
	}, nil
}
