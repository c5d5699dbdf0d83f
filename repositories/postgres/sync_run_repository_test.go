package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synclinehq/syncline/models"
	"github.com/synclinehq/syncline/repositories"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return &DB{DB: sqlDB, logger: zap.NewNop()}, mock
}

func syncRunRows(runs ...*models.SyncRun) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "source", "target", "status", "triggered_by", "total_count", "created_count",
		"updated_count", "skipped_count", "failed_count", "error_message", "started_at", "completed_at",
	})
	for _, run := range runs {
		rows.AddRow(run.ID, run.Source, run.Target, run.Status, run.TriggeredBy,
			run.TotalCount, run.CreatedCount, run.UpdatedCount, run.SkippedCount,
			run.FailedCount, run.ErrorMessage, run.StartedAt, run.CompletedAt)
	}
	return rows
}

func TestSyncRunRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSyncRunRepository(db, zap.NewNop())

	run := models.NewSyncRun("crm", "mailer", nil)

	mock.ExpectExec("INSERT INTO sync_runs").
		WithArgs(run.ID, "crm", "mailer", models.SyncRunPending, nil,
			0, 0, 0, 0, 0, nil, run.StartedAt, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncRunRepository_GetByID(t *testing.T) {
	t.Run("returns the run", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSyncRunRepository(db, zap.NewNop())

		want := models.NewSyncRun("crm", "mailer", nil)
		mock.ExpectQuery("SELECT (.+) FROM sync_runs").
			WithArgs(want.ID).
			WillReturnRows(syncRunRows(want))

		got, err := repo.GetByID(context.Background(), want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, "crm", got.Source)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps no rows to ErrNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSyncRunRepository(db, zap.NewNop())

		id := uuid.New()
		mock.ExpectQuery("SELECT (.+) FROM sync_runs").
			WithArgs(id).
			WillReturnRows(syncRunRows())

		_, err := repo.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestSyncRunRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSyncRunRepository(db, zap.NewNop())

	first := models.NewSyncRun("crm", "mailer", nil)
	second := models.NewSyncRun("crm", "mailer", nil)

	mock.ExpectQuery("SELECT (.+) FROM sync_runs").
		WithArgs(20, 0).
		WillReturnRows(syncRunRows(first, second))

	runs, err := repo.List(context.Background(), 20, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.ID, runs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncRunRepository_Update(t *testing.T) {
	t.Run("updates counters and status", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSyncRunRepository(db, zap.NewNop())

		run := models.NewSyncRun("crm", "mailer", nil)
		run.TotalCount = 10
		run.CreatedCount = 4
		run.UpdatedCount = 3
		run.SkippedCount = 3
		run.Complete()

		mock.ExpectExec("UPDATE sync_runs").
			WithArgs(run.ID, models.SyncRunCompleted, 10, 4, 3, 3, 0, nil, run.CompletedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), run))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a missing row to ErrNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSyncRunRepository(db, zap.NewNop())

		run := models.NewSyncRun("crm", "mailer", nil)
		mock.ExpectExec("UPDATE sync_runs").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), run)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestSyncRunRepository_GetLatest(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSyncRunRepository(db, zap.NewNop())

	want := models.NewSyncRun("crm", "mailer", nil)
	mock.ExpectQuery("SELECT (.+) FROM sync_runs").
		WithArgs("crm", "mailer").
		WillReturnRows(syncRunRows(want))

	got, err := repo.GetLatest(context.Background(), "crm", "mailer")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
}

func TestSyncRunRepository_GetByDateRange(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSyncRunRepository(db, zap.NewNop())

	start := time.Now().Add(-24 * time.Hour)
	end := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM sync_runs").
		WithArgs(start, end, 50, 0).
		WillReturnRows(syncRunRows())

	runs, err := repo.GetByDateRange(context.Background(), start, end, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSyncRunRepository_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSyncRunRepository(db, zap.NewNop())

	mock.ExpectQuery("SELECT (.+) FROM sync_runs").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background(), 20, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query sync runs")
}
