package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "pgx"), mock
}

func TestJobRepoGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)

	jobID := uuid.New()
	mock.ExpectQuery("SELECT \\* FROM extraction_jobs WHERE id").
		WithArgs(jobID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), jobID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepoCreateActiveConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)

	job := &domain.ExtractionJob{
		ID:         uuid.New(),
		DocumentID: uuid.New(),
		Status:     domain.JobStatusPending,
	}
	mock.ExpectExec("INSERT INTO extraction_jobs").
		WillReturnError(errDuplicateActive{})

	err := repo.Create(context.Background(), job)
	assert.ErrorIs(t, err, domain.ErrJobConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

type errDuplicateActive struct{}

func (errDuplicateActive) Error() string {
	return `duplicate key value violates unique constraint "uq_extraction_jobs_active"`
}

func TestJobRepoClaimPendingReturnsClaimedJobs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)

	jobID := uuid.New()
	docID := uuid.New()
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "document_id", "status", "total_chunks", "completed_chunks",
		"error_message", "locked_preserved", "created_at", "updated_at",
	}).AddRow(jobID, docID, "processing", 3, 0, "", 0, now, now)

	mock.ExpectQuery("UPDATE extraction_jobs SET status = 'processing'").
		WithArgs(5).
		WillReturnRows(rows)

	jobs, err := repo.ClaimPending(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, jobID, jobs[0].ID)
	assert.Equal(t, domain.JobStatusProcessing, jobs[0].Status)
	assert.Equal(t, 3, jobs[0].TotalChunks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepoMarkTerminalSkipsTerminalJobs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewJobRepo(db)

	jobID := uuid.New()
	mock.ExpectExec("UPDATE extraction_jobs SET status").
		WithArgs(jobID, domain.JobStatusFailed, "engine unavailable").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkTerminal(context.Background(), jobID, domain.JobStatusFailed, "engine unavailable")
	assert.ErrorIs(t, err, domain.ErrJobConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
