package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"finsight/internal/domain"
	"finsight/internal/port"
)

type jobRepo struct {
	db *sqlx.DB
}

// NewJobRepo creates a new PostgreSQL-backed JobRepository.
func NewJobRepo(db *sqlx.DB) port.JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) Create(ctx context.Context, job *domain.ExtractionJob) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	query := `INSERT INTO extraction_jobs (
		id, document_id, status, total_chunks, completed_chunks,
		error_message, locked_preserved, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.DocumentID, job.Status, job.TotalChunks, job.CompletedChunks,
		job.ErrorMessage, job.LockedPreserved, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "uq_extraction_jobs_active") {
			return domain.ErrJobConflict
		}
		return fmt.Errorf("jobRepo.Create: %w", err)
	}
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, jobID uuid.UUID) (*domain.ExtractionJob, error) {
	var job domain.ExtractionJob
	err := r.db.GetContext(ctx, &job,
		"SELECT * FROM extraction_jobs WHERE id = $1", jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("jobRepo.GetByID: %w", err)
	}
	return &job, nil
}

func (r *jobRepo) GetLatestByDocument(ctx context.Context, docID uuid.UUID) (*domain.ExtractionJob, error) {
	var job domain.ExtractionJob
	err := r.db.GetContext(ctx, &job,
		`SELECT * FROM extraction_jobs WHERE document_id = $1
		 ORDER BY created_at DESC LIMIT 1`, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("jobRepo.GetLatestByDocument: %w", err)
	}
	return &job, nil
}

func (r *jobRepo) HasActiveByDocument(ctx context.Context, docID uuid.UUID) (bool, error) {
	var active bool
	err := r.db.GetContext(ctx, &active,
		`SELECT EXISTS (
			SELECT 1 FROM extraction_jobs
			WHERE document_id = $1 AND status IN ('pending', 'processing')
		)`, docID)
	if err != nil {
		return false, fmt.Errorf("jobRepo.HasActiveByDocument: %w", err)
	}
	return active, nil
}

// ClaimPending atomically moves up to limit pending jobs to processing and
// returns them. SKIP LOCKED keeps concurrent workers from claiming the same
// job twice.
func (r *jobRepo) ClaimPending(ctx context.Context, limit int) ([]domain.ExtractionJob, error) {
	var jobs []domain.ExtractionJob
	err := r.db.SelectContext(ctx, &jobs,
		`UPDATE extraction_jobs SET status = 'processing', updated_at = now()
		 WHERE id IN (
			SELECT id FROM extraction_jobs
			WHERE status = 'pending'
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`, limit)
	if err != nil {
		return nil, fmt.Errorf("jobRepo.ClaimPending: %w", err)
	}
	return jobs, nil
}

func (r *jobRepo) IncrementCompleted(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE extraction_jobs
		 SET completed_chunks = LEAST(completed_chunks + 1, total_chunks),
		     updated_at = now()
		 WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("jobRepo.IncrementCompleted: %w", err)
	}
	return nil
}

// MarkTerminal transitions a job to completed or failed. Jobs already in a
// terminal state are left untouched.
func (r *jobRepo) MarkTerminal(ctx context.Context, jobID uuid.UUID, status domain.JobStatus, errMsg string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE extraction_jobs SET status = $2, error_message = $3, updated_at = now()
		 WHERE id = $1 AND status IN ('pending', 'processing')`,
		jobID, status, errMsg)
	if err != nil {
		return fmt.Errorf("jobRepo.MarkTerminal: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("jobRepo.MarkTerminal rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobConflict
	}
	return nil
}
