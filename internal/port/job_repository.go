package port

import (
	"context"

	"github.com/google/uuid"

	"finsight/internal/domain"
)

// JobRepository defines the contract for extraction job persistence.
type JobRepository interface {
	Create(ctx context.Context, job *domain.ExtractionJob) error
	GetByID(ctx context.Context, jobID uuid.UUID) (*domain.ExtractionJob, error)
	// GetLatestByDocument returns the most recent job for a document.
	GetLatestByDocument(ctx context.Context, docID uuid.UUID) (*domain.ExtractionJob, error)
	// HasActiveByDocument reports whether a non-terminal job exists for a document.
	HasActiveByDocument(ctx context.Context, docID uuid.UUID) (bool, error)
	// ClaimPending atomically moves up to limit pending jobs to processing and
	// returns them. A job is claimed by exactly one caller.
	ClaimPending(ctx context.Context, limit int) ([]domain.ExtractionJob, error)
	// IncrementCompleted bumps completed_chunks by one, bounded by total_chunks.
	IncrementCompleted(ctx context.Context, jobID uuid.UUID) error
	// MarkTerminal moves a job to completed or failed. The transition only
	// applies while the job is non-terminal, so a job reaches a terminal state
	// exactly once.
	MarkTerminal(ctx context.Context, jobID uuid.UUID, status domain.JobStatus, errMsg string) error
}
