package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"finsight/internal/domain"
	"finsight/internal/port"
)

// DocumentStatements bundles a document's statements with its latest job.
type DocumentStatements struct {
	Statements []domain.Statement
	LatestJob  *domain.ExtractionJob
}

// StatementService exposes read access to extracted statements.
type StatementService interface {
	GetWithItems(ctx context.Context, statementID uuid.UUID) (*domain.Statement, error)
	// ListByDocument returns the document's statements with items plus its
	// most recent extraction job (nil when none was ever triggered).
	ListByDocument(ctx context.Context, documentID uuid.UUID) (*DocumentStatements, error)
	ListByInvestment(ctx context.Context, investmentID uuid.UUID, statementType domain.StatementType) ([]domain.Statement, error)
}

type statementService struct {
	docRepo  port.DocumentRepository
	jobRepo  port.JobRepository
	stmtRepo port.StatementRepository
}

// NewStatementService creates a new StatementService implementation.
func NewStatementService(docRepo port.DocumentRepository, jobRepo port.JobRepository, stmtRepo port.StatementRepository) StatementService {
	return &statementService{
		docRepo:  docRepo,
		jobRepo:  jobRepo,
		stmtRepo: stmtRepo,
	}
}

func (s *statementService) GetWithItems(ctx context.Context, statementID uuid.UUID) (*domain.Statement, error) {
	return s.stmtRepo.GetWithItems(ctx, statementID)
}

func (s *statementService) ListByDocument(ctx context.Context, documentID uuid.UUID) (*DocumentStatements, error) {
	if _, err := s.docRepo.GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	statements, err := s.stmtRepo.ListByDocument(ctx, documentID, true)
	if err != nil {
		return nil, err
	}

	job, err := s.jobRepo.GetLatestByDocument(ctx, documentID)
	if err != nil && !errors.Is(err, domain.ErrJobNotFound) {
		return nil, err
	}

	return &DocumentStatements{Statements: statements, LatestJob: job}, nil
}

func (s *statementService) ListByInvestment(ctx context.Context, investmentID uuid.UUID, statementType domain.StatementType) ([]domain.Statement, error) {
	if statementType != "" && !domain.ValidStatementTypes[statementType] {
		return nil, domain.ErrInvalidStatementType
	}
	return s.stmtRepo.ListByInvestment(ctx, investmentID, statementType, true)
}
