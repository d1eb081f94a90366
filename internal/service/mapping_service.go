package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"finsight/internal/domain"
	"finsight/internal/port"
)

// MapInput is the DTO for mapping a statement to an investment.
type MapInput struct {
	InvestmentID      uuid.UUID
	ReportingDate     *time.Time
	FiscalPeriodLabel string
}

// MappingService attaches statements to investments for cross-document views.
type MappingService interface {
	// SuggestMapping proposes a candidate investment for a statement. The
	// parent document's investment is the only candidate; there is no
	// cross-investment guessing.
	SuggestMapping(ctx context.Context, statementID uuid.UUID) (*domain.MappingSuggestion, error)
	// Map assigns the statement to an investment. Mapping to a different
	// investment than the current one is ErrAlreadyMapped; re-mapping the
	// same investment refreshes the period enrichments.
	Map(ctx context.Context, statementID uuid.UUID, input *MapInput) (*domain.Statement, error)
	// Unmap clears the mapping. Rejected on locked statements.
	Unmap(ctx context.Context, statementID uuid.UUID) error
}

type mappingService struct {
	stmtRepo port.StatementRepository
	docRepo  port.DocumentRepository
}

// NewMappingService creates a new MappingService implementation.
func NewMappingService(stmtRepo port.StatementRepository, docRepo port.DocumentRepository) MappingService {
	return &mappingService{
		stmtRepo: stmtRepo,
		docRepo:  docRepo,
	}
}

func (s *mappingService) SuggestMapping(ctx context.Context, statementID uuid.UUID) (*domain.MappingSuggestion, error) {
	stmt, err := s.stmtRepo.GetByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	doc, err := s.docRepo.GetByID(ctx, stmt.DocumentID)
	if err != nil {
		return nil, err
	}

	suggestion := &domain.MappingSuggestion{
		StatementID:   statementID,
		Period:        stmt.Period,
		PeriodEndDate: stmt.PeriodEndDate,
	}
	if doc.InvestmentID != nil {
		suggestion.CandidateID = doc.InvestmentID
		suggestion.Reason = "document investment"
	} else {
		suggestion.Reason = "document has no investment"
	}
	return suggestion, nil
}

func (s *mappingService) Map(ctx context.Context, statementID uuid.UUID, input *MapInput) (*domain.Statement, error) {
	stmt, err := s.stmtRepo.GetByID(ctx, statementID)
	if err != nil {
		return nil, err
	}
	if stmt.Locked {
		return nil, domain.ErrStatementLocked
	}
	if stmt.InvestmentID != nil && *stmt.InvestmentID != input.InvestmentID {
		return nil, domain.ErrAlreadyMapped
	}

	stmt.InvestmentID = &input.InvestmentID
	stmt.ReportingDate = input.ReportingDate
	stmt.FiscalPeriodLabel = input.FiscalPeriodLabel
	if err := s.stmtRepo.UpdateMapping(ctx, stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (s *mappingService) Unmap(ctx context.Context, statementID uuid.UUID) error {
	stmt, err := s.stmtRepo.GetByID(ctx, statementID)
	if err != nil {
		return err
	}
	if stmt.Locked {
		return domain.ErrStatementLocked
	}
	if stmt.InvestmentID == nil {
		return nil
	}
	return s.stmtRepo.ClearMapping(ctx, statementID)
}
