package service

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"finsight/internal/domain"
	"finsight/internal/port"
)

// EditLineItemInput is the DTO for editing a line item's overrides.
// A nil pointer leaves the field unchanged; a Clear flag removes the override
// so the extracted value shows through again.
type EditLineItemInput struct {
	EditedLabel *string
	EditedValue *float64
	ClearLabel  bool
	ClearValue  bool
}

// ReviewService covers statement review state and the line item edit ledger.
type ReviewService interface {
	EditLineItem(ctx context.Context, lineItemID uuid.UUID, input *EditLineItemInput) (*domain.LineItem, error)
	GetHistory(ctx context.Context, lineItemID uuid.UUID) ([]domain.EditRecord, error)
	// SetReviewStatus moves a statement forward through
	// pending -> reviewed -> approved. Same-status calls are no-ops.
	SetReviewStatus(ctx context.Context, statementID uuid.UUID, status domain.ReviewStatus) error
	// Lock freezes a statement permanently and marks it approved. Idempotent.
	Lock(ctx context.Context, statementID uuid.UUID) error
	// OverrideCanonical assigns a canonical label by hand. User assignments
	// win over the normalizer on later runs.
	OverrideCanonical(ctx context.Context, lineItemID uuid.UUID, canonicalName string) (*domain.LineItem, error)
}

type reviewService struct {
	stmtRepo     port.StatementRepository
	lineItemRepo port.LineItemRepository
	metricRepo   port.MetricRepository
}

// NewReviewService creates a new ReviewService implementation.
func NewReviewService(stmtRepo port.StatementRepository, lineItemRepo port.LineItemRepository, metricRepo port.MetricRepository) ReviewService {
	return &reviewService{
		stmtRepo:     stmtRepo,
		lineItemRepo: lineItemRepo,
		metricRepo:   metricRepo,
	}
}

func (s *reviewService) EditLineItem(ctx context.Context, lineItemID uuid.UUID, input *EditLineItemInput) (*domain.LineItem, error) {
	item, err := s.lineItemRepo.GetByID(ctx, lineItemID)
	if err != nil {
		return nil, err
	}

	var records []domain.EditRecord

	if input.EditedLabel != nil || input.ClearLabel {
		oldLabel := item.EffectiveLabel()
		if input.ClearLabel {
			item.EditedLabel = nil
		} else {
			item.EditedLabel = input.EditedLabel
		}
		newLabel := item.EffectiveLabel()
		if newLabel != oldLabel {
			records = append(records, domain.EditRecord{
				Field:    domain.EditFieldLabel,
				OldValue: &oldLabel,
				NewValue: &newLabel,
			})
		}
	}

	if input.EditedValue != nil || input.ClearValue {
		oldValue := formatValue(item.EffectiveValue())
		if input.ClearValue {
			item.EditedValue = nil
		} else {
			item.EditedValue = input.EditedValue
		}
		newValue := formatValue(item.EffectiveValue())
		if !stringPtrEqual(oldValue, newValue) {
			records = append(records, domain.EditRecord{
				Field:    domain.EditFieldValue,
				OldValue: oldValue,
				NewValue: newValue,
			})
		}
	}

	item.IsUserModified = item.ComputeUserModified()

	if err := s.lineItemRepo.UpdateWithHistory(ctx, item, records); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *reviewService) GetHistory(ctx context.Context, lineItemID uuid.UUID) ([]domain.EditRecord, error) {
	if _, err := s.lineItemRepo.GetByID(ctx, lineItemID); err != nil {
		return nil, err
	}
	return s.lineItemRepo.ListHistory(ctx, lineItemID)
}

func (s *reviewService) SetReviewStatus(ctx context.Context, statementID uuid.UUID, status domain.ReviewStatus) error {
	if domain.ReviewRank(status) < 0 {
		return domain.ErrInvalidReviewTransition
	}

	stmt, err := s.stmtRepo.GetByID(ctx, statementID)
	if err != nil {
		return err
	}
	if stmt.Locked {
		return domain.ErrStatementLocked
	}
	if stmt.ReviewStatus == status {
		return nil
	}
	if domain.ReviewRank(status) < domain.ReviewRank(stmt.ReviewStatus) {
		return domain.ErrInvalidReviewTransition
	}
	return s.stmtRepo.SetReviewStatus(ctx, statementID, status)
}

func (s *reviewService) Lock(ctx context.Context, statementID uuid.UUID) error {
	stmt, err := s.stmtRepo.GetByID(ctx, statementID)
	if err != nil {
		return err
	}
	if stmt.Locked {
		return nil
	}
	return s.stmtRepo.Lock(ctx, statementID)
}

func (s *reviewService) OverrideCanonical(ctx context.Context, lineItemID uuid.UUID, canonicalName string) (*domain.LineItem, error) {
	item, err := s.lineItemRepo.GetByID(ctx, lineItemID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.metricRepo.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	known := false
	for _, metric := range catalog {
		if metric.Name == canonicalName {
			known = true
			break
		}
	}
	if !known {
		return nil, domain.ErrMetricNotFound
	}

	var record domain.EditRecord
	record.Field = domain.EditFieldCanonical
	record.OldValue = item.CanonicalLabel
	record.NewValue = &canonicalName

	item.CanonicalLabel = &canonicalName
	item.CanonicalSource = domain.CanonicalSourceUser

	if err := s.lineItemRepo.UpdateWithHistory(ctx, item, []domain.EditRecord{record}); err != nil {
		return nil, err
	}
	return item, nil
}

func formatValue(v *float64) *string {
	if v == nil {
		return nil
	}
	formatted := strconv.FormatFloat(*v, 'f', -1, 64)
	return &formatted
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
