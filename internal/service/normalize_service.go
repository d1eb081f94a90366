package service

import (
	"context"
	"log"

	"github.com/google/uuid"

	"finsight/internal/domain"
	"finsight/internal/match"
	"finsight/internal/port"
)

// NormalizeService assigns canonical metric labels to extracted line items.
type NormalizeService interface {
	// Normalize scans the unlocked statements mapped to an investment and
	// assigns canonical labels from the catalog. Returns the number of items
	// whose assignment changed; a rerun with no new items returns 0.
	Normalize(ctx context.Context, investmentID uuid.UUID) (int, error)
}

type normalizeService struct {
	lineItemRepo port.LineItemRepository
	metricRepo   port.MetricRepository
}

// NewNormalizeService creates a new NormalizeService implementation.
func NewNormalizeService(lineItemRepo port.LineItemRepository, metricRepo port.MetricRepository) NormalizeService {
	return &normalizeService{
		lineItemRepo: lineItemRepo,
		metricRepo:   metricRepo,
	}
}

func (s *normalizeService) Normalize(ctx context.Context, investmentID uuid.UUID) (int, error) {
	catalog, err := s.metricRepo.ListCatalog(ctx)
	if err != nil {
		return 0, err
	}

	items, err := s.lineItemRepo.ListByInvestment(ctx, investmentID, true)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range items {
		item := &items[i]
		if item.CanonicalSource == domain.CanonicalSourceUser {
			continue
		}

		result, ok := match.Best(item.EffectiveLabel(), catalog)
		if !ok {
			continue
		}
		if item.CanonicalLabel != nil && *item.CanonicalLabel == result.Name {
			continue
		}

		updated, err := s.lineItemRepo.SetCanonicalFromNormalizer(ctx, item.ID, result.Name)
		if err != nil {
			return count, err
		}
		if updated {
			count++
		}
	}

	log.Printf("normalizeService.Normalize: investment %s, %d assignments updated", investmentID, count)
	return count, nil
}
