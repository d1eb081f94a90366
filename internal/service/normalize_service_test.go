package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain"
	"finsight/mocks"
)

func strPtr(s string) *string { return &s }

func normalizeCatalog() []domain.CanonicalMetric {
	return []domain.CanonicalMetric{
		{ID: uuid.New(), Name: "Total Revenue", StatementType: domain.StatementTypeIncome,
			Variants: []string{"Revenue", "Net Revenue"}},
		{ID: uuid.New(), Name: "Net Income", StatementType: domain.StatementTypeIncome,
			Variants: []string{"Net Profit"}},
	}
}

func TestNormalizeAssignsCanonicalLabels(t *testing.T) {
	lineItemRepo := &mocks.MockLineItemRepo{}
	metricRepo := &mocks.MockMetricRepo{}
	svc := NewNormalizeService(lineItemRepo, metricRepo)

	investmentID := uuid.New()
	matched := domain.LineItem{ID: uuid.New(), Label: "Net Revenue"}
	unmatched := domain.LineItem{ID: uuid.New(), Label: "Goodwill Impairment"}

	metricRepo.On("ListCatalog", mock.Anything).Return(normalizeCatalog(), nil)
	lineItemRepo.On("ListByInvestment", mock.Anything, investmentID, true).
		Return([]domain.LineItem{matched, unmatched}, nil)
	lineItemRepo.On("SetCanonicalFromNormalizer", mock.Anything, matched.ID, "Total Revenue").
		Return(true, nil).Once()

	count, err := svc.Normalize(context.Background(), investmentID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	lineItemRepo.AssertNotCalled(t, "SetCanonicalFromNormalizer", mock.Anything, unmatched.ID, mock.Anything)
}

func TestNormalizeSecondRunIsZero(t *testing.T) {
	lineItemRepo := &mocks.MockLineItemRepo{}
	metricRepo := &mocks.MockMetricRepo{}
	svc := NewNormalizeService(lineItemRepo, metricRepo)

	investmentID := uuid.New()
	already := domain.LineItem{
		ID: uuid.New(), Label: "Net Revenue",
		CanonicalLabel:  strPtr("Total Revenue"),
		CanonicalSource: domain.CanonicalSourceNormalizer,
	}

	metricRepo.On("ListCatalog", mock.Anything).Return(normalizeCatalog(), nil)
	lineItemRepo.On("ListByInvestment", mock.Anything, investmentID, true).
		Return([]domain.LineItem{already}, nil)

	count, err := svc.Normalize(context.Background(), investmentID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	lineItemRepo.AssertNotCalled(t, "SetCanonicalFromNormalizer", mock.Anything, mock.Anything, mock.Anything)
}

func TestNormalizeSkipsUserAssignments(t *testing.T) {
	lineItemRepo := &mocks.MockLineItemRepo{}
	metricRepo := &mocks.MockMetricRepo{}
	svc := NewNormalizeService(lineItemRepo, metricRepo)

	investmentID := uuid.New()
	userSet := domain.LineItem{
		ID: uuid.New(), Label: "Revenue",
		CanonicalLabel:  strPtr("Net Income"),
		CanonicalSource: domain.CanonicalSourceUser,
	}

	metricRepo.On("ListCatalog", mock.Anything).Return(normalizeCatalog(), nil)
	lineItemRepo.On("ListByInvestment", mock.Anything, investmentID, true).
		Return([]domain.LineItem{userSet}, nil)

	count, err := svc.Normalize(context.Background(), investmentID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	lineItemRepo.AssertNotCalled(t, "SetCanonicalFromNormalizer", mock.Anything, mock.Anything, mock.Anything)
}

func TestNormalizeUsesEffectiveLabel(t *testing.T) {
	lineItemRepo := &mocks.MockLineItemRepo{}
	metricRepo := &mocks.MockMetricRepo{}
	svc := NewNormalizeService(lineItemRepo, metricRepo)

	investmentID := uuid.New()
	edited := domain.LineItem{
		ID: uuid.New(), Label: "Rvnue (misread)",
		EditedLabel: strPtr("Net Revenue"),
	}

	metricRepo.On("ListCatalog", mock.Anything).Return(normalizeCatalog(), nil)
	lineItemRepo.On("ListByInvestment", mock.Anything, investmentID, true).
		Return([]domain.LineItem{edited}, nil)
	lineItemRepo.On("SetCanonicalFromNormalizer", mock.Anything, edited.ID, "Total Revenue").
		Return(true, nil).Once()

	count, err := svc.Normalize(context.Background(), investmentID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
