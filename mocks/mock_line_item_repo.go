package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"finsight/internal/domain"
)

// MockLineItemRepo is a mock implementation of port.LineItemRepository.
type MockLineItemRepo struct {
	mock.Mock
}

func (m *MockLineItemRepo) GetByID(ctx context.Context, itemID uuid.UUID) (*domain.LineItem, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LineItem), args.Error(1)
}

func (m *MockLineItemRepo) UpdateWithHistory(ctx context.Context, item *domain.LineItem, records []domain.EditRecord) error {
	args := m.Called(ctx, item, records)
	return args.Error(0)
}

func (m *MockLineItemRepo) SetCanonicalFromNormalizer(ctx context.Context, itemID uuid.UUID, canonical string) (bool, error) {
	args := m.Called(ctx, itemID, canonical)
	return args.Bool(0), args.Error(1)
}

func (m *MockLineItemRepo) ListByInvestment(ctx context.Context, investmentID uuid.UUID, unlockedOnly bool) ([]domain.LineItem, error) {
	args := m.Called(ctx, investmentID, unlockedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

func (m *MockLineItemRepo) ListHistory(ctx context.Context, itemID uuid.UUID) ([]domain.EditRecord, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EditRecord), args.Error(1)
}
