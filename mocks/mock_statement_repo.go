package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"finsight/internal/domain"
	"finsight/internal/port"
)

// MockStatementRepo is a mock implementation of port.StatementRepository.
type MockStatementRepo struct {
	mock.Mock
}

func (m *MockStatementRepo) CreateWithItems(ctx context.Context, stmt *domain.Statement, items []domain.LineItem) error {
	args := m.Called(ctx, stmt, items)
	return args.Error(0)
}

func (m *MockStatementRepo) GetByID(ctx context.Context, stmtID uuid.UUID) (*domain.Statement, error) {
	args := m.Called(ctx, stmtID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statement), args.Error(1)
}

func (m *MockStatementRepo) GetWithItems(ctx context.Context, stmtID uuid.UUID) (*domain.Statement, error) {
	args := m.Called(ctx, stmtID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statement), args.Error(1)
}

func (m *MockStatementRepo) ListByDocument(ctx context.Context, docID uuid.UUID, withItems bool) ([]domain.Statement, error) {
	args := m.Called(ctx, docID, withItems)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Statement), args.Error(1)
}

func (m *MockStatementRepo) ListByInvestment(ctx context.Context, investmentID uuid.UUID, statementType domain.StatementType, withItems bool) ([]domain.Statement, error) {
	args := m.Called(ctx, investmentID, statementType, withItems)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Statement), args.Error(1)
}

func (m *MockStatementRepo) DeleteUnlockedByDocument(ctx context.Context, docID uuid.UUID) ([]port.StatementKey, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.StatementKey), args.Error(1)
}

func (m *MockStatementRepo) AppendItems(ctx context.Context, stmtID uuid.UUID, items []domain.LineItem) error {
	args := m.Called(ctx, stmtID, items)
	return args.Error(0)
}

func (m *MockStatementRepo) SetReviewStatus(ctx context.Context, stmtID uuid.UUID, status domain.ReviewStatus) error {
	args := m.Called(ctx, stmtID, status)
	return args.Error(0)
}

func (m *MockStatementRepo) Lock(ctx context.Context, stmtID uuid.UUID) error {
	args := m.Called(ctx, stmtID)
	return args.Error(0)
}

func (m *MockStatementRepo) UpdateMapping(ctx context.Context, stmt *domain.Statement) error {
	args := m.Called(ctx, stmt)
	return args.Error(0)
}

func (m *MockStatementRepo) ClearMapping(ctx context.Context, stmtID uuid.UUID) error {
	args := m.Called(ctx, stmtID)
	return args.Error(0)
}
