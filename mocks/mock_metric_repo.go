package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finsight/internal/domain"
)

// MockMetricRepo is a mock implementation of port.MetricRepository.
type MockMetricRepo struct {
	mock.Mock
}

func (m *MockMetricRepo) ListCatalog(ctx context.Context) ([]domain.CanonicalMetric, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CanonicalMetric), args.Error(1)
}

func (m *MockMetricRepo) ListByStatementType(ctx context.Context, statementType domain.StatementType) ([]domain.CanonicalMetric, error) {
	args := m.Called(ctx, statementType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CanonicalMetric), args.Error(1)
}
