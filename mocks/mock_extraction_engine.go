package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finsight/internal/port"
)

// MockExtractionEngine is a mock implementation of port.ExtractionEngine.
type MockExtractionEngine struct {
	mock.Mock
}

func (m *MockExtractionEngine) PlanChunks(ctx context.Context, fileBytes []byte, contentType string) ([]port.Chunk, error) {
	args := m.Called(ctx, fileBytes, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.Chunk), args.Error(1)
}

func (m *MockExtractionEngine) ExtractChunk(ctx context.Context, fileBytes []byte, contentType string, chunk port.Chunk) ([]port.ChunkStatement, error) {
	args := m.Called(ctx, fileBytes, contentType, chunk)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.ChunkStatement), args.Error(1)
}
