package port

import (
	"context"

	"github.com/google/uuid"

	"finsight/internal/domain"
)

// DocumentRepository defines the contract for document persistence. Rows are
// written by the external upload service; this core mostly reads them.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error)
}
