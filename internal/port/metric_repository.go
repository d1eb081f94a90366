package port

import (
	"context"

	"finsight/internal/domain"
)

// MetricRepository defines read access to the canonical metric catalog.
// The catalog is reference data seeded out of band (cmd/seedmetrics).
type MetricRepository interface {
	// ListCatalog returns all metrics with variants, in catalog sort order.
	ListCatalog(ctx context.Context) ([]domain.CanonicalMetric, error)
	// ListByStatementType returns the catalog filtered to one statement type.
	ListByStatementType(ctx context.Context, statementType domain.StatementType) ([]domain.CanonicalMetric, error)
}
