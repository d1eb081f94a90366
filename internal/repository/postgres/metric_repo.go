package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"finsight/internal/domain"
	"finsight/internal/port"
)

type metricRepo struct {
	db *sqlx.DB
}

// NewMetricRepo creates a new PostgreSQL-backed MetricRepository.
func NewMetricRepo(db *sqlx.DB) port.MetricRepository {
	return &metricRepo{db: db}
}

func (r *metricRepo) ListCatalog(ctx context.Context) ([]domain.CanonicalMetric, error) {
	return r.list(ctx, "")
}

func (r *metricRepo) ListByStatementType(ctx context.Context, statementType domain.StatementType) ([]domain.CanonicalMetric, error) {
	return r.list(ctx, statementType)
}

func (r *metricRepo) list(ctx context.Context, statementType domain.StatementType) ([]domain.CanonicalMetric, error) {
	query := `SELECT * FROM canonical_metrics`
	args := []any{}
	if statementType != "" {
		query += ` WHERE statement_type = $1`
		args = append(args, statementType)
	}
	query += ` ORDER BY sort_order, name`

	var metrics []domain.CanonicalMetric
	err := r.db.SelectContext(ctx, &metrics, query, args...)
	if err != nil {
		return nil, fmt.Errorf("metricRepo.list: %w", err)
	}
	if len(metrics) == 0 {
		return metrics, nil
	}

	ids := make([]uuid.UUID, len(metrics))
	byID := make(map[uuid.UUID]*domain.CanonicalMetric, len(metrics))
	for i := range metrics {
		ids[i] = metrics[i].ID
		byID[metrics[i].ID] = &metrics[i]
	}

	query, inArgs, err := sqlx.In(
		`SELECT metric_id, variant FROM canonical_metric_variants
		 WHERE metric_id IN (?) ORDER BY variant`, ids)
	if err != nil {
		return nil, fmt.Errorf("metricRepo.list variants in: %w", err)
	}

	var rows []struct {
		MetricID uuid.UUID `db:"metric_id"`
		Variant  string    `db:"variant"`
	}
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(query), inArgs...)
	if err != nil {
		return nil, fmt.Errorf("metricRepo.list variants: %w", err)
	}
	for _, row := range rows {
		if m, ok := byID[row.MetricID]; ok {
			m.Variants = append(m.Variants, row.Variant)
		}
	}
	return metrics, nil
}
