package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"finsight/internal/domain"
	"finsight/internal/port"
)

// ComparisonRow is one canonical metric across an investment's periods.
type ComparisonRow struct {
	Metric string
	Values map[string]*float64
}

// Comparison is the period-by-metric grid for one statement type.
type Comparison struct {
	StatementType domain.StatementType
	Periods       []string
	Rows          []ComparisonRow
}

// TrendService aggregates canonical metrics across an investment's statements.
type TrendService interface {
	// Trends returns per-canonical-metric series over the investment's mapped
	// statements. Only items with a canonical label contribute; values are
	// effective (user edits win). Points sort by reporting date, falling back
	// to lexical period order.
	Trends(ctx context.Context, investmentID uuid.UUID) (map[string][]domain.TrendPoint, error)
	// Comparison builds the period-by-metric grid for one statement type,
	// rows in catalog sort order.
	Comparison(ctx context.Context, investmentID uuid.UUID, statementType domain.StatementType) (*Comparison, error)
}

type trendService struct {
	stmtRepo   port.StatementRepository
	metricRepo port.MetricRepository
}

// NewTrendService creates a new TrendService implementation.
func NewTrendService(stmtRepo port.StatementRepository, metricRepo port.MetricRepository) TrendService {
	return &trendService{
		stmtRepo:   stmtRepo,
		metricRepo: metricRepo,
	}
}

func (s *trendService) Trends(ctx context.Context, investmentID uuid.UUID) (map[string][]domain.TrendPoint, error) {
	statements, err := s.stmtRepo.ListByInvestment(ctx, investmentID, "", true)
	if err != nil {
		return nil, err
	}

	trends := make(map[string][]domain.TrendPoint)
	for _, stmt := range statements {
		for _, item := range stmt.LineItems {
			if item.CanonicalLabel == nil {
				continue
			}
			trends[*item.CanonicalLabel] = append(trends[*item.CanonicalLabel], domain.TrendPoint{
				Period:        stmt.PeriodLabel(),
				ReportingDate: stmt.ReportingDate,
				Value:         item.EffectiveValue(),
				StatementType: stmt.StatementType,
			})
		}
	}

	for _, points := range trends {
		sortTrendPoints(points)
	}
	return trends, nil
}

func (s *trendService) Comparison(ctx context.Context, investmentID uuid.UUID, statementType domain.StatementType) (*Comparison, error) {
	if !domain.ValidStatementTypes[statementType] {
		return nil, domain.ErrInvalidStatementType
	}

	catalog, err := s.metricRepo.ListByStatementType(ctx, statementType)
	if err != nil {
		return nil, err
	}
	statements, err := s.stmtRepo.ListByInvestment(ctx, investmentID, statementType, true)
	if err != nil {
		return nil, err
	}

	// ListByInvestment orders newest first; the grid reads oldest to newest.
	periods := make([]string, 0, len(statements))
	seen := make(map[string]bool)
	for i := len(statements) - 1; i >= 0; i-- {
		label := statements[i].PeriodLabel()
		if !seen[label] {
			seen[label] = true
			periods = append(periods, label)
		}
	}

	values := make(map[string]map[string]*float64)
	for _, stmt := range statements {
		period := stmt.PeriodLabel()
		for _, item := range stmt.LineItems {
			if item.CanonicalLabel == nil {
				continue
			}
			byPeriod, ok := values[*item.CanonicalLabel]
			if !ok {
				byPeriod = make(map[string]*float64)
				values[*item.CanonicalLabel] = byPeriod
			}
			if _, exists := byPeriod[period]; !exists {
				byPeriod[period] = item.EffectiveValue()
			}
		}
	}

	rows := make([]ComparisonRow, 0, len(catalog))
	for _, metric := range catalog {
		byPeriod, ok := values[metric.Name]
		if !ok {
			continue
		}
		rows = append(rows, ComparisonRow{Metric: metric.Name, Values: byPeriod})
	}

	return &Comparison{
		StatementType: statementType,
		Periods:       periods,
		Rows:          rows,
	}, nil
}

func sortTrendPoints(points []domain.TrendPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if a.ReportingDate != nil && b.ReportingDate != nil && !a.ReportingDate.Equal(*b.ReportingDate) {
			return a.ReportingDate.Before(*b.ReportingDate)
		}
		if a.ReportingDate != nil && b.ReportingDate == nil {
			return true
		}
		if a.ReportingDate == nil && b.ReportingDate != nil {
			return false
		}
		return a.Period < b.Period
	})
}
