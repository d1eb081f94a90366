package csvexport

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain"
)

func fp(v float64) *float64 { return &v }

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Equal(t, []string{"Metric", "Statement Type", "Period", "Reporting Date", "Value"}, row)
}

func TestWriteTrendsRowsAreDeterministic(t *testing.T) {
	reportingDate := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	trends := map[string][]domain.TrendPoint{
		"Total Revenue": {
			{Period: "Q1 2024", ReportingDate: &reportingDate, Value: fp(1000), StatementType: domain.StatementTypeIncome},
			{Period: "Q2 2024", Value: fp(1200.5), StatementType: domain.StatementTypeIncome},
		},
		"Net Income": {
			{Period: "Q1 2024", Value: nil, StatementType: domain.StatementTypeIncome},
		},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteTrends(trends))
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// Metrics alphabetical, points in series order.
	assert.Equal(t, []string{"Net Income", "income_statement", "Q1 2024", "", ""}, rows[1])
	assert.Equal(t, []string{"Total Revenue", "income_statement", "Q1 2024", "2024-03-31", "1000.00"}, rows[2])
	assert.Equal(t, []string{"Total Revenue", "income_statement", "Q2 2024", "", "1200.50"}, rows[3])
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "Acme_Holdings_Q1", SanitizeFilename("Acme Holdings / Q1!"))
	assert.Equal(t, "trends", SanitizeFilename("__trends__"))
}

func TestBuildFilename(t *testing.T) {
	name := BuildFilename("Acme Holdings")
	assert.Contains(t, name, "Acme_Holdings_")
	assert.Contains(t, name, ".csv")
}
