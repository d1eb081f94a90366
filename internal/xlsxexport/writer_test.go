package xlsxexport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/domain"
	"finsight/internal/service"
)

func fp(v float64) *float64 { return &v }
func sp(s string) *string   { return &s }

func TestWriteStatementLayout(t *testing.T) {
	stmt := &domain.Statement{
		StatementType: domain.StatementTypeIncome,
		Period:        "Q1 2024",
		Currency:      "USD",
		Unit:          "thousands",
		LineItems: []domain.LineItem{
			{Label: "Revenue", Value: fp(1000), IndentLevel: 0},
			{Label: "Product Revenue", Value: fp(800), IndentLevel: 1},
			{Label: "Total Revenue", Value: fp(1000), IsTotal: true},
			{Label: "Note", Value: nil},
		},
	}
	// An edited label shows through in the export.
	stmt.LineItems[0].EditedLabel = sp("Net Revenue")

	f, err := WriteStatement(stmt)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	sheet := "Income Statement"
	require.Contains(t, f.GetSheetList(), sheet)

	title, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Q1 2024", title)

	label, err := f.GetCellValue(sheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Net Revenue", label)

	indented, err := f.GetCellValue(sheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "  Product Revenue", indented)

	total, err := f.GetCellValue(sheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "1,000.00", total)

	empty, err := f.GetCellValue(sheet, "B5")
	require.NoError(t, err)
	assert.Equal(t, "", empty)

	footnote, err := f.GetCellValue(sheet, "A7")
	require.NoError(t, err)
	assert.Equal(t, "Currency: USD. Values in thousands.", footnote)
}

func TestWriteComparisonGrid(t *testing.T) {
	cmp := &service.Comparison{
		StatementType: domain.StatementTypeIncome,
		Periods:       []string{"Q1 2024", "Q2 2024"},
		Rows: []service.ComparisonRow{
			{Metric: "Total Revenue", Values: map[string]*float64{"Q1 2024": fp(1000), "Q2 2024": fp(1200)}},
			{Metric: "Net Income", Values: map[string]*float64{"Q1 2024": fp(50)}},
		},
	}

	f, err := WriteComparison(cmp)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	sheet := "Income Statement"

	header, err := f.GetCellValue(sheet, "C1")
	require.NoError(t, err)
	assert.Equal(t, "Q2 2024", header)

	revenue, err := f.GetCellValue(sheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "1,200.00", revenue)

	missing, err := f.GetCellValue(sheet, "C3")
	require.NoError(t, err)
	assert.Equal(t, "", missing)

	metric, err := f.GetCellValue(sheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Net Income", metric)
}

func TestSheetNameFallback(t *testing.T) {
	assert.Equal(t, "Cash Flow", SheetName(domain.StatementTypeCashFlow))
	assert.Equal(t, "Statement", SheetName(domain.StatementType("other")))
}
