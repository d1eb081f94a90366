// Package xlsxexport renders statements and comparison grids as Excel
// workbooks. Exports read stored state and never mutate it.
package xlsxexport

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"finsight/internal/domain"
	"finsight/internal/service"
)

const numberFormat = "#,##0.00"

var sheetNames = map[domain.StatementType]string{
	domain.StatementTypeIncome:   "Income Statement",
	domain.StatementTypeBalance:  "Balance Sheet",
	domain.StatementTypeCashFlow: "Cash Flow",
}

// SheetName returns the workbook sheet title for a statement type.
func SheetName(statementType domain.StatementType) string {
	if name, ok := sheetNames[statementType]; ok {
		return name
	}
	return "Statement"
}

// WriteStatement renders one statement as a workbook: a header row, one row
// per line item with two-space indentation per level and bold totals, then a
// currency/unit footnote. The caller owns closing the file.
func WriteStatement(stmt *domain.Statement) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := SheetName(stmt.StatementType)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("xlsxexport.WriteStatement: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsxexport.WriteStatement: %w", err)
	}
	numFmt := numberFormat
	number, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, fmt.Errorf("xlsxexport.WriteStatement: %w", err)
	}
	boldNumber, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &numFmt})
	if err != nil {
		return nil, fmt.Errorf("xlsxexport.WriteStatement: %w", err)
	}

	if err := setRow(f, sheet, 1, stmt.PeriodLabel(), nil, bold, bold); err != nil {
		return nil, err
	}

	row := 2
	for i := range stmt.LineItems {
		item := &stmt.LineItems[i]
		label := strings.Repeat("  ", item.IndentLevel) + item.EffectiveLabel()

		labelStyle := 0
		valueStyle := number
		if item.IsTotal {
			labelStyle = bold
			valueStyle = boldNumber
		}
		if err := setRow(f, sheet, row, label, item.EffectiveValue(), labelStyle, valueStyle); err != nil {
			return nil, err
		}
		row++
	}

	footnote := buildFootnote(stmt.Currency, stmt.Unit)
	if footnote != "" {
		row++
		if err := f.SetCellValue(sheet, cell(1, row), footnote); err != nil {
			return nil, fmt.Errorf("xlsxexport.WriteStatement: %w", err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 44); err != nil {
		return nil, fmt.Errorf("xlsxexport.WriteStatement: %w", err)
	}
	return f, nil
}

// WriteComparison renders the period-by-metric grid: period columns across
// the top, canonical metrics down the side in catalog order.
func WriteComparison(cmp *service.Comparison) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := SheetName(cmp.StatementType)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("xlsxexport.WriteComparison: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsxexport.WriteComparison: %w", err)
	}
	numFmt := numberFormat
	number, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return nil, fmt.Errorf("xlsxexport.WriteComparison: %w", err)
	}

	if err := f.SetCellValue(sheet, cell(1, 1), "Metric"); err != nil {
		return nil, fmt.Errorf("xlsxexport.WriteComparison: %w", err)
	}
	for i, period := range cmp.Periods {
		if err := f.SetCellValue(sheet, cell(i+2, 1), period); err != nil {
			return nil, fmt.Errorf("xlsxexport.WriteComparison: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, cell(1, 1), cell(len(cmp.Periods)+1, 1), bold); err != nil {
		return nil, fmt.Errorf("xlsxexport.WriteComparison: %w", err)
	}

	for r, compRow := range cmp.Rows {
		rowNum := r + 2
		if err := f.SetCellValue(sheet, cell(1, rowNum), compRow.Metric); err != nil {
			return nil, fmt.Errorf("xlsxexport.WriteComparison: %w", err)
		}
		for c, period := range cmp.Periods {
			v, ok := compRow.Values[period]
			if !ok || v == nil {
				continue
			}
			ref := cell(c+2, rowNum)
			if err := f.SetCellValue(sheet, ref, *v); err != nil {
				return nil, fmt.Errorf("xlsxexport.WriteComparison: %w", err)
			}
			if err := f.SetCellStyle(sheet, ref, ref, number); err != nil {
				return nil, fmt.Errorf("xlsxexport.WriteComparison: %w", err)
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 36); err != nil {
		return nil, fmt.Errorf("xlsxexport.WriteComparison: %w", err)
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, label string, value *float64, labelStyle, valueStyle int) error {
	labelRef := cell(1, row)
	if err := f.SetCellValue(sheet, labelRef, label); err != nil {
		return fmt.Errorf("xlsxexport.setRow: %w", err)
	}
	if labelStyle != 0 {
		if err := f.SetCellStyle(sheet, labelRef, labelRef, labelStyle); err != nil {
			return fmt.Errorf("xlsxexport.setRow: %w", err)
		}
	}
	if value == nil {
		return nil
	}
	valueRef := cell(2, row)
	if err := f.SetCellValue(sheet, valueRef, *value); err != nil {
		return fmt.Errorf("xlsxexport.setRow: %w", err)
	}
	if err := f.SetCellStyle(sheet, valueRef, valueRef, valueStyle); err != nil {
		return fmt.Errorf("xlsxexport.setRow: %w", err)
	}
	return nil
}

func buildFootnote(currency, unit string) string {
	switch {
	case currency != "" && unit != "":
		return fmt.Sprintf("Currency: %s. Values in %s.", currency, unit)
	case currency != "":
		return "Currency: " + currency
	case unit != "":
		return "Values in " + unit
	}
	return ""
}

func cell(col, row int) string {
	ref, _ := excelize.CoordinatesToCellName(col, row)
	return ref
}
