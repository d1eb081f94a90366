// Command seedmetrics converts the canonical metric catalog Excel file into a
// SQL seed file.
// Columns: A=metric name, B=statement type, C=variants (semicolon separated).
// Usage: go run ./cmd/seedmetrics [workbook.xlsx]
// Output: db/seeds/canonical_metrics.sql
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"finsight/internal/domain"
)

const batchSize = 200

type metricEntry struct {
	id            uuid.UUID
	name          string
	statementType string
	sortOrder     int
	variants      []string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	xlsxPath := "canonical_metrics.xlsx"
	if len(os.Args) > 1 {
		xlsxPath = os.Args[1]
	}
	outPath := "db/seeds/canonical_metrics.sql"

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		return fmt.Errorf("open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := parseCatalogSheet(f)
	if err != nil {
		return fmt.Errorf("parse catalog sheet: %w", err)
	}
	log.Printf("catalog sheet: %d metrics", len(entries))

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	w := func(s string) error { _, werr := fmt.Fprintln(out, s); return werr }

	for _, line := range []string{
		"-- Canonical metric seed data generated from Excel.",
		fmt.Sprintf("-- %d metrics in batches of %d.", len(entries), batchSize),
		"-- Run: make seed-metrics",
		"BEGIN;",
		"",
	} {
		if werr := w(line); werr != nil {
			return fmt.Errorf("write header: %w", werr)
		}
	}

	for i := 0; i < len(entries); i += batchSize {
		end := i + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := writeBatch(out, entries[i:end]); err != nil {
			return fmt.Errorf("write batch at offset %d: %w", i, err)
		}
	}

	for _, line := range []string{"", "COMMIT;"} {
		if werr := w(line); werr != nil {
			return fmt.Errorf("write footer: %w", werr)
		}
	}

	variantCount := 0
	for _, e := range entries {
		variantCount += len(e.variants)
	}
	log.Printf("Generated %d metrics with %d variants in %s", len(entries), variantCount, outPath)
	return nil
}

// parseCatalogSheet reads the first sheet. Row 0 is the header; sort order
// follows row order within each statement type.
func parseCatalogSheet(f *excelize.File) ([]metricEntry, error) {
	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	orderByType := make(map[string]int)
	var entries []metricEntry
	for i := 1; i < len(rows); i++ {
		row := rows[i]

		name := strings.TrimSpace(cellVal(row, 0))
		statementType := strings.TrimSpace(cellVal(row, 1))
		if name == "" || statementType == "" {
			continue
		}
		if !domain.ValidStatementTypes[domain.StatementType(statementType)] {
			log.Printf("row %d: skipping unknown statement type %q", i+1, statementType)
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		var variants []string
		variantSeen := make(map[string]bool)
		for _, v := range strings.Split(cellVal(row, 2), ";") {
			v = strings.TrimSpace(v)
			if v == "" || strings.EqualFold(v, name) || variantSeen[strings.ToLower(v)] {
				continue
			}
			variantSeen[strings.ToLower(v)] = true
			variants = append(variants, v)
		}

		entries = append(entries, metricEntry{
			id:            uuid.New(),
			name:          name,
			statementType: statementType,
			sortOrder:     orderByType[statementType],
			variants:      variants,
		})
		orderByType[statementType]++
	}
	return entries, nil
}

func writeBatch(out *os.File, batch []metricEntry) error {
	if len(batch) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO canonical_metrics (id, name, statement_type, sort_order) VALUES\n")
	for i := range batch {
		e := &batch[i]
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "  ('%s', '%s', '%s', %d)",
			e.id, escapeSQL(e.name), escapeSQL(e.statementType), e.sortOrder)
	}
	b.WriteString("\nON CONFLICT (name) DO NOTHING;\n")

	// Variants resolve the metric by name so reruns against an existing
	// catalog keep their foreign keys intact.
	for i := range batch {
		e := &batch[i]
		for _, v := range e.variants {
			fmt.Fprintf(&b,
				"INSERT INTO canonical_metric_variants (metric_id, variant)\n  SELECT id, '%s' FROM canonical_metrics WHERE name = '%s'\n  ON CONFLICT (metric_id, variant) DO NOTHING;\n",
				escapeSQL(v), escapeSQL(e.name))
		}
	}

	_, err := out.WriteString(b.String())
	return err
}

func cellVal(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
