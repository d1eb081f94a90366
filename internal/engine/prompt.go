package engine

import "fmt"

// BuildStatementPrompt returns the extraction prompt for one page window of a
// financial document. Pages are 1-based and inclusive.
func BuildStatementPrompt(startPage, endPage int) string {
	pageScope := "the entire document"
	if startPage > 0 {
		pageScope = fmt.Sprintf("ONLY pages %d through %d (inclusive)", startPage, endPage)
	}
	return `You are a financial document extraction assistant. Analyze ` + pageScope + ` of the provided document and extract every financial statement you find.

IMPORTANT INSTRUCTIONS:
- Recognize three statement types: "income_statement", "balance_sheet", "cash_flow".
- A statement is identified by its type and its reporting period. If the same table shows several period columns, emit one statement per period.
- Extract EVERY line item in presentation order. Do not skip, summarize, or net items together.
- Keep labels exactly as printed. Do not translate or rename them.
- Values are plain numbers in the document's stated unit. Parenthesized values are negative. Use null when a cell is blank or illegible.
- "indent_level" reflects visual nesting (0 for top-level rows). "is_total" marks subtotal and total rows.
- "category" groups rows by section heading (for example "revenue", "expenses", "assets", "liabilities", "equity", "operating", "investing", "financing"); use "other" when unclear.
- "period" is the column heading as printed (for example "Q1 2024" or "FY2023"). "period_end_date" is the period's closing date in YYYY-MM-DD when determinable, else null.
- "source_pages" lists the page numbers the statement appears on, comma separated.

Return ONLY valid JSON with no markdown formatting, no code fences, and no explanation: just a raw JSON array.

Each element of the array must follow this schema:
{
  "statement_type": "income_statement",
  "period": "",
  "period_end_date": null,
  "currency": "",
  "unit": "",
  "source_pages": "",
  "line_items": [
    {
      "category": "",
      "label": "",
      "value": 0,
      "is_total": false,
      "indent_level": 0
    }
  ]
}

Return an empty array [] if the pages contain no financial statements.`
}
