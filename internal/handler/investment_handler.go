package handler

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"finsight/internal/csvexport"
	"finsight/internal/domain"
	"finsight/internal/service"
	"finsight/internal/xlsxexport"
)

// InvestmentHandler handles the investment-scoped read, normalize, and export endpoints.
type InvestmentHandler struct {
	statementService service.StatementService
	normalizeService service.NormalizeService
	trendService     service.TrendService
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(
	statementService service.StatementService,
	normalizeService service.NormalizeService,
	trendService service.TrendService,
) *InvestmentHandler {
	return &InvestmentHandler{
		statementService: statementService,
		normalizeService: normalizeService,
		trendService:     trendService,
	}
}

// Statements handles GET /api/v1/investments/:id/statements?statement_type=...
func (h *InvestmentHandler) Statements(c *gin.Context) {
	investmentID, ok := parseID(c)
	if !ok {
		return
	}

	statementType := domain.StatementType(c.Query("statement_type"))
	stmts, err := h.statementService.ListByInvestment(c.Request.Context(), investmentID, statementType)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, stmts)
}

// Normalize handles POST /api/v1/investments/:id/normalize
// Runs the canonical label matcher over the investment's unlocked statements.
func (h *InvestmentHandler) Normalize(c *gin.Context) {
	investmentID, ok := parseID(c)
	if !ok {
		return
	}

	count, err := h.normalizeService.Normalize(c.Request.Context(), investmentID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"normalized_count": count})
}

// Trends handles GET /api/v1/investments/:id/trends
func (h *InvestmentHandler) Trends(c *gin.Context) {
	investmentID, ok := parseID(c)
	if !ok {
		return
	}

	trends, err := h.trendService.Trends(c.Request.Context(), investmentID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, trends)
}

// TrendsExport handles GET /api/v1/investments/:id/trends/export
// Streams the trend series as CSV.
func (h *InvestmentHandler) TrendsExport(c *gin.Context) {
	investmentID, ok := parseID(c)
	if !ok {
		return
	}

	trends, err := h.trendService.Trends(c.Request.Context(), investmentID)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := csvexport.BuildFilename(fmt.Sprintf("trends_%s", investmentID))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	w := csvexport.NewWriter(c.Writer)
	if err := w.WriteHeader(); err == nil {
		err = w.WriteTrends(trends)
	}
	w.Flush()
	if err == nil {
		err = w.Error()
	}
	if err != nil {
		requestID, _ := c.Get("request_id")
		log.Printf("[%v] trends export write: %v", requestID, err)
	}
}

// ComparisonExport handles GET /api/v1/investments/:id/export/comparison?statement_type=...
// Streams the period-by-metric comparison grid as an XLSX workbook.
func (h *InvestmentHandler) ComparisonExport(c *gin.Context) {
	investmentID, ok := parseID(c)
	if !ok {
		return
	}

	statementType := domain.StatementType(c.Query("statement_type"))
	cmp, err := h.trendService.Comparison(c.Request.Context(), investmentID, statementType)
	if err != nil {
		HandleError(c, err)
		return
	}

	f, err := xlsxexport.WriteComparison(cmp)
	if err != nil {
		HandleError(c, err)
		return
	}
	defer f.Close()

	name := csvexport.SanitizeFilename(fmt.Sprintf("comparison_%s_%s", statementType, investmentID))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xlsx"))
	if err := f.Write(c.Writer); err != nil {
		requestID, _ := c.Get("request_id")
		log.Printf("[%v] comparison export write: %v", requestID, err)
	}
}
