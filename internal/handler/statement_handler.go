package handler

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"finsight/internal/csvexport"
	"finsight/internal/domain"
	"finsight/internal/service"
	"finsight/internal/xlsxexport"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StatementHandler handles statement read, review, mapping, and export endpoints.
type StatementHandler struct {
	statementService service.StatementService
	reviewService    service.ReviewService
	mappingService   service.MappingService
}

// NewStatementHandler creates a new StatementHandler.
func NewStatementHandler(
	statementService service.StatementService,
	reviewService service.ReviewService,
	mappingService service.MappingService,
) *StatementHandler {
	return &StatementHandler{
		statementService: statementService,
		reviewService:    reviewService,
		mappingService:   mappingService,
	}
}

// GetByID handles GET /api/v1/statements/:id
func (h *StatementHandler) GetByID(c *gin.Context) {
	stmtID, ok := parseID(c)
	if !ok {
		return
	}

	stmt, err := h.statementService.GetWithItems(c.Request.Context(), stmtID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, stmt)
}

// ListByDocument handles GET /api/v1/documents/:id/statements
func (h *StatementHandler) ListByDocument(c *gin.Context) {
	docID, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.statementService.ListByDocument(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"statements": result.Statements,
		"latest_job": result.LatestJob,
	})
}

// Review handles POST /api/v1/statements/:id/review
func (h *StatementHandler) Review(c *gin.Context) {
	stmtID, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		Status domain.ReviewStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "status is required")
		return
	}

	if err := h.reviewService.SetReviewStatus(c.Request.Context(), stmtID, req.Status); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"status": req.Status})
}

// Lock handles POST /api/v1/statements/:id/lock
func (h *StatementHandler) Lock(c *gin.Context) {
	stmtID, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.reviewService.Lock(c.Request.Context(), stmtID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"locked": true})
}

// SuggestMapping handles GET /api/v1/statements/:id/suggest-mapping
func (h *StatementHandler) SuggestMapping(c *gin.Context) {
	stmtID, ok := parseID(c)
	if !ok {
		return
	}

	suggestion, err := h.mappingService.SuggestMapping(c.Request.Context(), stmtID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, suggestion)
}

// Map handles POST /api/v1/statements/:id/map
func (h *StatementHandler) Map(c *gin.Context) {
	stmtID, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		InvestmentID      uuid.UUID `json:"investment_id" binding:"required"`
		ReportingDate     string    `json:"reporting_date"`
		FiscalPeriodLabel string    `json:"fiscal_period_label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "investment_id is required")
		return
	}

	input := &service.MapInput{
		InvestmentID:      req.InvestmentID,
		FiscalPeriodLabel: req.FiscalPeriodLabel,
	}
	if req.ReportingDate != "" {
		t, err := time.Parse("2006-01-02", req.ReportingDate)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "reporting_date must be YYYY-MM-DD")
			return
		}
		input.ReportingDate = &t
	}

	stmt, err := h.mappingService.Map(c.Request.Context(), stmtID, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, stmt)
}

// Unmap handles DELETE /api/v1/statements/:id/map
func (h *StatementHandler) Unmap(c *gin.Context) {
	stmtID, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.mappingService.Unmap(c.Request.Context(), stmtID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"mapped": false})
}

// Export handles GET /api/v1/statements/:id/export
// Streams the statement as an XLSX workbook.
func (h *StatementHandler) Export(c *gin.Context) {
	stmtID, ok := parseID(c)
	if !ok {
		return
	}

	stmt, err := h.statementService.GetWithItems(c.Request.Context(), stmtID)
	if err != nil {
		HandleError(c, err)
		return
	}

	f, err := xlsxexport.WriteStatement(stmt)
	if err != nil {
		HandleError(c, err)
		return
	}
	defer f.Close()

	name := csvexport.SanitizeFilename(fmt.Sprintf("%s_%s", stmt.StatementType, stmt.PeriodLabel()))
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xlsx"))
	if err := f.Write(c.Writer); err != nil {
		requestID, _ := c.Get("request_id")
		log.Printf("[%v] statement export write: %v", requestID, err)
	}
}

// parseID parses the :id path parameter. Writes the error response itself
// when the value is not a UUID.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid ID")
		return uuid.Nil, false
	}
	return id, true
}
