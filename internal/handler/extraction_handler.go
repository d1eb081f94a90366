package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"finsight/internal/service"
)

// ExtractionHandler handles extraction job endpoints.
type ExtractionHandler struct {
	extractionService service.ExtractionService
}

// NewExtractionHandler creates a new ExtractionHandler.
func NewExtractionHandler(extractionService service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{extractionService: extractionService}
}

// Trigger handles POST /api/v1/documents/:id/extraction
// Creates a pending extraction job for the document. The job is picked up
// asynchronously by the worker; poll Status for progress.
func (h *ExtractionHandler) Trigger(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID")
		return
	}

	job, err := h.extractionService.Trigger(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, job)
}

// Status handles GET /api/v1/documents/:id/extraction
func (h *ExtractionHandler) Status(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID")
		return
	}

	job, err := h.extractionService.GetStatus(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, job)
}
