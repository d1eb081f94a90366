package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finsight/internal/service"
)

// LineItemHandler handles line item edit, canonical override, and history endpoints.
type LineItemHandler struct {
	reviewService service.ReviewService
}

// NewLineItemHandler creates a new LineItemHandler.
func NewLineItemHandler(reviewService service.ReviewService) *LineItemHandler {
	return &LineItemHandler{reviewService: reviewService}
}

// Edit handles PATCH /api/v1/line-items/:id
// Setting a field overrides the extracted value; clearing restores it.
// Every change is appended to the item's edit history.
func (h *LineItemHandler) Edit(c *gin.Context) {
	itemID, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		EditedLabel *string  `json:"edited_label"`
		EditedValue *float64 `json:"edited_value"`
		ClearLabel  bool     `json:"clear_label"`
		ClearValue  bool     `json:"clear_value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed edit request")
		return
	}
	if req.EditedLabel == nil && req.EditedValue == nil && !req.ClearLabel && !req.ClearValue {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "at least one of edited_label, edited_value, clear_label, clear_value is required")
		return
	}

	item, err := h.reviewService.EditLineItem(c.Request.Context(), itemID, &service.EditLineItemInput{
		EditedLabel: req.EditedLabel,
		EditedValue: req.EditedValue,
		ClearLabel:  req.ClearLabel,
		ClearValue:  req.ClearValue,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, item)
}

// OverrideCanonical handles POST /api/v1/line-items/:id/canonical
func (h *LineItemHandler) OverrideCanonical(c *gin.Context) {
	itemID, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		CanonicalLabel string `json:"canonical_label" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "canonical_label is required")
		return
	}

	item, err := h.reviewService.OverrideCanonical(c.Request.Context(), itemID, req.CanonicalLabel)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, item)
}

// History handles GET /api/v1/line-items/:id/history
func (h *LineItemHandler) History(c *gin.Context) {
	itemID, ok := parseID(c)
	if !ok {
		return
	}

	records, err := h.reviewService.GetHistory(c.Request.Context(), itemID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, records)
}
