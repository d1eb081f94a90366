package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"finsight/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondAccepted sends a 202 success response.
func RespondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound, "DOCUMENT_NOT_FOUND", "document not found"
	case errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound, "JOB_NOT_FOUND", "extraction job not found"
	case errors.Is(err, domain.ErrStatementNotFound):
		return http.StatusNotFound, "STATEMENT_NOT_FOUND", "statement not found"
	case errors.Is(err, domain.ErrLineItemNotFound):
		return http.StatusNotFound, "LINE_ITEM_NOT_FOUND", "line item not found"
	case errors.Is(err, domain.ErrMetricNotFound):
		return http.StatusNotFound, "METRIC_NOT_FOUND", "canonical metric not found"
	case errors.Is(err, domain.ErrJobConflict):
		return http.StatusConflict, "JOB_CONFLICT", "an extraction job is already active for this document"
	case errors.Is(err, domain.ErrStatementLocked):
		return http.StatusConflict, "STATEMENT_LOCKED", "statement is locked and cannot be modified"
	case errors.Is(err, domain.ErrInvalidReviewTransition):
		return http.StatusBadRequest, "INVALID_REVIEW_TRANSITION", "review status can only move forward"
	case errors.Is(err, domain.ErrAlreadyMapped):
		return http.StatusConflict, "ALREADY_MAPPED", "statement is already mapped to a different investment"
	case errors.Is(err, domain.ErrInvalidStatementType):
		return http.StatusBadRequest, "INVALID_STATEMENT_TYPE", "statement type must be one of: income_statement, balance_sheet, cash_flow"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
