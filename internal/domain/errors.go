package domain

import "errors"

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrJobNotFound       = errors.New("extraction job not found")
	ErrStatementNotFound = errors.New("statement not found")
	ErrLineItemNotFound  = errors.New("line item not found")
	ErrMetricNotFound    = errors.New("canonical metric not found")

	ErrJobConflict             = errors.New("an extraction job is already in progress for this document")
	ErrStatementLocked         = errors.New("statement is locked")
	ErrInvalidReviewTransition = errors.New("review status cannot move backward")
	ErrAlreadyMapped           = errors.New("statement is already mapped to a different investment")
	ErrInvalidStatementType    = errors.New("invalid statement type")
)
