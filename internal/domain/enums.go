package domain

// DocumentType represents the file format of a stored document.
type DocumentType string

const (
	DocumentTypePDF  DocumentType = "pdf"
	DocumentTypeDOC  DocumentType = "doc"
	DocumentTypeXLSX DocumentType = "xlsx"
)

// JobStatus represents the lifecycle of an extraction job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the job status is final.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// StatementType identifies which financial statement a record holds.
type StatementType string

const (
	StatementTypeIncome   StatementType = "income_statement"
	StatementTypeBalance  StatementType = "balance_sheet"
	StatementTypeCashFlow StatementType = "cash_flow"
)

// ValidStatementTypes maps recognized statement types for request validation.
var ValidStatementTypes = map[StatementType]bool{
	StatementTypeIncome:   true,
	StatementTypeBalance:  true,
	StatementTypeCashFlow: true,
}

// ReviewStatus represents the review workflow state of a statement.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusReviewed ReviewStatus = "reviewed"
	ReviewStatusApproved ReviewStatus = "approved"
)

// reviewRank orders review statuses so transitions can only move forward.
var reviewRank = map[ReviewStatus]int{
	ReviewStatusPending:  0,
	ReviewStatusReviewed: 1,
	ReviewStatusApproved: 2,
}

// ReviewRank returns the forward-transition rank of a review status,
// or -1 for an unknown status.
func ReviewRank(s ReviewStatus) int {
	if r, ok := reviewRank[s]; ok {
		return r
	}
	return -1
}

// CanonicalSource records who assigned a line item's canonical label.
type CanonicalSource string

const (
	CanonicalSourceNone       CanonicalSource = ""
	CanonicalSourceNormalizer CanonicalSource = "normalizer"
	CanonicalSourceUser       CanonicalSource = "user"
)

// EditField identifies which line item field an edit record covers.
type EditField string

const (
	EditFieldLabel     EditField = "label"
	EditFieldValue     EditField = "value"
	EditFieldCanonical EditField = "canonical_label"
)
