package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is an immutable reference to an uploaded file. Upload handling is
// external; this service only reads the row. InvestmentID is the upload-time
// scoping and is a distinct relation from Statement.InvestmentID.
type Document struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	InvestmentID  *uuid.UUID   `db:"investment_id" json:"investment_id"`
	DocumentType  DocumentType `db:"document_type" json:"document_type"`
	OriginalName  string       `db:"original_name" json:"original_name"`
	StorageBucket string       `db:"storage_bucket" json:"storage_bucket"`
	StorageKey    string       `db:"storage_key" json:"storage_key"`
	ContentType   string       `db:"content_type" json:"content_type"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// ExtractionJob tracks one chunked extraction run for a document.
// CompletedChunks counts successfully folded chunks and never exceeds
// TotalChunks. LockedPreserved reports how many locked statements a re-run
// left untouched.
type ExtractionJob struct {
	ID              uuid.UUID `db:"id" json:"id"`
	DocumentID      uuid.UUID `db:"document_id" json:"document_id"`
	Status          JobStatus `db:"status" json:"status"`
	TotalChunks     int       `db:"total_chunks" json:"total_chunk_count"`
	CompletedChunks int       `db:"completed_chunks" json:"completed_chunk_count"`
	ErrorMessage    string    `db:"error_message" json:"error_message,omitempty"`
	LockedPreserved int       `db:"locked_preserved" json:"locked_preserved"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Statement holds one reporting period's structured data for one statement
// type within a document. InvestmentID is set by the mapper, never by the
// extraction fold.
type Statement struct {
	ID                uuid.UUID     `db:"id" json:"id"`
	DocumentID        uuid.UUID     `db:"document_id" json:"document_id"`
	StatementType     StatementType `db:"statement_type" json:"statement_type"`
	Period            string        `db:"period" json:"period"`
	PeriodEndDate     *string       `db:"period_end_date" json:"period_end_date"`
	Currency          string        `db:"currency" json:"currency"`
	Unit              string        `db:"unit" json:"unit"`
	SourcePages       string        `db:"source_pages" json:"source_pages"`
	ReviewStatus      ReviewStatus  `db:"review_status" json:"review_status"`
	Locked            bool          `db:"locked" json:"locked"`
	InvestmentID      *uuid.UUID    `db:"investment_id" json:"investment_id"`
	ReportingDate     *time.Time    `db:"reporting_date" json:"reporting_date"`
	FiscalPeriodLabel string        `db:"fiscal_period_label" json:"fiscal_period_label"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`

	// LineItems is populated by list/get reads, not by the statements table.
	LineItems []LineItem `db:"-" json:"line_items,omitempty"`
}

// PeriodLabel returns the fiscal period label when set, else the raw period.
func (s *Statement) PeriodLabel() string {
	if s.FiscalPeriodLabel != "" {
		return s.FiscalPeriodLabel
	}
	return s.Period
}

// LineItem is one row within a statement. Raw label/value come from the
// extraction engine; edited overrides are applied through the review ledger.
type LineItem struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	StatementID     uuid.UUID       `db:"statement_id" json:"statement_id"`
	Category        string          `db:"category" json:"category"`
	Label           string          `db:"label" json:"label"`
	Value           *float64        `db:"value" json:"value"`
	EditedLabel     *string         `db:"edited_label" json:"edited_label"`
	EditedValue     *float64        `db:"edited_value" json:"edited_value"`
	IsUserModified  bool            `db:"is_user_modified" json:"is_user_modified"`
	IsTotal         bool            `db:"is_total" json:"is_total"`
	IndentLevel     int             `db:"indent_level" json:"indent_level"`
	SortOrder       int             `db:"sort_order" json:"sort_order"`
	CanonicalLabel  *string         `db:"canonical_label" json:"canonical_label"`
	CanonicalSource CanonicalSource `db:"canonical_source" json:"canonical_source"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// EffectiveLabel returns the edited label override when present, else the raw label.
func (li *LineItem) EffectiveLabel() string {
	if li.EditedLabel != nil {
		return *li.EditedLabel
	}
	return li.Label
}

// EffectiveValue returns the edited value override when present, else the raw value.
func (li *LineItem) EffectiveValue() *float64 {
	if li.EditedValue != nil {
		return li.EditedValue
	}
	return li.Value
}

// ComputeUserModified derives the is_user_modified flag: true iff an override
// is present and differs from the raw field.
func (li *LineItem) ComputeUserModified() bool {
	if li.EditedLabel != nil && *li.EditedLabel != li.Label {
		return true
	}
	if li.EditedValue != nil {
		if li.Value == nil || *li.EditedValue != *li.Value {
			return true
		}
	}
	return false
}

// EditRecord is an append-only audit entry for one line item field change.
type EditRecord struct {
	ID         uuid.UUID `db:"id" json:"id"`
	LineItemID uuid.UUID `db:"line_item_id" json:"line_item_id"`
	Field      EditField `db:"field" json:"field"`
	OldValue   *string   `db:"old_value" json:"old_value"`
	NewValue   *string   `db:"new_value" json:"new_value"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CanonicalMetric is a normalization target in the process-wide catalog.
// Variants are the known raw-label spellings; SortOrder drives catalog and
// comparison-export row ordering.
type CanonicalMetric struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	StatementType StatementType `db:"statement_type" json:"statement_type"`
	SortOrder     int           `db:"sort_order" json:"sort_order"`
	Variants      []string      `db:"-" json:"variants"`
}

// TrendPoint is one observation in a canonical metric's period series.
type TrendPoint struct {
	Period        string        `json:"period"`
	ReportingDate *time.Time    `json:"reporting_date"`
	Value         *float64      `json:"value"`
	StatementType StatementType `json:"statement_type"`
}

// MappingSuggestion is the mapper's candidate for a statement. CandidateID is
// nil when the parent document carries no investment scoping.
type MappingSuggestion struct {
	StatementID   uuid.UUID  `json:"statement_id"`
	CandidateID   *uuid.UUID `json:"candidate_investment_id"`
	Reason        string     `json:"reason,omitempty"`
	Period        string     `json:"period"`
	PeriodEndDate *string    `json:"period_end_date"`
}
