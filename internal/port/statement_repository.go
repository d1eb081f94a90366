package port

import (
	"context"

	"github.com/google/uuid"

	"finsight/internal/domain"
)

// StatementKey identifies a statement within a document during chunk folding.
type StatementKey struct {
	StatementType domain.StatementType `db:"statement_type"`
	Period        string               `db:"period"`
}

// StatementRepository defines the contract for statement persistence.
type StatementRepository interface {
	// CreateWithItems inserts a statement and its line items in one transaction.
	CreateWithItems(ctx context.Context, stmt *domain.Statement, items []domain.LineItem) error
	GetByID(ctx context.Context, stmtID uuid.UUID) (*domain.Statement, error)
	// GetWithItems returns a statement with its line items in sort order.
	GetWithItems(ctx context.Context, stmtID uuid.UUID) (*domain.Statement, error)
	ListByDocument(ctx context.Context, docID uuid.UUID, withItems bool) ([]domain.Statement, error)
	// ListByInvestment returns statements mapped to an investment, newest
	// reporting date first. statementType filters when non-empty.
	ListByInvestment(ctx context.Context, investmentID uuid.UUID, statementType domain.StatementType, withItems bool) ([]domain.Statement, error)
	// DeleteUnlockedByDocument removes a document's unlocked statements (line
	// items and edit records cascade) and returns the keys of the locked
	// statements that were preserved.
	DeleteUnlockedByDocument(ctx context.Context, docID uuid.UUID) ([]StatementKey, error)
	// AppendItems adds line items to an existing statement after its current
	// max sort order.
	AppendItems(ctx context.Context, stmtID uuid.UUID, items []domain.LineItem) error
	// SetReviewStatus updates review_status; the caller enforces transition rules.
	SetReviewStatus(ctx context.Context, stmtID uuid.UUID, status domain.ReviewStatus) error
	// Lock sets locked=true and review_status=approved. Idempotent.
	Lock(ctx context.Context, stmtID uuid.UUID) error
	// UpdateMapping sets investment_id and the optional period enrichments.
	UpdateMapping(ctx context.Context, stmt *domain.Statement) error
	// ClearMapping nulls investment_id, reporting_date, and fiscal_period_label.
	ClearMapping(ctx context.Context, stmtID uuid.UUID) error
}
