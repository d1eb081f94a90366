package port

import (
	"context"

	"github.com/google/uuid"

	"finsight/internal/domain"
)

// LineItemRepository defines the contract for line item persistence and the
// append-only edit ledger.
type LineItemRepository interface {
	GetByID(ctx context.Context, itemID uuid.UUID) (*domain.LineItem, error)
	// UpdateWithHistory writes the item's overrides and appends the edit
	// records in one transaction. The parent statement row is locked for the
	// duration and ErrStatementLocked is returned if it is (or becomes)
	// locked, so no edit leaks past a committed lock.
	UpdateWithHistory(ctx context.Context, item *domain.LineItem, records []domain.EditRecord) error
	// SetCanonicalFromNormalizer assigns a canonical label unless the item's
	// statement is locked or the label was set by explicit user correction.
	// Returns true when a row was updated.
	SetCanonicalFromNormalizer(ctx context.Context, itemID uuid.UUID, canonical string) (bool, error)
	// ListByInvestment returns line items of all statements mapped to an
	// investment, joined with statement lock state filtered to unlocked when
	// unlockedOnly is set.
	ListByInvestment(ctx context.Context, investmentID uuid.UUID, unlockedOnly bool) ([]domain.LineItem, error)
	// ListHistory returns a line item's edit records in chronological order.
	ListHistory(ctx context.Context, itemID uuid.UUID) ([]domain.EditRecord, error)
}
