package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"finsight/internal/domain"
	"finsight/internal/port"
)

type lineItemRepo struct {
	db *sqlx.DB
}

// NewLineItemRepo creates a new PostgreSQL-backed LineItemRepository.
func NewLineItemRepo(db *sqlx.DB) port.LineItemRepository {
	return &lineItemRepo{db: db}
}

func (r *lineItemRepo) GetByID(ctx context.Context, itemID uuid.UUID) (*domain.LineItem, error) {
	var item domain.LineItem
	err := r.db.GetContext(ctx, &item,
		"SELECT * FROM line_items WHERE id = $1", itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLineItemNotFound
		}
		return nil, fmt.Errorf("lineItemRepo.GetByID: %w", err)
	}
	return &item, nil
}

// UpdateWithHistory holds a row lock on the parent statement while the item
// update and its edit records commit together, so an edit can never land on a
// statement after it was locked.
func (r *lineItemRepo) UpdateWithHistory(ctx context.Context, item *domain.LineItem, records []domain.EditRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("lineItemRepo.UpdateWithHistory begin: %w", err)
	}
	defer tx.Rollback()

	var locked bool
	err = tx.GetContext(ctx, &locked,
		"SELECT locked FROM statements WHERE id = $1 FOR UPDATE", item.StatementID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrStatementNotFound
		}
		return fmt.Errorf("lineItemRepo.UpdateWithHistory lock check: %w", err)
	}
	if locked {
		return domain.ErrStatementLocked
	}

	now := time.Now().UTC()
	item.UpdatedAt = now

	res, err := tx.ExecContext(ctx,
		`UPDATE line_items
		 SET edited_label = $2, edited_value = $3, is_user_modified = $4,
		     canonical_label = $5, canonical_source = $6, updated_at = $7
		 WHERE id = $1`,
		item.ID, item.EditedLabel, item.EditedValue, item.IsUserModified,
		item.CanonicalLabel, item.CanonicalSource, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("lineItemRepo.UpdateWithHistory update: %w", err)
	}
	if err := checkFound(res, "lineItemRepo.UpdateWithHistory", domain.ErrLineItemNotFound); err != nil {
		return err
	}

	for i := range records {
		records[i].ID = uuid.New()
		records[i].LineItemID = item.ID
		records[i].CreatedAt = now
		_, err := tx.ExecContext(ctx,
			`INSERT INTO edit_records (id, line_item_id, field, old_value, new_value, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			records[i].ID, records[i].LineItemID, records[i].Field,
			records[i].OldValue, records[i].NewValue, records[i].CreatedAt)
		if err != nil {
			return fmt.Errorf("lineItemRepo.UpdateWithHistory record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("lineItemRepo.UpdateWithHistory commit: %w", err)
	}
	return nil
}

func (r *lineItemRepo) SetCanonicalFromNormalizer(ctx context.Context, itemID uuid.UUID, canonical string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE line_items li SET canonical_label = $2, canonical_source = 'normalizer', updated_at = now()
		 FROM statements s
		 WHERE li.id = $1 AND s.id = li.statement_id
		   AND s.locked = FALSE
		   AND li.canonical_source != 'user'`,
		itemID, canonical)
	if err != nil {
		return false, fmt.Errorf("lineItemRepo.SetCanonicalFromNormalizer: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("lineItemRepo.SetCanonicalFromNormalizer rows: %w", err)
	}
	return rows > 0, nil
}

func (r *lineItemRepo) ListByInvestment(ctx context.Context, investmentID uuid.UUID, unlockedOnly bool) ([]domain.LineItem, error) {
	query := `SELECT li.* FROM line_items li
		 JOIN statements s ON s.id = li.statement_id
		 WHERE s.investment_id = $1`
	if unlockedOnly {
		query += ` AND s.locked = FALSE`
	}
	query += ` ORDER BY s.reporting_date NULLS LAST, li.sort_order`

	var items []domain.LineItem
	err := r.db.SelectContext(ctx, &items, query, investmentID)
	if err != nil {
		return nil, fmt.Errorf("lineItemRepo.ListByInvestment: %w", err)
	}
	return items, nil
}

func (r *lineItemRepo) ListHistory(ctx context.Context, itemID uuid.UUID) ([]domain.EditRecord, error) {
	var records []domain.EditRecord
	err := r.db.SelectContext(ctx, &records,
		`SELECT * FROM edit_records WHERE line_item_id = $1 ORDER BY created_at`, itemID)
	if err != nil {
		return nil, fmt.Errorf("lineItemRepo.ListHistory: %w", err)
	}
	return records, nil
}
