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

type statementRepo struct {
	db *sqlx.DB
}

// NewStatementRepo creates a new PostgreSQL-backed StatementRepository.
func NewStatementRepo(db *sqlx.DB) port.StatementRepository {
	return &statementRepo{db: db}
}

const insertStatementQuery = `INSERT INTO statements (
	id, document_id, statement_type, period, period_end_date,
	currency, unit, source_pages, review_status, locked,
	investment_id, reporting_date, fiscal_period_label,
	created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

const insertLineItemQuery = `INSERT INTO line_items (
	id, statement_id, category, label, value,
	edited_label, edited_value, is_user_modified, is_total,
	indent_level, sort_order, canonical_label, canonical_source,
	created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

func insertLineItem(ctx context.Context, tx *sqlx.Tx, item *domain.LineItem) error {
	_, err := tx.ExecContext(ctx, insertLineItemQuery,
		item.ID, item.StatementID, item.Category, item.Label, item.Value,
		item.EditedLabel, item.EditedValue, item.IsUserModified, item.IsTotal,
		item.IndentLevel, item.SortOrder, item.CanonicalLabel, item.CanonicalSource,
		item.CreatedAt, item.UpdatedAt)
	return err
}

func (r *statementRepo) CreateWithItems(ctx context.Context, stmt *domain.Statement, items []domain.LineItem) error {
	now := time.Now().UTC()
	stmt.CreatedAt = now
	stmt.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("statementRepo.CreateWithItems begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, insertStatementQuery,
		stmt.ID, stmt.DocumentID, stmt.StatementType, stmt.Period, stmt.PeriodEndDate,
		stmt.Currency, stmt.Unit, stmt.SourcePages, stmt.ReviewStatus, stmt.Locked,
		stmt.InvestmentID, stmt.ReportingDate, stmt.FiscalPeriodLabel,
		stmt.CreatedAt, stmt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("statementRepo.CreateWithItems statement: %w", err)
	}

	for i := range items {
		items[i].StatementID = stmt.ID
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
		if err := insertLineItem(ctx, tx, &items[i]); err != nil {
			return fmt.Errorf("statementRepo.CreateWithItems item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("statementRepo.CreateWithItems commit: %w", err)
	}
	stmt.LineItems = items
	return nil
}

func (r *statementRepo) GetByID(ctx context.Context, stmtID uuid.UUID) (*domain.Statement, error) {
	var stmt domain.Statement
	err := r.db.GetContext(ctx, &stmt,
		"SELECT * FROM statements WHERE id = $1", stmtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStatementNotFound
		}
		return nil, fmt.Errorf("statementRepo.GetByID: %w", err)
	}
	return &stmt, nil
}

func (r *statementRepo) GetWithItems(ctx context.Context, stmtID uuid.UUID) (*domain.Statement, error) {
	stmt, err := r.GetByID(ctx, stmtID)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, stmt); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (r *statementRepo) loadItems(ctx context.Context, stmt *domain.Statement) error {
	var items []domain.LineItem
	err := r.db.SelectContext(ctx, &items,
		"SELECT * FROM line_items WHERE statement_id = $1 ORDER BY sort_order", stmt.ID)
	if err != nil {
		return fmt.Errorf("statementRepo.loadItems: %w", err)
	}
	stmt.LineItems = items
	return nil
}

func (r *statementRepo) ListByDocument(ctx context.Context, docID uuid.UUID, withItems bool) ([]domain.Statement, error) {
	var stmts []domain.Statement
	err := r.db.SelectContext(ctx, &stmts,
		`SELECT * FROM statements WHERE document_id = $1
		 ORDER BY statement_type, period`, docID)
	if err != nil {
		return nil, fmt.Errorf("statementRepo.ListByDocument: %w", err)
	}
	if withItems {
		for i := range stmts {
			if err := r.loadItems(ctx, &stmts[i]); err != nil {
				return nil, err
			}
		}
	}
	return stmts, nil
}

func (r *statementRepo) ListByInvestment(ctx context.Context, investmentID uuid.UUID, statementType domain.StatementType, withItems bool) ([]domain.Statement, error) {
	query := `SELECT * FROM statements WHERE investment_id = $1`
	args := []any{investmentID}
	if statementType != "" {
		query += ` AND statement_type = $2`
		args = append(args, statementType)
	}
	query += ` ORDER BY reporting_date DESC NULLS LAST, period`

	var stmts []domain.Statement
	err := r.db.SelectContext(ctx, &stmts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("statementRepo.ListByInvestment: %w", err)
	}
	if withItems {
		for i := range stmts {
			if err := r.loadItems(ctx, &stmts[i]); err != nil {
				return nil, err
			}
		}
	}
	return stmts, nil
}

func (r *statementRepo) DeleteUnlockedByDocument(ctx context.Context, docID uuid.UUID) ([]port.StatementKey, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("statementRepo.DeleteUnlockedByDocument begin: %w", err)
	}
	defer tx.Rollback()

	var preserved []port.StatementKey
	err = tx.SelectContext(ctx, &preserved,
		`SELECT statement_type, period
		 FROM statements WHERE document_id = $1 AND locked = TRUE
		 FOR UPDATE`, docID)
	if err != nil {
		return nil, fmt.Errorf("statementRepo.DeleteUnlockedByDocument preserved: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM statements WHERE document_id = $1 AND locked = FALSE", docID)
	if err != nil {
		return nil, fmt.Errorf("statementRepo.DeleteUnlockedByDocument delete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("statementRepo.DeleteUnlockedByDocument commit: %w", err)
	}
	return preserved, nil
}

func (r *statementRepo) AppendItems(ctx context.Context, stmtID uuid.UUID, items []domain.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("statementRepo.AppendItems begin: %w", err)
	}
	defer tx.Rollback()

	var maxOrder int
	err = tx.GetContext(ctx, &maxOrder,
		"SELECT COALESCE(MAX(sort_order), -1) FROM line_items WHERE statement_id = $1", stmtID)
	if err != nil {
		return fmt.Errorf("statementRepo.AppendItems max order: %w", err)
	}

	for i := range items {
		items[i].StatementID = stmtID
		items[i].SortOrder = maxOrder + 1 + i
		items[i].CreatedAt = now
		items[i].UpdatedAt = now
		if err := insertLineItem(ctx, tx, &items[i]); err != nil {
			return fmt.Errorf("statementRepo.AppendItems item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("statementRepo.AppendItems commit: %w", err)
	}
	return nil
}

func (r *statementRepo) SetReviewStatus(ctx context.Context, stmtID uuid.UUID, status domain.ReviewStatus) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE statements SET review_status = $2, updated_at = now() WHERE id = $1",
		stmtID, status)
	if err != nil {
		return fmt.Errorf("statementRepo.SetReviewStatus: %w", err)
	}
	return checkFound(res, "statementRepo.SetReviewStatus", domain.ErrStatementNotFound)
}

func (r *statementRepo) Lock(ctx context.Context, stmtID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE statements SET locked = TRUE, review_status = 'approved', updated_at = now()
		 WHERE id = $1`, stmtID)
	if err != nil {
		return fmt.Errorf("statementRepo.Lock: %w", err)
	}
	return checkFound(res, "statementRepo.Lock", domain.ErrStatementNotFound)
}

func (r *statementRepo) UpdateMapping(ctx context.Context, stmt *domain.Statement) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE statements
		 SET investment_id = $2, reporting_date = $3, fiscal_period_label = $4, updated_at = now()
		 WHERE id = $1`,
		stmt.ID, stmt.InvestmentID, stmt.ReportingDate, stmt.FiscalPeriodLabel)
	if err != nil {
		return fmt.Errorf("statementRepo.UpdateMapping: %w", err)
	}
	return checkFound(res, "statementRepo.UpdateMapping", domain.ErrStatementNotFound)
}

func (r *statementRepo) ClearMapping(ctx context.Context, stmtID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE statements
		 SET investment_id = NULL, reporting_date = NULL, fiscal_period_label = '', updated_at = now()
		 WHERE id = $1`, stmtID)
	if err != nil {
		return fmt.Errorf("statementRepo.ClearMapping: %w", err)
	}
	return checkFound(res, "statementRepo.ClearMapping", domain.ErrStatementNotFound)
}

func checkFound(res sql.Result, op string, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
