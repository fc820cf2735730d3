package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fambudget/budget-server-go/internal/model"
)

type TransactionRepository interface {
	FindByID(ctx context.Context, familyID, id string) (*model.Transaction, error)
	List(ctx context.Context, familyID string, filter model.TransactionFilter, limit, offset int) ([]model.Transaction, error)
	Count(ctx context.Context, familyID string, filter model.TransactionFilter) (int, error)
	Create(ctx context.Context, params model.CreateTransactionParams) (*model.Transaction, error)
	Update(ctx context.Context, familyID, id string, params model.UpdateTransactionParams) (*model.Transaction, error)
	SoftDelete(ctx context.Context, familyID, id string) (bool, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) TransactionRepository
}

type transactionRepo struct {
	db sqlxDB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) WithTx(tx *sqlx.Tx) TransactionRepository {
	return &transactionRepo{db: tx}
}

func (r *transactionRepo) FindByID(ctx context.Context, familyID, id string) (*model.Transaction, error) {
	var txn model.Transaction
	err := r.db.GetContext(ctx, &txn, `
		SELECT * FROM transactions
		WHERE id = $1 AND family_id = $2 AND deleted_at IS NULL
	`, id, familyID)
	return HandleNotFound(&txn, err)
}

// filterClause builds the WHERE tail shared by List and Count. Argument
// numbering starts after the family_id placeholder.
func filterClause(filter model.TransactionFilter, args *[]interface{}) string {
	var sb strings.Builder

	if filter.AccountID != "" {
		*args = append(*args, filter.AccountID)
		fmt.Fprintf(&sb, " AND account_id = $%d", len(*args))
	}
	if filter.CategoryID != "" {
		*args = append(*args, filter.CategoryID)
		fmt.Fprintf(&sb, " AND category_id = $%d", len(*args))
	}
	if filter.Kind == model.CategoryKindExpense {
		sb.WriteString(" AND amount_cents < 0")
	} else if filter.Kind == model.CategoryKindIncome {
		sb.WriteString(" AND amount_cents >= 0")
	}
	if filter.From != nil {
		*args = append(*args, *filter.From)
		fmt.Fprintf(&sb, " AND occurred_on >= $%d", len(*args))
	}
	if filter.To != nil {
		*args = append(*args, *filter.To)
		fmt.Fprintf(&sb, " AND occurred_on <= $%d", len(*args))
	}

	return sb.String()
}

func (r *transactionRepo) List(ctx context.Context, familyID string, filter model.TransactionFilter, limit, offset int) ([]model.Transaction, error) {
	args := []interface{}{familyID}
	where := filterClause(filter, &args)

	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT * FROM transactions
		WHERE family_id = $1 AND deleted_at IS NULL%s
		ORDER BY occurred_on DESC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	var txns []model.Transaction
	if err := r.db.SelectContext(ctx, &txns, query, args...); err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *transactionRepo) Count(ctx context.Context, familyID string, filter model.TransactionFilter) (int, error) {
	args := []interface{}{familyID}
	where := filterClause(filter, &args)

	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM transactions
		WHERE family_id = $1 AND deleted_at IS NULL%s
	`, where)

	var count int
	err := r.db.GetContext(ctx, &count, query, args...)
	return count, err
}

func (r *transactionRepo) Create(ctx context.Context, params model.CreateTransactionParams) (*model.Transaction, error) {
	var txn model.Transaction
	err := r.db.GetContext(ctx, &txn, `
		INSERT INTO transactions (family_id, account_id, category_id, amount_cents, occurred_on, note, import_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.FamilyID, params.AccountID, params.CategoryID, params.AmountCents, params.OccurredOn, params.Note, params.ImportID)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepo) Update(ctx context.Context, familyID, id string, params model.UpdateTransactionParams) (*model.Transaction, error) {
	var txn model.Transaction
	err := r.db.GetContext(ctx, &txn, `
		UPDATE transactions SET
			account_id = COALESCE($3, account_id),
			category_id = COALESCE($4, category_id),
			amount_cents = COALESCE($5, amount_cents),
			occurred_on = COALESCE($6, occurred_on),
			note = COALESCE($7, note),
			updated_at = $8
		WHERE id = $1 AND family_id = $2 AND deleted_at IS NULL
		RETURNING *
	`, id, familyID, params.AccountID, params.CategoryID, params.AmountCents, params.OccurredOn, params.Note, time.Now())
	return HandleNotFound(&txn, err)
}

func (r *transactionRepo) SoftDelete(ctx context.Context, familyID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET deleted_at = $3, updated_at = $3
		WHERE id = $1 AND family_id = $2 AND deleted_at IS NULL
	`, id, familyID, time.Now())
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
