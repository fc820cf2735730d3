package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/fambudget/budget-server-go/internal/model"
)

type BudgetRepository interface {
	FindByID(ctx context.Context, familyID, id string) (*model.Budget, error)
	Upsert(ctx context.Context, params model.UpsertBudgetParams) (*model.Budget, error)
	ListByMonth(ctx context.Context, familyID, month string) ([]model.BudgetProgress, error)
	Delete(ctx context.Context, familyID, id string) (bool, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) BudgetRepository
}

type budgetRepo struct {
	db sqlxDB
}

func NewBudgetRepository(db *sqlx.DB) BudgetRepository {
	return &budgetRepo{db: db}
}

func (r *budgetRepo) WithTx(tx *sqlx.Tx) BudgetRepository {
	return &budgetRepo{db: tx}
}

func (r *budgetRepo) FindByID(ctx context.Context, familyID, id string) (*model.Budget, error) {
	var budget model.Budget
	err := r.db.GetContext(ctx, &budget, `
		SELECT * FROM budgets WHERE id = $1 AND family_id = $2
	`, id, familyID)
	return HandleNotFound(&budget, err)
}

func (r *budgetRepo) Upsert(ctx context.Context, params model.UpsertBudgetParams) (*model.Budget, error) {
	var budget model.Budget
	err := r.db.GetContext(ctx, &budget, `
		INSERT INTO budgets (family_id, category_id, month, limit_cents)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (family_id, category_id, month)
		DO UPDATE SET limit_cents = EXCLUDED.limit_cents, updated_at = NOW()
		RETURNING *
	`, params.FamilyID, params.CategoryID, params.Month, params.LimitCents)
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *budgetRepo) ListByMonth(ctx context.Context, familyID, month string) ([]model.BudgetProgress, error) {
	var budgets []model.BudgetProgress
	err := r.db.SelectContext(ctx, &budgets, `
		SELECT b.*,
			c.name AS category_name,
			COALESCE((
				SELECT -SUM(t.amount_cents) FROM transactions t
				WHERE t.family_id = b.family_id
				AND t.category_id = b.category_id
				AND t.deleted_at IS NULL
				AND t.amount_cents < 0
				AND to_char(t.occurred_on, 'YYYY-MM') = b.month
			), 0) AS spent_cents
		FROM budgets b
		JOIN categories c ON c.id = b.category_id
		WHERE b.family_id = $1 AND b.month = $2
		ORDER BY c.name
	`, familyID, month)
	if err != nil {
		return nil, err
	}
	return budgets, nil
}

func (r *budgetRepo) Delete(ctx context.Context, familyID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM budgets WHERE id = $1 AND family_id = $2
	`, id, familyID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
