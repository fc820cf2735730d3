package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// MonthlySummary aggregates one month of a family's ledger.
type MonthlySummary struct {
	Month        string `db:"-" json:"month"`
	IncomeCents  int64  `db:"income_cents" json:"incomeCents"`
	ExpenseCents int64  `db:"expense_cents" json:"expenseCents"`
	NetCents     int64  `db:"net_cents" json:"netCents"`
	Transactions int    `db:"transactions" json:"transactions"`
}

type CategoryTotal struct {
	CategoryID   *string `db:"category_id" json:"categoryId"`
	CategoryName *string `db:"category_name" json:"categoryName"`
	Kind         *string `db:"kind" json:"kind"`
	TotalCents   int64   `db:"total_cents" json:"totalCents"`
}

type AccountBalance struct {
	AccountID    string `db:"account_id" json:"accountId"`
	AccountName  string `db:"account_name" json:"accountName"`
	Currency     string `db:"currency" json:"currency"`
	BalanceCents int64  `db:"balance_cents" json:"balanceCents"`
}

type ReportRepository interface {
	MonthlySummary(ctx context.Context, familyID, month string) (*MonthlySummary, error)
	CategoryTotals(ctx context.Context, familyID, month string) ([]CategoryTotal, error)
	AccountBalances(ctx context.Context, familyID string) ([]AccountBalance, error)
}

type reportRepo struct {
	db sqlxDB
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) MonthlySummary(ctx context.Context, familyID, month string) (*MonthlySummary, error) {
	var summary MonthlySummary
	err := r.db.GetContext(ctx, &summary, `
		SELECT
			COALESCE(SUM(amount_cents) FILTER (WHERE amount_cents >= 0), 0) AS income_cents,
			COALESCE(-SUM(amount_cents) FILTER (WHERE amount_cents < 0), 0) AS expense_cents,
			COALESCE(SUM(amount_cents), 0) AS net_cents,
			COUNT(*) AS transactions
		FROM transactions
		WHERE family_id = $1
		AND deleted_at IS NULL
		AND to_char(occurred_on, 'YYYY-MM') = $2
	`, familyID, month)
	if err != nil {
		return nil, err
	}
	summary.Month = month
	return &summary, nil
}

func (r *reportRepo) CategoryTotals(ctx context.Context, familyID, month string) ([]CategoryTotal, error) {
	var totals []CategoryTotal
	err := r.db.SelectContext(ctx, &totals, `
		SELECT
			t.category_id,
			c.name AS category_name,
			c.kind,
			SUM(t.amount_cents) AS total_cents
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.family_id = $1
		AND t.deleted_at IS NULL
		AND to_char(t.occurred_on, 'YYYY-MM') = $2
		GROUP BY t.category_id, c.name, c.kind
		ORDER BY total_cents ASC
	`, familyID, month)
	if err != nil {
		return nil, err
	}
	return totals, nil
}

func (r *reportRepo) AccountBalances(ctx context.Context, familyID string) ([]AccountBalance, error) {
	var balances []AccountBalance
	err := r.db.SelectContext(ctx, &balances, `
		SELECT
			a.id AS account_id,
			a.name AS account_name,
			a.currency,
			a.opening_balance_cents + COALESCE(SUM(t.amount_cents), 0) AS balance_cents
		FROM accounts a
		LEFT JOIN transactions t
			ON t.account_id = a.id AND t.deleted_at IS NULL
		WHERE a.family_id = $1 AND a.archived_at IS NULL
		GROUP BY a.id, a.name, a.currency, a.opening_balance_cents
		ORDER BY a.created_at ASC
	`, familyID)
	if err != nil {
		return nil, err
	}
	return balances, nil
}
