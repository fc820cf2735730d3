package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fambudget/budget-server-go/internal/model"
)

type AccountRepository interface {
	FindByID(ctx context.Context, familyID, id string) (*model.Account, error)
	ListByFamily(ctx context.Context, familyID string, includeArchived bool) ([]model.Account, error)
	Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error)
	Update(ctx context.Context, familyID, id string, params model.UpdateAccountParams) (*model.Account, error)
	Archive(ctx context.Context, familyID, id string) (*model.Account, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) AccountRepository
}

type accountRepo struct {
	db sqlxDB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) WithTx(tx *sqlx.Tx) AccountRepository {
	return &accountRepo{db: tx}
}

func (r *accountRepo) FindByID(ctx context.Context, familyID, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		SELECT * FROM accounts WHERE id = $1 AND family_id = $2
	`, id, familyID)
	return HandleNotFound(&account, err)
}

func (r *accountRepo) ListByFamily(ctx context.Context, familyID string, includeArchived bool) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT * FROM accounts
		WHERE family_id = $1
		AND ($2 OR archived_at IS NULL)
		ORDER BY created_at ASC
	`, familyID, includeArchived)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) Create(ctx context.Context, params model.CreateAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		INSERT INTO accounts (family_id, name, type, currency, opening_balance_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.FamilyID, params.Name, params.Type, params.Currency, params.OpeningBalanceCents)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) Update(ctx context.Context, familyID, id string, params model.UpdateAccountParams) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET
			name = COALESCE($3, name),
			type = COALESCE($4, type),
			currency = COALESCE($5, currency),
			opening_balance_cents = COALESCE($6, opening_balance_cents),
			updated_at = $7
		WHERE id = $1 AND family_id = $2
		RETURNING *
	`, id, familyID, params.Name, params.Type, params.Currency, params.OpeningBalanceCents, time.Now())
	return HandleNotFound(&account, err)
}

func (r *accountRepo) Archive(ctx context.Context, familyID, id string) (*model.Account, error) {
	var account model.Account
	err := r.db.GetContext(ctx, &account, `
		UPDATE accounts SET archived_at = $3, updated_at = $3
		WHERE id = $1 AND family_id = $2 AND archived_at IS NULL
		RETURNING *
	`, id, familyID, time.Now())
	return HandleNotFound(&account, err)
}
