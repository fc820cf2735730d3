package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/fambudget/budget-server-go/internal/model"
)

type FamilyRepository interface {
	FindByID(ctx context.Context, id string) (*model.Family, error)
	Create(ctx context.Context, name string) (*model.Family, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) FamilyRepository
}

type familyRepo struct {
	db sqlxDB
}

func NewFamilyRepository(db *sqlx.DB) FamilyRepository {
	return &familyRepo{db: db}
}

func (r *familyRepo) WithTx(tx *sqlx.Tx) FamilyRepository {
	return &familyRepo{db: tx}
}

func (r *familyRepo) FindByID(ctx context.Context, id string) (*model.Family, error) {
	var family model.Family
	err := r.db.GetContext(ctx, &family, `
		SELECT * FROM families WHERE id = $1
	`, id)
	return HandleNotFound(&family, err)
}

func (r *familyRepo) Create(ctx context.Context, name string) (*model.Family, error) {
	var family model.Family
	err := r.db.GetContext(ctx, &family, `
		INSERT INTO families (name)
		VALUES ($1)
		RETURNING *
	`, name)
	if err != nil {
		return nil, err
	}
	return &family, nil
}
