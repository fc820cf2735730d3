package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fambudget/budget-server-go/internal/model"
)

type CategoryRepository interface {
	FindByID(ctx context.Context, familyID, id string) (*model.Category, error)
	FindByName(ctx context.Context, familyID, name string, kind model.CategoryKind) (*model.Category, error)
	ListByFamily(ctx context.Context, familyID string, includeArchived bool) ([]model.Category, error)
	Create(ctx context.Context, params model.CreateCategoryParams) (*model.Category, error)
	Update(ctx context.Context, familyID, id string, params model.UpdateCategoryParams) (*model.Category, error)
	Archive(ctx context.Context, familyID, id string) (*model.Category, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) CategoryRepository
}

type categoryRepo struct {
	db sqlxDB
}

func NewCategoryRepository(db *sqlx.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) WithTx(tx *sqlx.Tx) CategoryRepository {
	return &categoryRepo{db: tx}
}

func (r *categoryRepo) FindByID(ctx context.Context, familyID, id string) (*model.Category, error) {
	var category model.Category
	err := r.db.GetContext(ctx, &category, `
		SELECT * FROM categories WHERE id = $1 AND family_id = $2
	`, id, familyID)
	return HandleNotFound(&category, err)
}

func (r *categoryRepo) FindByName(ctx context.Context, familyID, name string, kind model.CategoryKind) (*model.Category, error) {
	var category model.Category
	err := r.db.GetContext(ctx, &category, `
		SELECT * FROM categories
		WHERE family_id = $1 AND lower(name) = lower($2) AND kind = $3
	`, familyID, name, kind)
	return HandleNotFound(&category, err)
}

func (r *categoryRepo) ListByFamily(ctx context.Context, familyID string, includeArchived bool) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.SelectContext(ctx, &categories, `
		SELECT * FROM categories
		WHERE family_id = $1
		AND ($2 OR archived_at IS NULL)
		ORDER BY kind, name
	`, familyID, includeArchived)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepo) Create(ctx context.Context, params model.CreateCategoryParams) (*model.Category, error) {
	var category model.Category
	err := r.db.GetContext(ctx, &category, `
		INSERT INTO categories (family_id, name, kind, color)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.FamilyID, params.Name, params.Kind, params.Color)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) Update(ctx context.Context, familyID, id string, params model.UpdateCategoryParams) (*model.Category, error) {
	var category model.Category
	err := r.db.GetContext(ctx, &category, `
		UPDATE categories SET
			name = COALESCE($3, name),
			color = COALESCE($4, color),
			updated_at = $5
		WHERE id = $1 AND family_id = $2
		RETURNING *
	`, id, familyID, params.Name, params.Color, time.Now())
	return HandleNotFound(&category, err)
}

func (r *categoryRepo) Archive(ctx context.Context, familyID, id string) (*model.Category, error) {
	var category model.Category
	err := r.db.GetContext(ctx, &category, `
		UPDATE categories SET archived_at = $3, updated_at = $3
		WHERE id = $1 AND family_id = $2 AND archived_at IS NULL
		RETURNING *
	`, id, familyID, time.Now())
	return HandleNotFound(&category, err)
}
