package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fambudget/budget-server-go/internal/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ListByFamily(ctx context.Context, familyID string) ([]model.User, error)
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error)
	UpdateStatus(ctx context.Context, id string, status model.UserStatus) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) UserRepository
}

type userRepo struct {
	db sqlxDB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) WithTx(tx *sqlx.Tx) UserRepository {
	return &userRepo{db: tx}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE id = $1
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE email = lower($1)
	`, email)
	return HandleNotFound(&user, err)
}

func (r *userRepo) ListByFamily(ctx context.Context, familyID string) ([]model.User, error) {
	var users []model.User
	err := r.db.SelectContext(ctx, &users, `
		SELECT * FROM users
		WHERE family_id = $1
		ORDER BY created_at ASC
	`, familyID)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (family_id, email, password_hash, display_name, role, status)
		VALUES ($1, lower($2), $3, $4, $5, $6)
		RETURNING *
	`, params.FamilyID, params.Email, params.PasswordHash, params.DisplayName, params.Role, params.Status)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET role = $2, updated_at = $3
		WHERE id = $1
		RETURNING *
	`, id, role, time.Now())
	return HandleNotFound(&user, err)
}

func (r *userRepo) UpdateStatus(ctx context.Context, id string, status model.UserStatus) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING *
	`, id, status, time.Now())
	return HandleNotFound(&user, err)
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, id, passwordHash, time.Now())
	return err
}
