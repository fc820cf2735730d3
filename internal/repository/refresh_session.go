package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fambudget/budget-server-go/internal/model"
)

type RefreshSessionRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshSession, error)
	Create(ctx context.Context, params model.CreateRefreshSessionParams) (*model.RefreshSession, error)
	// Revoke marks the session revoked iff it is not revoked yet, and
	// reports whether this call performed the revocation. Concurrent
	// rotations of the same session thus see exactly one true result.
	Revoke(ctx context.Context, id string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) RefreshSessionRepository
}

type refreshSessionRepo struct {
	db               sqlxDB
	revokedRetention time.Duration
}

func NewRefreshSessionRepository(db *sqlx.DB, revokedRetention time.Duration) RefreshSessionRepository {
	return &refreshSessionRepo{db: db, revokedRetention: revokedRetention}
}

func (r *refreshSessionRepo) WithTx(tx *sqlx.Tx) RefreshSessionRepository {
	return &refreshSessionRepo{db: tx, revokedRetention: r.revokedRetention}
}

func (r *refreshSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshSession, error) {
	var session model.RefreshSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM refresh_sessions WHERE token_hash = $1
	`, tokenHash)
	return HandleNotFound(&session, err)
}

func (r *refreshSessionRepo) Create(ctx context.Context, params model.CreateRefreshSessionParams) (*model.RefreshSession, error) {
	var session model.RefreshSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO refresh_sessions (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.UserID, params.TokenHash, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *refreshSessionRepo) Revoke(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE refresh_sessions SET revoked_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`, id, time.Now())
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *refreshSessionRepo) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE refresh_sessions SET revoked_at = $2
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *refreshSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM refresh_sessions
		WHERE expires_at < NOW()
		OR revoked_at < NOW() - make_interval(secs => $1)
	`, r.revokedRetention.Seconds())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
