package model

import (
	"time"
)

// RefreshSession is the durable record of an issued refresh token.
// Only the SHA-256 hash of the secret is stored; the raw value is
// returned to the client once at issue time.
type RefreshSession struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"userId"`
	TokenHash string     `db:"token_hash" json:"-"`
	IssuedAt  time.Time  `db:"issued_at" json:"issuedAt"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	RevokedAt *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
}

type CreateRefreshSessionParams struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
}
