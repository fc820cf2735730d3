package model

import (
	"time"
)

// Account is a money account (checking, savings, cash, credit card)
// owned by a family. Amounts are integer cents.
type Account struct {
	ID                  string      `db:"id" json:"id"`
	FamilyID            string      `db:"family_id" json:"-"`
	Name                string      `db:"name" json:"name"`
	Type                AccountType `db:"type" json:"type"`
	Currency            string      `db:"currency" json:"currency"`
	OpeningBalanceCents int64       `db:"opening_balance_cents" json:"openingBalanceCents"`
	ArchivedAt          *time.Time  `db:"archived_at" json:"archivedAt,omitempty"`
	CreatedAt           time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updatedAt"`
}

type CreateAccountParams struct {
	FamilyID            string
	Name                string
	Type                AccountType
	Currency            string
	OpeningBalanceCents int64
}

type UpdateAccountParams struct {
	Name                *string
	Type                *AccountType
	Currency            *string
	OpeningBalanceCents *int64
}
