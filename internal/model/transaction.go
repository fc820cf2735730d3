package model

import (
	"time"
)

// Transaction is a single ledger entry. Negative amounts are expenses,
// positive amounts income. Deleted rows are soft-deleted and excluded
// from listings and reports.
type Transaction struct {
	ID          string     `db:"id" json:"id"`
	FamilyID    string     `db:"family_id" json:"-"`
	AccountID   string     `db:"account_id" json:"accountId"`
	CategoryID  *string    `db:"category_id" json:"categoryId,omitempty"`
	AmountCents int64      `db:"amount_cents" json:"amountCents"`
	OccurredOn  time.Time  `db:"occurred_on" json:"occurredOn"`
	Note        string     `db:"note" json:"note"`
	ImportID    *string    `db:"import_id" json:"importId,omitempty"`
	DeletedAt   *time.Time `db:"deleted_at" json:"-"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

type CreateTransactionParams struct {
	FamilyID    string
	AccountID   string
	CategoryID  *string
	AmountCents int64
	OccurredOn  time.Time
	Note        string
	ImportID    *string
}

type UpdateTransactionParams struct {
	AccountID   *string
	CategoryID  *string
	AmountCents *int64
	OccurredOn  *time.Time
	Note        *string
}

// TransactionFilter narrows listing queries. Zero values mean "no filter".
type TransactionFilter struct {
	AccountID  string
	CategoryID string
	Kind       CategoryKind
	From       *time.Time
	To         *time.Time
}
