package model

import (
	"time"
)

// Budget is a per-category spending limit for one month. Month is a
// YYYY-MM key; at most one budget exists per (family, category, month).
type Budget struct {
	ID         string    `db:"id" json:"id"`
	FamilyID   string    `db:"family_id" json:"-"`
	CategoryID string    `db:"category_id" json:"categoryId"`
	Month      string    `db:"month" json:"month"`
	LimitCents int64     `db:"limit_cents" json:"limitCents"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

type UpsertBudgetParams struct {
	FamilyID   string
	CategoryID string
	Month      string
	LimitCents int64
}

// BudgetProgress is a budget joined with spending accumulated so far
// in its month.
type BudgetProgress struct {
	Budget
	CategoryName string `db:"category_name" json:"categoryName"`
	SpentCents   int64  `db:"spent_cents" json:"spentCents"`
}
