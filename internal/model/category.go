package model

import (
	"time"
)

type Category struct {
	ID         string       `db:"id" json:"id"`
	FamilyID   string       `db:"family_id" json:"-"`
	Name       string       `db:"name" json:"name"`
	Kind       CategoryKind `db:"kind" json:"kind"`
	Color      string       `db:"color" json:"color"`
	ArchivedAt *time.Time   `db:"archived_at" json:"archivedAt,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updatedAt"`
}

type CreateCategoryParams struct {
	FamilyID string
	Name     string
	Kind     CategoryKind
	Color    string
}

type UpdateCategoryParams struct {
	Name  *string
	Color *string
}
