package service

import (
	"context"

	apperrors "github.com/fambudget/budget-server-go/internal/errors"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/repository"
	"github.com/fambudget/budget-server-go/internal/util"
)

type BudgetService struct {
	budgetRepo   repository.BudgetRepository
	categoryRepo repository.CategoryRepository
}

func NewBudgetService(budgetRepo repository.BudgetRepository, categoryRepo repository.CategoryRepository) *BudgetService {
	return &BudgetService{
		budgetRepo:   budgetRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *BudgetService) ListByMonth(ctx context.Context, familyID, month string) ([]model.BudgetProgress, error) {
	if !util.IsValidMonth(month) {
		return nil, apperrors.InvalidInput("month", "must be YYYY-MM")
	}

	budgets, err := s.budgetRepo.ListByMonth(ctx, familyID, month)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return budgets, nil
}

// Upsert sets the monthly limit for a category, replacing any existing
// budget for the same (category, month).
func (s *BudgetService) Upsert(ctx context.Context, familyID string, params model.UpsertBudgetParams) (*model.Budget, error) {
	if !util.IsValidMonth(params.Month) {
		return nil, apperrors.InvalidInput("month", "must be YYYY-MM")
	}
	if params.LimitCents <= 0 {
		return nil, apperrors.InvalidInput("limitCents", "must be positive")
	}

	category, err := s.categoryRepo.FindByID(ctx, familyID, params.CategoryID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if category == nil {
		return nil, apperrors.NotFound("Category")
	}
	if category.Kind != model.CategoryKindExpense {
		return nil, apperrors.ValidationError("Budgets can only be set on expense categories")
	}

	params.FamilyID = familyID
	budget, err := s.budgetRepo.Upsert(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return budget, nil
}

func (s *BudgetService) Delete(ctx context.Context, familyID, id string) error {
	deleted, err := s.budgetRepo.Delete(ctx, familyID, id)
	if err != nil {
		return apperrors.Database(err)
	}
	if !deleted {
		return apperrors.NotFound("Budget")
	}
	return nil
}
