package service

import (
	"context"

	apperrors "github.com/fambudget/budget-server-go/internal/errors"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/repository"
)

type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

func (s *CategoryService) List(ctx context.Context, familyID string, includeArchived bool) ([]model.Category, error) {
	categories, err := s.categoryRepo.ListByFamily(ctx, familyID, includeArchived)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, familyID string, params model.CreateCategoryParams) (*model.Category, error) {
	if params.Name == "" {
		return nil, apperrors.MissingRequired("name")
	}
	if !params.Kind.Valid() {
		return nil, apperrors.InvalidInput("kind", "must be INCOME or EXPENSE")
	}

	existing, err := s.categoryRepo.FindByName(ctx, familyID, params.Name, params.Kind)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.AlreadyExists("Category")
	}

	params.FamilyID = familyID
	category, err := s.categoryRepo.Create(ctx, params)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("Category")
		}
		return nil, apperrors.Database(err)
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, familyID, id string, params model.UpdateCategoryParams) (*model.Category, error) {
	if params.Name != nil && *params.Name == "" {
		return nil, apperrors.InvalidInput("name", "must not be empty")
	}

	category, err := s.categoryRepo.Update(ctx, familyID, id, params)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.AlreadyExists("Category")
		}
		return nil, apperrors.Database(err)
	}
	if category == nil {
		return nil, apperrors.NotFound("Category")
	}
	return category, nil
}

func (s *CategoryService) Archive(ctx context.Context, familyID, id string) (*model.Category, error) {
	category, err := s.categoryRepo.Archive(ctx, familyID, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if category == nil {
		return nil, apperrors.NotFound("Category")
	}
	return category, nil
}
