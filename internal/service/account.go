package service

import (
	"context"

	apperrors "github.com/fambudget/budget-server-go/internal/errors"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/repository"
)

type AccountService struct {
	accountRepo repository.AccountRepository
}

func NewAccountService(accountRepo repository.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

func (s *AccountService) List(ctx context.Context, familyID string, includeArchived bool) ([]model.Account, error) {
	accounts, err := s.accountRepo.ListByFamily(ctx, familyID, includeArchived)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return accounts, nil
}

func (s *AccountService) Get(ctx context.Context, familyID, id string) (*model.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, familyID, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}
	return account, nil
}

func (s *AccountService) Create(ctx context.Context, familyID string, params model.CreateAccountParams) (*model.Account, error) {
	if params.Name == "" {
		return nil, apperrors.MissingRequired("name")
	}
	if !params.Type.Valid() {
		return nil, apperrors.InvalidInput("type", "must be one of CHECKING, SAVINGS, CASH, CREDIT_CARD")
	}
	if len(params.Currency) != 3 {
		return nil, apperrors.InvalidInput("currency", "must be a 3-letter ISO code")
	}

	params.FamilyID = familyID
	account, err := s.accountRepo.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return account, nil
}

func (s *AccountService) Update(ctx context.Context, familyID, id string, params model.UpdateAccountParams) (*model.Account, error) {
	if params.Type != nil && !params.Type.Valid() {
		return nil, apperrors.InvalidInput("type", "must be one of CHECKING, SAVINGS, CASH, CREDIT_CARD")
	}
	if params.Currency != nil && len(*params.Currency) != 3 {
		return nil, apperrors.InvalidInput("currency", "must be a 3-letter ISO code")
	}

	account, err := s.accountRepo.Update(ctx, familyID, id, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}
	return account, nil
}

// Archive soft-deletes the account; its transactions remain for reports.
func (s *AccountService) Archive(ctx context.Context, familyID, id string) (*model.Account, error) {
	account, err := s.accountRepo.Archive(ctx, familyID, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if account == nil {
		return nil, apperrors.NotFound("Account")
	}
	return account, nil
}
