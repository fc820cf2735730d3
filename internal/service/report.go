package service

import (
	"context"

	apperrors "github.com/fambudget/budget-server-go/internal/errors"
	"github.com/fambudget/budget-server-go/internal/repository"
	"github.com/fambudget/budget-server-go/internal/util"
)

// MonthlyReport is the dashboard payload: totals, per-category split
// and current account balances for one month.
type MonthlyReport struct {
	Summary         *repository.MonthlySummary  `json:"summary"`
	Categories      []repository.CategoryTotal  `json:"categories"`
	AccountBalances []repository.AccountBalance `json:"accountBalances"`
}

type ReportService struct {
	reportRepo repository.ReportRepository
}

func NewReportService(reportRepo repository.ReportRepository) *ReportService {
	return &ReportService{reportRepo: reportRepo}
}

func (s *ReportService) Monthly(ctx context.Context, familyID, month string) (*MonthlyReport, error) {
	if !util.IsValidMonth(month) {
		return nil, apperrors.InvalidInput("month", "must be YYYY-MM")
	}

	summary, err := s.reportRepo.MonthlySummary(ctx, familyID, month)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	categories, err := s.reportRepo.CategoryTotals(ctx, familyID, month)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	balances, err := s.reportRepo.AccountBalances(ctx, familyID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &MonthlyReport{
		Summary:         summary,
		Categories:      categories,
		AccountBalances: balances,
	}, nil
}

func (s *ReportService) Balances(ctx context.Context, familyID string) ([]repository.AccountBalance, error) {
	balances, err := s.reportRepo.AccountBalances(ctx, familyID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return balances, nil
}
