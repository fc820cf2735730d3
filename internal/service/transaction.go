package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	apperrors "github.com/fambudget/budget-server-go/internal/errors"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/repository"
)

const importMaxRows = 10000

type TransactionService struct {
	db              txRunner
	transactionRepo repository.TransactionRepository
	accountRepo     repository.AccountRepository
	categoryRepo    repository.CategoryRepository
}

func NewTransactionService(
	db txRunner,
	transactionRepo repository.TransactionRepository,
	accountRepo repository.AccountRepository,
	categoryRepo repository.CategoryRepository,
) *TransactionService {
	return &TransactionService{
		db:              db,
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		categoryRepo:    categoryRepo,
	}
}

type TransactionPage struct {
	Items  []model.Transaction `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

func (s *TransactionService) List(ctx context.Context, familyID string, filter model.TransactionFilter, limit, offset int) (*TransactionPage, error) {
	items, err := s.transactionRepo.List(ctx, familyID, filter, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	total, err := s.transactionRepo.Count(ctx, familyID, filter)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &TransactionPage{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

func (s *TransactionService) Get(ctx context.Context, familyID, id string) (*model.Transaction, error) {
	txn, err := s.transactionRepo.FindByID(ctx, familyID, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if txn == nil {
		return nil, apperrors.NotFound("Transaction")
	}
	return txn, nil
}

func (s *TransactionService) Create(ctx context.Context, familyID string, params model.CreateTransactionParams) (*model.Transaction, error) {
	if params.AccountID == "" {
		return nil, apperrors.MissingRequired("accountId")
	}
	if params.AmountCents == 0 {
		return nil, apperrors.InvalidInput("amountCents", "must not be zero")
	}
	if params.OccurredOn.IsZero() {
		return nil, apperrors.MissingRequired("occurredOn")
	}

	if err := s.checkAccount(ctx, familyID, params.AccountID); err != nil {
		return nil, err
	}
	if params.CategoryID != nil {
		if err := s.checkCategory(ctx, familyID, *params.CategoryID); err != nil {
			return nil, err
		}
	}

	params.FamilyID = familyID
	txn, err := s.transactionRepo.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return txn, nil
}

func (s *TransactionService) Update(ctx context.Context, familyID, id string, params model.UpdateTransactionParams) (*model.Transaction, error) {
	if params.AmountCents != nil && *params.AmountCents == 0 {
		return nil, apperrors.InvalidInput("amountCents", "must not be zero")
	}
	if params.AccountID != nil {
		if err := s.checkAccount(ctx, familyID, *params.AccountID); err != nil {
			return nil, err
		}
	}
	if params.CategoryID != nil && *params.CategoryID != "" {
		if err := s.checkCategory(ctx, familyID, *params.CategoryID); err != nil {
			return nil, err
		}
	}

	txn, err := s.transactionRepo.Update(ctx, familyID, id, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if txn == nil {
		return nil, apperrors.NotFound("Transaction")
	}
	return txn, nil
}

func (s *TransactionService) Delete(ctx context.Context, familyID, id string) error {
	deleted, err := s.transactionRepo.SoftDelete(ctx, familyID, id)
	if err != nil {
		return apperrors.Database(err)
	}
	if !deleted {
		return apperrors.NotFound("Transaction")
	}
	return nil
}

func (s *TransactionService) checkAccount(ctx context.Context, familyID, accountID string) error {
	account, err := s.accountRepo.FindByID(ctx, familyID, accountID)
	if err != nil {
		return apperrors.Database(err)
	}
	if account == nil {
		return apperrors.NotFound("Account")
	}
	if account.ArchivedAt != nil {
		return apperrors.ValidationError("Account is archived")
	}
	return nil
}

func (s *TransactionService) checkCategory(ctx context.Context, familyID, categoryID string) error {
	category, err := s.categoryRepo.FindByID(ctx, familyID, categoryID)
	if err != nil {
		return apperrors.Database(err)
	}
	if category == nil {
		return apperrors.NotFound("Category")
	}
	return nil
}

// CSV import

type ImportRowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	ImportID string           `json:"importId"`
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

type importRow struct {
	line         int
	amountCents  int64
	occurredOn   time.Time
	categoryName string
	note         string
}

// ImportCSV reads a `date,amount,category,note` CSV into the given
// account. Valid rows are inserted in a single transaction; rows that
// fail to parse are reported back with their line number and skipped.
func (s *TransactionService) ImportCSV(ctx context.Context, familyID, accountID string, r io.Reader) (*ImportResult, error) {
	if err := s.checkAccount(ctx, familyID, accountID); err != nil {
		return nil, err
	}

	rows, rowErrors, err := parseImportCSV(r)
	if err != nil {
		return nil, err
	}

	importID := uuid.NewString()
	result := &ImportResult{
		ImportID: importID,
		Skipped:  len(rowErrors),
		Errors:   rowErrors,
	}
	if len(rows) == 0 {
		return result, nil
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		transactions := s.transactionRepo.WithTx(tx)
		categories := s.categoryRepo.WithTx(tx)

		// Category names seen during this import, resolved at most once.
		resolved := make(map[string]*string)

		for _, row := range rows {
			categoryID, err := s.resolveCategory(ctx, categories, resolved, familyID, row)
			if err != nil {
				return err
			}

			_, err = transactions.Create(ctx, model.CreateTransactionParams{
				FamilyID:    familyID,
				AccountID:   accountID,
				CategoryID:  categoryID,
				AmountCents: row.amountCents,
				OccurredOn:  row.occurredOn,
				Note:        row.note,
				ImportID:    &importID,
			})
			if err != nil {
				return fmt.Errorf("insert row %d: %w", row.line, err)
			}
			result.Imported++
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("familyId", familyID).
		Str("accountId", accountID).
		Str("importId", importID).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("csv import completed")

	return result, nil
}

func (s *TransactionService) resolveCategory(
	ctx context.Context,
	categories repository.CategoryRepository,
	resolved map[string]*string,
	familyID string,
	row importRow,
) (*string, error) {
	if row.categoryName == "" {
		return nil, nil
	}

	kind := model.CategoryKindExpense
	if row.amountCents >= 0 {
		kind = model.CategoryKindIncome
	}

	cacheKey := strings.ToLower(row.categoryName) + ":" + string(kind)
	if id, ok := resolved[cacheKey]; ok {
		return id, nil
	}

	category, err := categories.FindByName(ctx, familyID, row.categoryName, kind)
	if err != nil {
		return nil, fmt.Errorf("find category %q: %w", row.categoryName, err)
	}
	if category == nil {
		category, err = categories.Create(ctx, model.CreateCategoryParams{
			FamilyID: familyID,
			Name:     row.categoryName,
			Kind:     kind,
		})
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", row.categoryName, err)
		}
	}

	resolved[cacheKey] = &category.ID
	return &category.ID, nil
}

func parseImportCSV(r io.Reader) ([]importRow, []ImportRowError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Rows may omit trailing category/note columns.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, apperrors.ValidationError("CSV is empty or unreadable")
	}
	if !validImportHeader(header) {
		return nil, nil, apperrors.ValidationError("CSV header must be: date,amount,category,note")
	}

	var rows []importRow
	var rowErrors []ImportRowError

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rowErrors = append(rowErrors, ImportRowError{Line: line, Reason: "malformed CSV row"})
			continue
		}
		if len(rows) >= importMaxRows {
			return nil, nil, apperrors.ValidationError(fmt.Sprintf("CSV exceeds %d rows", importMaxRows))
		}

		row, reason := parseImportRecord(line, record)
		if reason != "" {
			rowErrors = append(rowErrors, ImportRowError{Line: line, Reason: reason})
			continue
		}
		rows = append(rows, row)
	}

	return rows, rowErrors, nil
}

func validImportHeader(header []string) bool {
	if len(header) < 2 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(header[0]), "date") &&
		strings.EqualFold(strings.TrimSpace(header[1]), "amount")
}

func parseImportRecord(line int, record []string) (importRow, string) {
	if len(record) < 2 {
		return importRow{}, "expected at least date and amount"
	}

	occurredOn, err := time.Parse("2006-01-02", strings.TrimSpace(record[0]))
	if err != nil {
		return importRow{}, "invalid date, expected YYYY-MM-DD"
	}

	amountCents, err := parseAmountCents(strings.TrimSpace(record[1]))
	if err != nil {
		return importRow{}, "invalid amount"
	}
	if amountCents == 0 {
		return importRow{}, "amount must not be zero"
	}

	row := importRow{
		line:        line,
		amountCents: amountCents,
		occurredOn:  occurredOn,
	}
	if len(record) > 2 {
		row.categoryName = strings.TrimSpace(record[2])
	}
	if len(record) > 3 {
		row.note = strings.TrimSpace(record[3])
	}
	return row, ""
}

// parseAmountCents converts a decimal amount like "-12.30" to integer
// cents without going through floating point.
func parseAmountCents(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("more than two decimal places")
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}

	wholeCents, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}
	fracCents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, err
	}

	cents := wholeCents*100 + fracCents
	if negative {
		cents = -cents
	}
	return cents, nil
}
