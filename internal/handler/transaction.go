package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fambudget/budget-server-go/internal/audit"
	apperrors "github.com/fambudget/budget-server-go/internal/errors"
	"github.com/fambudget/budget-server-go/internal/middleware"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/service"
)

const importMaxUploadBytes = 5 << 20 // 5MB

type TransactionHandler struct {
	transactionService *service.TransactionService
}

func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

func (h *TransactionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/import", h.ImportCSV)
	r.Get("/{transactionID}", h.Get)
	r.Put("/{transactionID}", h.Update)
	r.Delete("/{transactionID}", h.Delete)

	return r
}

// GET /api/transactions
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	pagination := ParsePagination(r)

	filter, err := parseTransactionFilter(r)
	if err != nil {
		respondError(w, err)
		return
	}

	page, err := h.transactionService.List(r.Context(), user.FamilyID, filter, pagination.Limit, pagination.Offset)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, page)
}

func parseTransactionFilter(r *http.Request) (model.TransactionFilter, error) {
	q := r.URL.Query()
	filter := model.TransactionFilter{
		AccountID:  q.Get("accountId"),
		CategoryID: q.Get("categoryId"),
	}

	if kind := q.Get("kind"); kind != "" {
		k := model.CategoryKind(kind)
		if !k.Valid() {
			return filter, apperrors.InvalidInput("kind", "must be INCOME or EXPENSE")
		}
		filter.Kind = k
	}

	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return filter, apperrors.InvalidInput("from", "must be YYYY-MM-DD")
		}
		filter.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return filter, apperrors.InvalidInput("to", "must be YYYY-MM-DD")
		}
		filter.To = &t
	}

	return filter, nil
}

// GET /api/transactions/{transactionID}
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	txn, err := h.transactionService.Get(r.Context(), user.FamilyID, chi.URLParam(r, "transactionID"))
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, txn)
}

type createTransactionRequest struct {
	AccountID   string  `json:"accountId"`
	CategoryID  *string `json:"categoryId"`
	AmountCents int64   `json:"amountCents"`
	OccurredOn  string  `json:"occurredOn"`
	Note        string  `json:"note"`
}

// POST /api/transactions
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	occurredOn, err := parseDate(req.OccurredOn, "occurredOn")
	if err != nil {
		respondError(w, err)
		return
	}

	txn, err := h.transactionService.Create(r.Context(), user.FamilyID, model.CreateTransactionParams{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		AmountCents: req.AmountCents,
		OccurredOn:  occurredOn,
		Note:        req.Note,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusCreated, txn)
}

type updateTransactionRequest struct {
	AccountID   *string `json:"accountId"`
	CategoryID  *string `json:"categoryId"`
	AmountCents *int64  `json:"amountCents"`
	OccurredOn  *string `json:"occurredOn"`
	Note        *string `json:"note"`
}

// PUT /api/transactions/{transactionID}
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req updateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	params := model.UpdateTransactionParams{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		AmountCents: req.AmountCents,
		Note:        req.Note,
	}
	if req.OccurredOn != nil {
		occurredOn, err := parseDate(*req.OccurredOn, "occurredOn")
		if err != nil {
			respondError(w, err)
			return
		}
		params.OccurredOn = &occurredOn
	}

	txn, err := h.transactionService.Update(r.Context(), user.FamilyID, chi.URLParam(r, "transactionID"), params)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, txn)
}

// DELETE /api/transactions/{transactionID}
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := h.transactionService.Delete(r.Context(), user.FamilyID, chi.URLParam(r, "transactionID")); err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]string{"message": "Transaction deleted"})
}

// POST /api/transactions/import (multipart form: accountId, file)
func (h *TransactionHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := r.ParseMultipartForm(importMaxUploadBytes); err != nil {
		respondError(w, apperrors.ValidationError("Expected a multipart form upload"))
		return
	}

	accountID := r.FormValue("accountId")
	if accountID == "" {
		respondError(w, apperrors.MissingRequired("accountId"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, apperrors.MissingRequired("file"))
		return
	}
	defer file.Close()

	result, err := h.transactionService.ImportCSV(r.Context(), user.FamilyID, accountID, file)
	if err != nil {
		respondError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventImportComplete,
		UserID:   user.ID,
		FamilyID: user.FamilyID,
		Details: map[string]interface{}{
			"importId": result.ImportID,
			"imported": result.Imported,
			"skipped":  result.Skipped,
		},
	})

	respond(w, http.StatusOK, result)
}

func parseDate(s, field string) (time.Time, error) {
	if s == "" {
		return time.Time{}, apperrors.MissingRequired(field)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(field, "must be YYYY-MM-DD")
	}
	return t, nil
}
