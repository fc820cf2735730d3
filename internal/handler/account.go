package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fambudget/budget-server-go/internal/middleware"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

func (h *AccountHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{accountID}", h.Get)
	r.Put("/{accountID}", h.Update)
	r.Delete("/{accountID}", h.Archive)

	return r
}

// GET /api/accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	includeArchived := r.URL.Query().Get("includeArchived") == "true"

	accounts, err := h.accountService.List(r.Context(), user.FamilyID, includeArchived)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, accounts)
}

// GET /api/accounts/{accountID}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	account, err := h.accountService.Get(r.Context(), user.FamilyID, chi.URLParam(r, "accountID"))
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, account)
}

type createAccountRequest struct {
	Name                string            `json:"name"`
	Type                model.AccountType `json:"type"`
	Currency            string            `json:"currency"`
	OpeningBalanceCents int64             `json:"openingBalanceCents"`
}

// POST /api/accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	account, err := h.accountService.Create(r.Context(), user.FamilyID, model.CreateAccountParams{
		Name:                req.Name,
		Type:                req.Type,
		Currency:            req.Currency,
		OpeningBalanceCents: req.OpeningBalanceCents,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusCreated, account)
}

type updateAccountRequest struct {
	Name                *string            `json:"name"`
	Type                *model.AccountType `json:"type"`
	Currency            *string            `json:"currency"`
	OpeningBalanceCents *int64             `json:"openingBalanceCents"`
}

// PUT /api/accounts/{accountID}
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	account, err := h.accountService.Update(r.Context(), user.FamilyID, chi.URLParam(r, "accountID"), model.UpdateAccountParams{
		Name:                req.Name,
		Type:                req.Type,
		Currency:            req.Currency,
		OpeningBalanceCents: req.OpeningBalanceCents,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, account)
}

// DELETE /api/accounts/{accountID}
func (h *AccountHandler) Archive(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	account, err := h.accountService.Archive(r.Context(), user.FamilyID, chi.URLParam(r, "accountID"))
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, account)
}
