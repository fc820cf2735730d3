package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fambudget/budget-server-go/internal/middleware"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/service"
)

type BudgetHandler struct {
	budgetService *service.BudgetService
}

func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

func (h *BudgetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListByMonth)
	r.Put("/", h.Upsert)
	r.Delete("/{budgetID}", h.Delete)

	return r
}

// GET /api/budgets?month=YYYY-MM (defaults to the current month)
func (h *BudgetHandler) ListByMonth(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	budgets, err := h.budgetService.ListByMonth(r.Context(), user.FamilyID, month)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, budgets)
}

type upsertBudgetRequest struct {
	CategoryID string `json:"categoryId"`
	Month      string `json:"month"`
	LimitCents int64  `json:"limitCents"`
}

// PUT /api/budgets
func (h *BudgetHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req upsertBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	budget, err := h.budgetService.Upsert(r.Context(), user.FamilyID, model.UpsertBudgetParams{
		CategoryID: req.CategoryID,
		Month:      req.Month,
		LimitCents: req.LimitCents,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, budget)
}

// DELETE /api/budgets/{budgetID}
func (h *BudgetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	if err := h.budgetService.Delete(r.Context(), user.FamilyID, chi.URLParam(r, "budgetID")); err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]string{"message": "Budget deleted"})
}
