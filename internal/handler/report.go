package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fambudget/budget-server-go/internal/middleware"
	"github.com/fambudget/budget-server-go/internal/service"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/monthly", h.Monthly)
	r.Get("/balances", h.Balances)

	return r
}

// GET /api/reports/monthly?month=YYYY-MM (defaults to the current month)
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	report, err := h.reportService.Monthly(r.Context(), user.FamilyID, month)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, report)
}

// GET /api/reports/balances
func (h *ReportHandler) Balances(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	balances, err := h.reportService.Balances(r.Context(), user.FamilyID)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, balances)
}
