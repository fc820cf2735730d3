package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fambudget/budget-server-go/internal/middleware"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/service"
)

type CategoryHandler struct {
	categoryService *service.CategoryService
}

func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

func (h *CategoryHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{categoryID}", h.Update)
	r.Delete("/{categoryID}", h.Archive)

	return r
}

// GET /api/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	includeArchived := r.URL.Query().Get("includeArchived") == "true"

	categories, err := h.categoryService.List(r.Context(), user.FamilyID, includeArchived)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, categories)
}

type createCategoryRequest struct {
	Name  string             `json:"name"`
	Kind  model.CategoryKind `json:"kind"`
	Color string             `json:"color"`
}

// POST /api/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	category, err := h.categoryService.Create(r.Context(), user.FamilyID, model.CreateCategoryParams{
		Name:  req.Name,
		Kind:  req.Kind,
		Color: req.Color,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusCreated, category)
}

type updateCategoryRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// PUT /api/categories/{categoryID}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req updateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	category, err := h.categoryService.Update(r.Context(), user.FamilyID, chi.URLParam(r, "categoryID"), model.UpdateCategoryParams{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, category)
}

// DELETE /api/categories/{categoryID}
func (h *CategoryHandler) Archive(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	category, err := h.categoryService.Archive(r.Context(), user.FamilyID, chi.URLParam(r, "categoryID"))
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, category)
}
