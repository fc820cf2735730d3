package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fambudget/budget-server-go/internal/audit"
	"github.com/fambudget/budget-server-go/internal/middleware"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/service"
)

type FamilyHandler struct {
	familyService *service.FamilyService
}

func NewFamilyHandler(familyService *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{familyService: familyService}
}

func (h *FamilyHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Get)
	r.Get("/members", h.ListMembers)
	r.Post("/members", h.Invite)
	r.Put("/members/{memberID}/role", h.ChangeRole)
	r.Post("/members/{memberID}/disable", h.Disable)

	return r
}

// GET /api/family
func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	family, err := h.familyService.Get(r.Context(), user.FamilyID)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, family)
}

// GET /api/family/members
func (h *FamilyHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	members, err := h.familyService.ListMembers(r.Context(), user.FamilyID)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, members)
}

type inviteRequest struct {
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	TempPassword string `json:"tempPassword"`
}

// POST /api/family/members
func (h *FamilyHandler) Invite(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	member, err := h.familyService.Invite(r.Context(), user, req.Email, req.DisplayName, req.TempPassword)
	if err != nil {
		respondError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventMemberInvite,
		UserID:   user.ID,
		FamilyID: user.FamilyID,
		Details:  map[string]interface{}{"memberId": member.ID},
	})

	respond(w, http.StatusCreated, member)
}

type changeRoleRequest struct {
	Role model.Role `json:"role"`
}

// PUT /api/family/members/{memberID}/role
func (h *FamilyHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	memberID := chi.URLParam(r, "memberID")

	var req changeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	member, err := h.familyService.ChangeRole(r.Context(), user, memberID, req.Role)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, member)
}

// POST /api/family/members/{memberID}/disable
func (h *FamilyHandler) Disable(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	memberID := chi.URLParam(r, "memberID")

	member, err := h.familyService.Disable(r.Context(), user, memberID)
	if err != nil {
		respondError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventMemberDisable,
		UserID:   user.ID,
		FamilyID: user.FamilyID,
		Details:  map[string]interface{}{"memberId": memberID},
	})

	respond(w, http.StatusOK, member)
}
