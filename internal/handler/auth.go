package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fambudget/budget-server-go/internal/audit"
	apperrors "github.com/fambudget/budget-server-go/internal/errors"
	"github.com/fambudget/budget-server-go/internal/middleware"
	"github.com/fambudget/budget-server-go/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	requireAuth func(http.Handler) http.Handler
	strictLimit func(http.Handler) http.Handler
}

func NewAuthHandler(
	authService *service.AuthService,
	requireAuth func(http.Handler) http.Handler,
	strictLimit func(http.Handler) http.Handler,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		requireAuth: requireAuth,
		strictLimit: strictLimit,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(h.strictLimit)
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	r.Post("/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/me", h.Me)
		r.Post("/password", h.ChangePassword)
		r.Post("/logout", h.Logout)
	})

	return r
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	FamilyName  string `json:"familyName"`
}

// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterParams{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		FamilyName:  req.FamilyName,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventRegister,
		UserID:   result.User.ID,
		FamilyID: result.User.FamilyID,
	})

	respond(w, http.StatusCreated, result)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch apperrors.GetCode(err) {
		case apperrors.ErrCodeAccountLocked:
			w.Header().Set("Retry-After", "60")
			audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginLocked})
		case apperrors.ErrCodeInvalidCredentials:
			audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure})
		}
		respondError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventLoginSuccess,
		UserID:   result.User.ID,
		FamilyID: result.User.FamilyID,
	})

	respond(w, http.StatusOK, result)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if code := apperrors.GetCode(err); code == apperrors.ErrCodeTokenRevoked || code == apperrors.ErrCodeInvalidToken {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRefreshRejected})
		}
		respondError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventTokenRefresh})

	respond(w, http.StatusOK, pair)
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.authService.Logout(r.Context(), user.ID, req.RefreshToken); err != nil {
		respondError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventLogout,
		UserID:   user.ID,
		FamilyID: user.FamilyID,
	})

	respond(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// POST /auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.authService.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:     audit.EventPasswordChange,
		UserID:   user.ID,
		FamilyID: user.FamilyID,
	})

	respond(w, http.StatusOK, map[string]string{"message": "Password changed"})
}

// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	profile, err := h.authService.Me(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, profile)
}
