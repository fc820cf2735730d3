package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fambudget/budget-server-go/internal/database"
	"github.com/fambudget/budget-server-go/internal/middleware"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/repository"
	"github.com/fambudget/budget-server-go/internal/service"
)

type fakeTxRunner struct{}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type memUserRepo struct {
	byID    map[string]*model.User
	byEmail map[string]*model.User
	nextID  int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (m *memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.byID[id], nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.byEmail[email], nil
}

func (m *memUserRepo) ListByFamily(ctx context.Context, familyID string) ([]model.User, error) {
	return nil, nil
}

func (m *memUserRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	m.nextID++
	user := &model.User{
		ID:           fmt.Sprintf("user-%d", m.nextID),
		FamilyID:     params.FamilyID,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		DisplayName:  params.DisplayName,
		Role:         params.Role,
		Status:       params.Status,
	}
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user
	return user, nil
}

func (m *memUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	return m.byID[id], nil
}

func (m *memUserRepo) UpdateStatus(ctx context.Context, id string, status model.UserStatus) (*model.User, error) {
	return m.byID[id], nil
}

func (m *memUserRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	if user := m.byID[id]; user != nil {
		user.PasswordHash = passwordHash
	}
	return nil
}

func (m *memUserRepo) WithTx(tx *sqlx.Tx) repository.UserRepository { return m }

type memFamilyRepo struct {
	nextID int
}

func (m *memFamilyRepo) FindByID(ctx context.Context, id string) (*model.Family, error) {
	return &model.Family{ID: id, Name: "Test Family"}, nil
}

func (m *memFamilyRepo) Create(ctx context.Context, name string) (*model.Family, error) {
	m.nextID++
	return &model.Family{ID: fmt.Sprintf("family-%d", m.nextID), Name: name}, nil
}

func (m *memFamilyRepo) WithTx(tx *sqlx.Tx) repository.FamilyRepository { return m }

type memSessionRepo struct {
	byID   map[string]*model.RefreshSession
	byHash map[string]*model.RefreshSession
	nextID int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		byID:   make(map[string]*model.RefreshSession),
		byHash: make(map[string]*model.RefreshSession),
	}
}

func (m *memSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshSession, error) {
	return m.byHash[tokenHash], nil
}

func (m *memSessionRepo) Create(ctx context.Context, params model.CreateRefreshSessionParams) (*model.RefreshSession, error) {
	m.nextID++
	session := &model.RefreshSession{
		ID:        fmt.Sprintf("session-%d", m.nextID),
		UserID:    params.UserID,
		TokenHash: params.TokenHash,
		IssuedAt:  time.Now(),
		ExpiresAt: params.ExpiresAt,
	}
	m.byID[session.ID] = session
	m.byHash[session.TokenHash] = session
	return session, nil
}

func (m *memSessionRepo) Revoke(ctx context.Context, id string) (bool, error) {
	session, exists := m.byID[id]
	if !exists || session.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	session.RevokedAt = &now
	return true, nil
}

func (m *memSessionRepo) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	for _, session := range m.byID {
		if session.UserID == userID && session.RevokedAt == nil {
			now := time.Now()
			session.RevokedAt = &now
			count++
		}
	}
	return count, nil
}

func (m *memSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *memSessionRepo) WithTx(tx *sqlx.Tx) repository.RefreshSessionRepository { return m }

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAuthRouter(t *testing.T) chi.Router {
	t.Helper()

	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	hasher := service.NewPasswordHasher(4)
	tokens := service.NewTokenService("test-secret-0123456789abcdef0123456789ab", 15*time.Minute)
	guard := service.NewLoginAttemptGuard(5, 60*time.Second)

	authService := service.NewAuthService(
		&fakeTxRunner{}, users, &memFamilyRepo{}, sessions,
		hasher, tokens, guard, 30*24*time.Hour,
	)
	authMiddleware := middleware.NewAuthMiddleware(tokens, users)

	passthrough := func(next http.Handler) http.Handler { return next }
	authHandler := NewAuthHandler(authService, authMiddleware.Handler, passthrough)

	r := chi.NewRouter()
	r.Mount("/auth", authHandler.Routes())
	return r
}

func doJSON(t *testing.T, router chi.Router, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

type authResponse struct {
	User struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Role     string `json:"role"`
		FamilyID string `json:"familyId"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func register(t *testing.T, router chi.Router, email string) authResponse {
	t.Helper()

	rec, env := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"email":       email,
		"password":    "Passw0rd",
		"displayName": "Alice",
		"familyName":  "Smith Household",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Nil(t, env.Error)

	var result authResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	return result
}

func TestAuthRoutesRegister(t *testing.T) {
	t.Run("creates a family admin and returns tokens", func(t *testing.T) {
		router := newAuthRouter(t)

		result := register(t, router, "alice@example.com")
		assert.Equal(t, "alice@example.com", result.User.Email)
		assert.Equal(t, "ADMIN", result.User.Role)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
	})

	t.Run("duplicate email returns 409 USER_EXISTS", func(t *testing.T) {
		router := newAuthRouter(t)
		register(t, router, "alice@example.com")

		rec, env := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
			"email":       "alice@example.com",
			"password":    "Passw0rd",
			"displayName": "Other Alice",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "USER_EXISTS", env.Error.Code)
	})

	t.Run("weak password returns 400 VALIDATION_ERROR", func(t *testing.T) {
		router := newAuthRouter(t)

		rec, env := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
			"email":       "alice@example.com",
			"password":    "short",
			"displayName": "Alice",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})

	t.Run("unknown body field returns 400", func(t *testing.T) {
		router := newAuthRouter(t)

		rec, _ := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
			"email":    "alice@example.com",
			"password": "Passw0rd",
			"unknown":  "field",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthRoutesLogin(t *testing.T) {
	t.Run("succeeds with correct credentials", func(t *testing.T) {
		router := newAuthRouter(t)
		register(t, router, "alice@example.com")

		rec, env := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "Passw0rd",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		require.Nil(t, env.Error)
	})

	t.Run("wrong password returns 401 INVALID_CREDENTIALS", func(t *testing.T) {
		router := newAuthRouter(t)
		register(t, router, "alice@example.com")

		rec, env := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
	})

	t.Run("lockout returns 429 with Retry-After", func(t *testing.T) {
		router := newAuthRouter(t)
		register(t, router, "alice@example.com")

		for i := 0; i < 5; i++ {
			rec, _ := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
				"email":    "alice@example.com",
				"password": "wrong",
			})
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
		}

		rec, env := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "Passw0rd",
		})
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		require.NotNil(t, env.Error)
		assert.Equal(t, "ACCOUNT_LOCKED", env.Error.Code)
	})
}

func TestAuthRoutesRefresh(t *testing.T) {
	t.Run("rotates and rejects the consumed secret", func(t *testing.T) {
		router := newAuthRouter(t)
		result := register(t, router, "alice@example.com")

		rec, env := doJSON(t, router, http.MethodPost, "/auth/refresh", "", map[string]string{
			"refreshToken": result.RefreshToken,
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		require.Nil(t, env.Error)

		var pair struct {
			AccessToken  string `json:"accessToken"`
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &pair))
		assert.NotEqual(t, result.RefreshToken, pair.RefreshToken)

		rec, env = doJSON(t, router, http.MethodPost, "/auth/refresh", "", map[string]string{
			"refreshToken": result.RefreshToken,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "TOKEN_REVOKED", env.Error.Code)
	})

	t.Run("unknown secret returns 401 INVALID_TOKEN", func(t *testing.T) {
		router := newAuthRouter(t)

		rec, env := doJSON(t, router, http.MethodPost, "/auth/refresh", "", map[string]string{
			"refreshToken": "unknown",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_TOKEN", env.Error.Code)
	})
}

func TestAuthRoutesChangePassword(t *testing.T) {
	t.Run("changes the password and revokes refresh sessions", func(t *testing.T) {
		router := newAuthRouter(t)
		result := register(t, router, "alice@example.com")

		rec, env := doJSON(t, router, http.MethodPost, "/auth/password", result.AccessToken, map[string]string{
			"currentPassword": "Passw0rd",
			"newPassword":     "NewPassw0rd",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		require.Nil(t, env.Error)

		// The refresh token issued before the change is dead.
		rec, env = doJSON(t, router, http.MethodPost, "/auth/refresh", "", map[string]string{
			"refreshToken": result.RefreshToken,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "TOKEN_REVOKED", env.Error.Code)

		// Old password no longer works, the new one does.
		rec, _ = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "Passw0rd",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec, _ = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "NewPassw0rd",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong current password returns 401 INVALID_CREDENTIALS", func(t *testing.T) {
		router := newAuthRouter(t)
		result := register(t, router, "alice@example.com")

		rec, env := doJSON(t, router, http.MethodPost, "/auth/password", result.AccessToken, map[string]string{
			"currentPassword": "WrongPassw0rd",
			"newPassword":     "NewPassw0rd",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
	})

	t.Run("requires authentication", func(t *testing.T) {
		router := newAuthRouter(t)

		rec, _ := doJSON(t, router, http.MethodPost, "/auth/password", "", map[string]string{
			"currentPassword": "Passw0rd",
			"newPassword":     "NewPassw0rd",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthRoutesMeAndLogout(t *testing.T) {
	t.Run("me returns the profile without the password hash", func(t *testing.T) {
		router := newAuthRouter(t)
		result := register(t, router, "alice@example.com")

		rec, env := doJSON(t, router, http.MethodGet, "/auth/me", result.AccessToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.Nil(t, env.Error)
		assert.NotContains(t, string(env.Data), "passwordHash")
		assert.NotContains(t, string(env.Data), "password_hash")
	})

	t.Run("me without a token returns 401", func(t *testing.T) {
		router := newAuthRouter(t)

		rec, env := doJSON(t, router, http.MethodGet, "/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
	})

	t.Run("logout revokes the refresh session but not the access token", func(t *testing.T) {
		router := newAuthRouter(t)
		result := register(t, router, "alice@example.com")

		rec, _ := doJSON(t, router, http.MethodPost, "/auth/logout", result.AccessToken, map[string]string{
			"refreshToken": result.RefreshToken,
		})
		assert.Equal(t, http.StatusOK, rec.Code)

		rec, env := doJSON(t, router, http.MethodPost, "/auth/refresh", "", map[string]string{
			"refreshToken": result.RefreshToken,
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "TOKEN_REVOKED", env.Error.Code)

		// Stateless access tokens stay valid until they expire.
		rec, _ = doJSON(t, router, http.MethodGet, "/auth/me", result.AccessToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		router := newAuthRouter(t)
		result := register(t, router, "alice@example.com")

		for i := 0; i < 2; i++ {
			rec, _ := doJSON(t, router, http.MethodPost, "/auth/logout", result.AccessToken, map[string]string{
				"refreshToken": result.RefreshToken,
			})
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	})
}
