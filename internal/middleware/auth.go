package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/fambudget/budget-server-go/internal/errors"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/repository"
	"github.com/fambudget/budget-server-go/internal/service"
)

type contextKey string

const UserContextKey contextKey = "user"

func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware verifies the Bearer access token and loads the current
// user into the request context. The token is stateless; the user row
// is loaded so disabled accounts are rejected even before the token
// expires naturally.
type AuthMiddleware struct {
	tokens   *service.TokenService
	userRepo repository.UserRepository
}

func NewAuthMiddleware(tokens *service.TokenService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, userRepo: userRepo}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeError(w, apperrors.Unauthorized("Missing access token"))
			return
		}

		claims, err := m.tokens.VerifyAccessToken(token)
		if err != nil {
			log.Warn().Msg("auth middleware: invalid access token")
			writeError(w, apperrors.Unauthorized("Invalid or expired access token"))
			return
		}

		user, err := m.userRepo.FindByID(r.Context(), claims.Subject)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: database error")
			writeError(w, apperrors.Internal("Authentication failed"))
			return
		}

		if user == nil || user.Status != model.UserStatusActive {
			writeError(w, apperrors.Unauthorized("Invalid or expired access token"))
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
