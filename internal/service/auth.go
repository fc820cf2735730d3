package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/fambudget/budget-server-go/internal/database"
	apperrors "github.com/fambudget/budget-server-go/internal/errors"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/repository"
	"github.com/fambudget/budget-server-go/internal/util"
)

// AuthResult is returned by Register and Login: the public user row plus
// a fresh token pair. RefreshToken is the raw secret, shown exactly once.
type AuthResult struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// TokenPair is returned by Refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RegisterParams struct {
	Email       string
	Password    string
	DisplayName string
	FamilyName  string
}

// txRunner abstracts database.DB.WithTx so tests can supply a fake.
type txRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

type AuthService struct {
	db          txRunner
	userRepo    repository.UserRepository
	familyRepo  repository.FamilyRepository
	sessionRepo repository.RefreshSessionRepository
	hasher      *PasswordHasher
	tokens      *TokenService
	guard       *LoginAttemptGuard
	refreshTTL  time.Duration
	now         func() time.Time
}

func NewAuthService(
	db txRunner,
	userRepo repository.UserRepository,
	familyRepo repository.FamilyRepository,
	sessionRepo repository.RefreshSessionRepository,
	hasher *PasswordHasher,
	tokens *TokenService,
	guard *LoginAttemptGuard,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		db:          db,
		userRepo:    userRepo,
		familyRepo:  familyRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		tokens:      tokens,
		guard:       guard,
		refreshTTL:  refreshTTL,
		now:         time.Now,
	}
}

// Register creates a family and its first (admin) user, then issues a
// token pair. Email uniqueness is case-insensitive.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	email := util.NormalizeEmail(params.Email)
	if !util.IsValidEmail(email) {
		return nil, apperrors.ValidationError("A valid email is required")
	}
	if ok, reason := util.ValidatePassword(params.Password); !ok {
		return nil, apperrors.ValidationError(fmt.Sprintf("Password %s", reason))
	}
	if params.DisplayName == "" {
		return nil, apperrors.ValidationError("Display name is required")
	}
	familyName := params.FamilyName
	if familyName == "" {
		familyName = params.DisplayName
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.UserExists()
	}

	passwordHash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to process password").WithCause(err)
	}

	var user *model.User
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		family, err := s.familyRepo.WithTx(tx).Create(ctx, familyName)
		if err != nil {
			return fmt.Errorf("create family: %w", err)
		}

		user, err = s.userRepo.WithTx(tx).Create(ctx, model.CreateUserParams{
			FamilyID:     family.ID,
			Email:        email,
			PasswordHash: passwordHash,
			DisplayName:  params.DisplayName,
			Role:         model.RoleAdmin,
			Status:       model.UserStatusActive,
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		// Two concurrent registrations can both pass the FindByEmail
		// check; the unique index is the backstop.
		if isUniqueViolation(err) {
			return nil, apperrors.UserExists()
		}
		return nil, apperrors.Database(err)
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("userId", user.ID).
		Str("familyId", user.FamilyID).
		Str("email", util.MaskEmail(email)).
		Msg("user registered")

	return result, nil
}

// Login verifies credentials under the lockout policy. The attempt key
// is the normalized email so shared NAT addresses cannot lock each
// other out; the edge IP rate limiter is a separate layer.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	key := util.NormalizeEmail(email)

	if s.guard.IsLocked(key) {
		log.Warn().Str("email", util.MaskEmail(key)).Msg("login rejected: account locked")
		return nil, apperrors.AccountLocked()
	}

	user, err := s.userRepo.FindByEmail(ctx, key)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	if user == nil || !s.hasher.Verify(password, user.PasswordHash) {
		s.guard.RecordFailure(key)
		log.Warn().Str("email", util.MaskEmail(key)).Msg("login failed: invalid credentials")
		return nil, apperrors.InvalidCredentials()
	}

	s.guard.RecordSuccess(key)

	if user.Status != model.UserStatusActive {
		log.Warn().Str("userId", user.ID).Str("status", string(user.Status)).Msg("login rejected: account not active")
		return nil, apperrors.AccountDisabled()
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	log.Info().Str("userId", user.ID).Msg("login succeeded")

	return result, nil
}

// Refresh rotates the refresh session: the presented secret is consumed
// and a brand-new session plus access token are issued. The revoke is a
// conditional update, so two concurrent calls with the same secret get
// exactly one success; the loser sees TOKEN_REVOKED.
func (s *AuthService) Refresh(ctx context.Context, rawSecret string) (*TokenPair, error) {
	if rawSecret == "" {
		return nil, apperrors.InvalidToken("Refresh token is required")
	}

	tokenHash := s.tokens.HashRefreshSecret(rawSecret)

	session, err := s.sessionRepo.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.InvalidToken("Unknown refresh token")
	}
	if session.RevokedAt != nil {
		log.Warn().Str("sessionId", session.ID).Msg("refresh rejected: token already revoked")
		return nil, apperrors.TokenRevoked()
	}
	if !s.now().Before(session.ExpiresAt) {
		return nil, apperrors.InvalidToken("Refresh token has expired")
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.InvalidToken("Unknown refresh token")
	}
	if user.Status != model.UserStatusActive {
		return nil, apperrors.AccountDisabled()
	}

	newSecret, err := s.tokens.IssueRefreshSecret()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate refresh token").WithCause(err)
	}

	rotated := false
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		sessions := s.sessionRepo.WithTx(tx)

		revoked, err := sessions.Revoke(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
		if !revoked {
			// Lost the race against a concurrent rotation.
			return nil
		}

		_, err = sessions.Create(ctx, model.CreateRefreshSessionParams{
			UserID:    user.ID,
			TokenHash: s.tokens.HashRefreshSecret(newSecret),
			ExpiresAt: s.now().Add(s.refreshTTL),
		})
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		rotated = true
		return nil
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if !rotated {
		return nil, apperrors.TokenRevoked()
	}

	accessToken, err := s.tokens.IssueAccessToken(user.ID, user.FamilyID, user.Role)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue access token").WithCause(err)
	}

	log.Info().Str("userId", user.ID).Str("sessionId", session.ID).Msg("refresh session rotated")

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newSecret,
	}, nil
}

// Logout revokes the refresh session matching the secret. Revoking an
// already-revoked or unknown session is a no-op, so logout is
// idempotent. Outstanding access tokens stay valid until expiry.
func (s *AuthService) Logout(ctx context.Context, userID, rawSecret string) error {
	if rawSecret == "" {
		return nil
	}

	tokenHash := s.tokens.HashRefreshSecret(rawSecret)

	session, err := s.sessionRepo.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return apperrors.Database(err)
	}
	if session == nil || session.UserID != userID || session.RevokedAt != nil {
		return nil
	}

	if _, err := s.sessionRepo.Revoke(ctx, session.ID); err != nil {
		return apperrors.Database(err)
	}

	log.Info().Str("userId", userID).Str("sessionId", session.ID).Msg("logout: refresh session revoked")

	return nil
}

// ChangePassword verifies the current password before storing the new
// hash, then revokes every refresh session the user holds so sessions
// issued under the old password die with it. Outstanding access tokens
// stay valid until expiry.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return apperrors.Database(err)
	}
	if user == nil {
		return apperrors.Unauthorized("Unknown user")
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		log.Warn().Str("userId", userID).Msg("password change rejected: wrong current password")
		return apperrors.InvalidCredentials()
	}

	if ok, reason := util.ValidatePassword(newPassword); !ok {
		return apperrors.ValidationError(fmt.Sprintf("Password %s", reason))
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.Internal("Failed to process password").WithCause(err)
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, userID, passwordHash); err != nil {
		return apperrors.Database(err)
	}

	revoked, err := s.sessionRepo.RevokeAllForUser(ctx, userID)
	if err != nil {
		return apperrors.Database(err)
	}

	log.Info().Str("userId", userID).Int64("sessionsRevoked", revoked).Msg("password changed")

	return nil
}

// Me returns the public profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if user == nil {
		return nil, apperrors.Unauthorized("Unknown user")
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User) (*AuthResult, error) {
	accessToken, err := s.tokens.IssueAccessToken(user.ID, user.FamilyID, user.Role)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue access token").WithCause(err)
	}

	refreshSecret, err := s.tokens.IssueRefreshSecret()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate refresh token").WithCause(err)
	}

	_, err = s.sessionRepo.Create(ctx, model.CreateRefreshSessionParams{
		UserID:    user.ID,
		TokenHash: s.tokens.HashRefreshSecret(refreshSecret),
		ExpiresAt: s.now().Add(s.refreshTTL),
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshSecret,
	}, nil
}
