package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/fambudget/budget-server-go/internal/errors"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/util"
)

// AccessClaims is the payload of a signed access token. The user id
// travels in the registered Subject claim.
type AccessClaims struct {
	jwt.RegisteredClaims
	FamilyID string     `json:"fid"`
	Role     model.Role `json:"role"`
}

// TokenService issues and verifies stateless HS256 access tokens and
// generates/hashes opaque refresh secrets.
type TokenService struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewTokenService(secret string, accessTTL time.Duration) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

func (s *TokenService) IssueAccessToken(userID, familyID string, role model.Role) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		FamilyID: familyID,
		Role:     role,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken checks signature and expiry. Any failure comes back
// as UNAUTHORIZED; no parse detail crosses this boundary.
func (s *TokenService) VerifyAccessToken(signed string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	token, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, apperrors.Unauthorized("Invalid or expired access token").WithCause(err)
	}
	if claims.Subject == "" {
		return nil, apperrors.Unauthorized("Invalid or expired access token")
	}

	return claims, nil
}

// IssueRefreshSecret generates the raw refresh secret handed to the
// client. Only its hash is ever stored.
func (s *TokenService) IssueRefreshSecret() (string, error) {
	return util.GenerateSecret()
}

// HashRefreshSecret is deterministic so stored sessions can be looked
// up by exact hash match.
func (s *TokenService) HashRefreshSecret(secret string) string {
	return util.HashSecret(secret)
}
