package service

import (
	"context"

	"github.com/rs/zerolog/log"

	apperrors "github.com/fambudget/budget-server-go/internal/errors"
	"github.com/fambudget/budget-server-go/internal/model"
	"github.com/fambudget/budget-server-go/internal/repository"
	"github.com/fambudget/budget-server-go/internal/util"
)

type FamilyService struct {
	familyRepo  repository.FamilyRepository
	userRepo    repository.UserRepository
	sessionRepo repository.RefreshSessionRepository
	hasher      *PasswordHasher
}

func NewFamilyService(
	familyRepo repository.FamilyRepository,
	userRepo repository.UserRepository,
	sessionRepo repository.RefreshSessionRepository,
	hasher *PasswordHasher,
) *FamilyService {
	return &FamilyService{
		familyRepo:  familyRepo,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
	}
}

func (s *FamilyService) Get(ctx context.Context, familyID string) (*model.Family, error) {
	family, err := s.familyRepo.FindByID(ctx, familyID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if family == nil {
		return nil, apperrors.NotFound("Family")
	}
	return family, nil
}

func (s *FamilyService) ListMembers(ctx context.Context, familyID string) ([]model.User, error) {
	members, err := s.userRepo.ListByFamily(ctx, familyID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return members, nil
}

// Invite creates an active member with a temporary password chosen by
// the admin. The invitee logs in with it and is expected to change it;
// only ADMIN callers may invite.
func (s *FamilyService) Invite(ctx context.Context, caller *model.User, email, displayName, tempPassword string) (*model.User, error) {
	if caller.Role != model.RoleAdmin {
		return nil, apperrors.Forbidden("Only admins can invite members")
	}

	email = util.NormalizeEmail(email)
	if !util.IsValidEmail(email) {
		return nil, apperrors.ValidationError("A valid email is required")
	}
	if displayName == "" {
		return nil, apperrors.ValidationError("Display name is required")
	}
	if ok, reason := util.ValidatePassword(tempPassword); !ok {
		return nil, apperrors.ValidationError("Password " + reason)
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing != nil {
		return nil, apperrors.UserExists()
	}

	passwordHash, err := s.hasher.Hash(tempPassword)
	if err != nil {
		return nil, apperrors.Internal("Failed to process password").WithCause(err)
	}

	member, err := s.userRepo.Create(ctx, model.CreateUserParams{
		FamilyID:     caller.FamilyID,
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		Role:         model.RoleMember,
		Status:       model.UserStatusActive,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.UserExists()
		}
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("familyId", caller.FamilyID).
		Str("invitedBy", caller.ID).
		Str("memberId", member.ID).
		Msg("family member invited")

	return member, nil
}

func (s *FamilyService) ChangeRole(ctx context.Context, caller *model.User, memberID string, role model.Role) (*model.User, error) {
	if caller.Role != model.RoleAdmin {
		return nil, apperrors.Forbidden("Only admins can change roles")
	}
	if !role.Valid() {
		return nil, apperrors.InvalidInput("role", "must be one of ADMIN, MEMBER, VIEWER")
	}
	if caller.ID == memberID {
		return nil, apperrors.ValidationError("Cannot change your own role")
	}

	member, err := s.memberInFamily(ctx, caller.FamilyID, memberID)
	if err != nil {
		return nil, err
	}

	updated, err := s.userRepo.UpdateRole(ctx, member.ID, role)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return updated, nil
}

// Disable soft-disables a member and revokes their refresh sessions;
// their rows are never deleted. Outstanding access tokens expire on
// their own, but the auth middleware rejects disabled users on every
// request anyway.
func (s *FamilyService) Disable(ctx context.Context, caller *model.User, memberID string) (*model.User, error) {
	if caller.Role != model.RoleAdmin {
		return nil, apperrors.Forbidden("Only admins can disable members")
	}
	if caller.ID == memberID {
		return nil, apperrors.ValidationError("Cannot disable yourself")
	}

	member, err := s.memberInFamily(ctx, caller.FamilyID, memberID)
	if err != nil {
		return nil, err
	}

	updated, err := s.userRepo.UpdateStatus(ctx, member.ID, model.UserStatusDisabled)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	revoked, err := s.sessionRepo.RevokeAllForUser(ctx, member.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("memberId", memberID).
		Str("disabledBy", caller.ID).
		Int64("sessionsRevoked", revoked).
		Msg("family member disabled")

	return updated, nil
}

func (s *FamilyService) memberInFamily(ctx context.Context, familyID, memberID string) (*model.User, error) {
	member, err := s.userRepo.FindByID(ctx, memberID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if member == nil || member.FamilyID != familyID {
		return nil, apperrors.NotFound("Member")
	}
	return member, nil
}
