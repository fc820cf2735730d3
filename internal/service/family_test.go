package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/fambudget/budget-server-go/internal/errors"
	"github.com/fambudget/budget-server-go/internal/model"
)

type familyFixture struct {
	svc      *FamilyService
	users    *mockUserRepo
	sessions *mockSessionRepo
	hasher   *PasswordHasher
	admin    *model.User
}

func newFamilyFixture(t *testing.T) *familyFixture {
	t.Helper()

	users := newMockUserRepo()
	sessions := newMockSessionRepo()
	hasher := NewPasswordHasher(4)

	admin := &model.User{
		ID:          "user-admin",
		FamilyID:    "family-1",
		Email:       "admin@example.com",
		DisplayName: "Admin",
		Role:        model.RoleAdmin,
		Status:      model.UserStatusActive,
	}
	users.add(admin)

	return &familyFixture{
		svc:      NewFamilyService(&mockFamilyRepo{}, users, sessions, hasher),
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		admin:    admin,
	}
}

func (f *familyFixture) addMember(id, familyID string) *model.User {
	member := &model.User{
		ID:          id,
		FamilyID:    familyID,
		Email:       id + "@example.com",
		DisplayName: "Member " + id,
		Role:        model.RoleMember,
		Status:      model.UserStatusActive,
	}
	f.users.add(member)
	return member
}

func TestFamilyServiceInvite(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active member with the temporary password", func(t *testing.T) {
		f := newFamilyFixture(t)

		member, err := f.svc.Invite(ctx, f.admin, "bob@example.com", "Bob", "TempPass1")
		require.NoError(t, err)

		assert.Equal(t, f.admin.FamilyID, member.FamilyID)
		assert.Equal(t, model.RoleMember, member.Role)
		assert.Equal(t, model.UserStatusActive, member.Status)
		assert.True(t, f.hasher.Verify("TempPass1", member.PasswordHash))
	})

	t.Run("only admins can invite", func(t *testing.T) {
		f := newFamilyFixture(t)
		member := f.addMember("user-bob", f.admin.FamilyID)

		_, err := f.svc.Invite(ctx, member, "carol@example.com", "Carol", "TempPass1")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		f := newFamilyFixture(t)

		_, err := f.svc.Invite(ctx, f.admin, "admin@example.com", "Clone", "TempPass1")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeUserExists, apperrors.GetCode(err))
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		f := newFamilyFixture(t)

		_, err := f.svc.Invite(ctx, f.admin, "not-an-email", "Bob", "TempPass1")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))
	})
}

func TestFamilyServiceChangeRole(t *testing.T) {
	ctx := context.Background()

	t.Run("admin changes a member role", func(t *testing.T) {
		f := newFamilyFixture(t)
		member := f.addMember("user-bob", f.admin.FamilyID)

		updated, err := f.svc.ChangeRole(ctx, f.admin, member.ID, model.RoleViewer)
		require.NoError(t, err)
		assert.Equal(t, model.RoleViewer, updated.Role)
	})

	t.Run("cannot change own role", func(t *testing.T) {
		f := newFamilyFixture(t)

		_, err := f.svc.ChangeRole(ctx, f.admin, f.admin.ID, model.RoleMember)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		f := newFamilyFixture(t)
		member := f.addMember("user-bob", f.admin.FamilyID)

		_, err := f.svc.ChangeRole(ctx, f.admin, member.ID, model.Role("OWNER"))
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	})

	t.Run("member of another family is not found", func(t *testing.T) {
		f := newFamilyFixture(t)
		outsider := f.addMember("user-eve", "family-2")

		_, err := f.svc.ChangeRole(ctx, f.admin, outsider.ID, model.RoleViewer)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}

func TestFamilyServiceDisable(t *testing.T) {
	ctx := context.Background()

	addSession := func(t *testing.T, f *familyFixture, userID, hash string) *model.RefreshSession {
		t.Helper()
		session, err := f.sessions.Create(ctx, model.CreateRefreshSessionParams{
			UserID:    userID,
			TokenHash: hash,
			ExpiresAt: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
		return session
	}

	t.Run("disables the member and revokes their sessions", func(t *testing.T) {
		f := newFamilyFixture(t)
		member := f.addMember("user-bob", f.admin.FamilyID)
		memberSession := addSession(t, f, member.ID, "hash-bob")
		adminSession := addSession(t, f, f.admin.ID, "hash-admin")

		updated, err := f.svc.Disable(ctx, f.admin, member.ID)
		require.NoError(t, err)

		assert.Equal(t, model.UserStatusDisabled, updated.Status)
		assert.NotNil(t, memberSession.RevokedAt)
		assert.Nil(t, adminSession.RevokedAt)
	})

	t.Run("only admins can disable", func(t *testing.T) {
		f := newFamilyFixture(t)
		member := f.addMember("user-bob", f.admin.FamilyID)
		target := f.addMember("user-carol", f.admin.FamilyID)

		_, err := f.svc.Disable(ctx, member, target.ID)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
	})

	t.Run("cannot disable yourself", func(t *testing.T) {
		f := newFamilyFixture(t)

		_, err := f.svc.Disable(ctx, f.admin, f.admin.ID)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))
	})

	t.Run("member of another family is not found", func(t *testing.T) {
		f := newFamilyFixture(t)
		outsider := f.addMember("user-eve", "family-2")

		_, err := f.svc.Disable(ctx, f.admin, outsider.ID)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})
}
