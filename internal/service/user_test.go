package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appforge/appforge-go/internal/crypto"
	"github.com/appforge/appforge-go/internal/model"
)

func seedUser(t *testing.T, repo *fakeRepo, email string, role model.Role) model.UserResponse {
	t.Helper()
	auth := newTestAuthService(repo)
	resp, err := auth.Register(context.Background(), model.RegisterRequest{
		Email:    email,
		Password: "pw",
	})
	require.NoError(t, err)

	if role != model.RoleUser {
		user, err := repo.GetByID(context.Background(), resp.User.ID)
		require.NoError(t, err)
		user.Role = role
		require.NoError(t, repo.Update(context.Background(), user))
		resp.User.Role = role
	}
	return resp.User
}

func strptr(s string) *string { return &s }

func roleptr(r model.Role) *model.Role { return &r }

func statusptr(s model.Status) *model.Status { return &s }

func TestUpdateProfile_Fields(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo)
	u := seedUser(t, repo, "a@b.com", model.RoleUser)

	updated, err := svc.UpdateProfile(context.Background(), u.ID, model.UpdateProfileRequest{
		FirstName: strptr("Ada"),
		LastName:  strptr("Lovelace"),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.FirstName)
	assert.Equal(t, "Ada", *updated.FirstName)
	require.NotNil(t, updated.LastName)
	assert.Equal(t, "Lovelace", *updated.LastName)
	assert.Equal(t, "a@b.com", updated.Email, "email unchanged when not provided")
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo)
	u := seedUser(t, repo, "a@b.com", model.RoleUser)
	seedUser(t, repo, "taken@b.com", model.RoleUser)

	_, err := svc.UpdateProfile(context.Background(), u.ID, model.UpdateProfileRequest{
		Email: strptr("taken@b.com"),
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestListUsers_Pagination(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo)
	for _, email := range []string{"u1@x.com", "u2@x.com", "u3@x.com", "u4@x.com", "u5@x.com"} {
		seedUser(t, repo, email, model.RoleUser)
	}

	resp, err := svc.ListUsers(context.Background(), ListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Users, 2)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, 5, resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}

func TestListUsers_Search(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo)
	seedUser(t, repo, "john.doe@x.com", model.RoleUser)
	seedUser(t, repo, "jane@x.com", model.RoleUser)

	resp, err := svc.ListUsers(context.Background(), ListQuery{Search: "john"})
	require.NoError(t, err)
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "john-doe", resp.Users[0].Slug)
	assert.Equal(t, 1, resp.Pagination.Total)
}

func TestListUsers_DefaultsAndCaps(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo)

	resp, err := svc.ListUsers(context.Background(), ListQuery{Page: 0, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, maxPageLimit, resp.Pagination.Limit)
}

func TestGetBySlug_NotFound(t *testing.T) {
	svc := NewUserService(newFakeRepo())

	_, err := svc.GetBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser_SelfRoleChangeForbidden(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo)
	admin := seedUser(t, repo, "admin@x.com", model.RoleAdmin)

	_, err := svc.UpdateUser(context.Background(), admin.ID, admin.Slug, model.AdminUpdateUserRequest{
		Role: roleptr(model.RoleUser),
	})
	assert.ErrorIs(t, err, ErrSelfRoleChange)
}

func TestUpdateUser_SelfSameRoleAllowed(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo)
	admin := seedUser(t, repo, "admin@x.com", model.RoleAdmin)

	updated, err := svc.UpdateUser(context.Background(), admin.ID, admin.Slug, model.AdminUpdateUserRequest{
		Role:      roleptr(model.RoleAdmin),
		FirstName: strptr("Root"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, updated.Role)
}

func TestUpdateUser_PromoteOther(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo)
	admin := seedUser(t, repo, "admin@x.com", model.RoleAdmin)
	other := seedUser(t, repo, "user@x.com", model.RoleUser)

	updated, err := svc.UpdateUser(context.Background(), admin.ID, other.Slug, model.AdminUpdateUserRequest{
		Role:   roleptr(model.RoleAdmin),
		Status: statusptr(model.StatusInactive),
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, updated.Role)
	assert.Equal(t, model.StatusInactive, updated.Status)
	assert.Equal(t, other.Slug, updated.Slug, "slug is immutable")
}

func TestUpdateUser_InvalidRole(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo)
	admin := seedUser(t, repo, "admin@x.com", model.RoleAdmin)
	other := seedUser(t, repo, "user@x.com", model.RoleUser)

	bad := model.Role("SUPERUSER")
	_, err := svc.UpdateUser(context.Background(), admin.ID, other.Slug, model.AdminUpdateUserRequest{
		Role: &bad,
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestResetPassword(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo)
	u := seedUser(t, repo, "a@b.com", model.RoleUser)

	require.NoError(t, svc.ResetPassword(context.Background(), u.Slug, "new-password"))

	stored, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, crypto.VerifyPassword("new-password", stored.PasswordHash))
	assert.False(t, crypto.VerifyPassword("pw", stored.PasswordHash))
}

func TestResetPassword_Empty(t *testing.T) {
	svc := NewUserService(newFakeRepo())

	err := svc.ResetPassword(context.Background(), "any", "")
	assert.ErrorIs(t, err, ErrNewPasswordNeeded)
}

func TestDeleteUser_SelfForbidden(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo)
	admin := seedUser(t, repo, "admin@x.com", model.RoleAdmin)

	err := svc.DeleteUser(context.Background(), admin.ID, admin.Slug)
	assert.ErrorIs(t, err, ErrSelfDelete)

	_, err = repo.GetByID(context.Background(), admin.ID)
	assert.NoError(t, err, "account must still exist")
}

func TestDeleteUser_Other(t *testing.T) {
	repo := newFakeRepo()
	svc := NewUserService(repo)
	admin := seedUser(t, repo, "admin@x.com", model.RoleAdmin)
	other := seedUser(t, repo, "user@x.com", model.RoleUser)

	require.NoError(t, svc.DeleteUser(context.Background(), admin.ID, other.Slug))

	_, err := svc.GetBySlug(context.Background(), other.Slug)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
