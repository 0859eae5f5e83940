package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"furnistore/internal/auth"
	"furnistore/internal/models"
	"furnistore/internal/testutil"
)

func newAuthService(t *testing.T) *AuthService {
	db := testutil.NewDB(t)
	tokens := auth.NewTokenService("test-secret", time.Hour)
	return NewAuthService(db, tokens, auth.NewMemoryTokenBlacklist(), zap.NewNop())
}

func TestRegisterLoginLogout(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, models.RegisterRequest{
		Name:     "<b>Rahim</b>",
		Email:    "Rahim@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", sess.TokenType)
	assert.Equal(t, models.RoleUser, sess.User.Role)
	assert.Equal(t, "rahim@example.com", sess.User.Email)
	assert.Equal(t, "Rahim", sess.User.Name)

	_, err = svc.Register(ctx, models.RegisterRequest{Name: "Again", Email: "rahim@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "rahim@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := svc.Login(ctx, models.LoginRequest{Email: "RAHIM@example.com", Password: "secret123"})
	require.NoError(t, err)

	user, claims, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, user.ID)

	require.NoError(t, svc.Logout(ctx, claims))
	_, _, err = svc.Authenticate(ctx, login.Token)
	assert.ErrorIs(t, err, auth.ErrRevokedToken)

	// the registration token is a different jti and still works
	_, _, err = svc.Authenticate(ctx, sess.Token)
	assert.NoError(t, err)
}

func TestProfileAndPassword(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, svc.db, "karim@test.io", models.RoleUser)

	phone := "01999999999"
	updated, err := svc.UpdateProfile(ctx, user, models.UpdateProfileRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, user.Name, updated.Name)

	err = svc.ChangePassword(ctx, user, models.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "newpass1", NewPasswordConfirmation: "newpass1"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, svc.ChangePassword(ctx, user, models.ChangePasswordRequest{
		CurrentPassword: "password", NewPassword: "newpass1", NewPasswordConfirmation: "newpass1",
	}))
	_, err = svc.Login(ctx, models.LoginRequest{Email: "karim@test.io", Password: "newpass1"})
	assert.NoError(t, err)
}

func TestMakeAdmin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, svc.db, "boss@test.io", models.RoleUser)

	require.NoError(t, svc.MakeAdmin(ctx, "BOSS@test.io"))
	reloaded, _, err := svc.Authenticate(ctx, mustToken(t, svc, user))
	require.NoError(t, err)
	assert.True(t, reloaded.IsAdmin())

	assert.Error(t, svc.MakeAdmin(ctx, "ghost@test.io"))
}

func mustToken(t *testing.T, svc *AuthService, user *models.User) string {
	t.Helper()
	token, _, err := svc.tokens.Issue(user)
	require.NoError(t, err)
	return token
}
