package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func newAuthService(t *testing.T) (*AuthService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.AddRole(domain.RoleUser)
	cfg := config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 60, BcryptCost: 4}
	return NewAuthService(cfg, store.Repos().Users), store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, token, _, err := svc.Register(ctx, RegisterInput{
		FirstName: "Rae",
		LastName:  "Requester",
		Email:     "Rae@Example.com",
		Password:  "correcthorse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, domain.RoleUser, user.RoleName)
	assert.Equal(t, "rae@example.com", user.Email, "emails are normalized")

	logged, token, _, err := svc.Login(ctx, "rae@example.com", "correcthorse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	input := RegisterInput{Email: "dup@example.com", Password: "longenough"}
	_, _, _, err := svc.Register(ctx, input)
	require.NoError(t, err)

	_, _, _, err = svc.Register(ctx, input)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, RegisterInput{Email: "rae@example.com", Password: "correcthorse"})
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "rae@example.com", "wronghorse")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestLoginRejectsUnknownAndInactiveAccounts(t *testing.T) {
	svc, store := newAuthService(t)
	ctx := context.Background()

	_, _, _, err := svc.Login(ctx, "nobody@example.com", "whatever")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	user, _, _, err := svc.Register(ctx, RegisterInput{Email: "off@example.com", Password: "longenough"})
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, store.Repos().Users.Update(ctx, user))

	_, _, _, err = svc.Login(ctx, "off@example.com", "longenough")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestRegisterValidatesPasswordLength(t *testing.T) {
	svc, _ := newAuthService(t)
	_, _, _, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "short"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}
