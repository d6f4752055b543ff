package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stepwise/stepwise-backend/internal/engine"
	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/repos"
	"github.com/stepwise/stepwise-backend/internal/types"
)

func newAuthStack(t *testing.T) (AuthService, repos.UserTokenRepo, *testStack) {
	t.Helper()
	stack := newTestStack(t, engine.DefaultConfig())
	log := logger.NewNop()
	userRepo := repos.NewUserRepo(stack.db, log)
	tokenRepo := repos.NewUserTokenRepo(stack.db, log)
	auth := NewAuthService(stack.db, log, userRepo, tokenRepo, "testsecret", time.Hour, 24*time.Hour)
	return auth, tokenRepo, stack
}

func TestRegisterAndLogin(t *testing.T) {
	auth, tokenRepo, _ := newAuthStack(t)
	ctx := context.Background()

	user := &types.User{
		Email:     "New.Learner@Example.com",
		Password:  "hunter22",
		FirstName: "New",
		LastName:  "Learner",
	}
	require.NoError(t, auth.RegisterUser(ctx, user))

	// Email is normalized at registration, so login with the raw casing
	// still resolves.
	access, refresh, err := auth.LoginUser(ctx, "new.learner@example.com", "hunter22")
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	row, err := tokenRepo.GetByToken(ctx, nil, refresh)
	require.NoError(t, err)
	require.NotNil(t, row)

	_, _, err = auth.LoginUser(ctx, "new.learner@example.com", "wrong")
	require.Error(t, err)
}

func TestLoginPurgesExpiredTokens(t *testing.T) {
	auth, tokenRepo, stack := newAuthStack(t)
	ctx := context.Background()

	user := &types.User{Email: "learner2@example.com", Password: "hunter22"}
	require.NoError(t, auth.RegisterUser(ctx, user))

	expired := &types.UserToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, stack.db.Create(expired).Error)

	_, _, err := auth.LoginUser(ctx, "learner2@example.com", "hunter22")
	require.NoError(t, err)

	row, err := tokenRepo.GetByToken(ctx, nil, expired.Token)
	require.NoError(t, err)
	require.Nil(t, row, "expired token must be purged at login")
}
