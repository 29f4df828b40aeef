package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/apperrors"
	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/session"
)

func newStore(t *testing.T) *UserStore {
	t.Helper()
	return NewUserStore(session.NewMemorySession(), zap.NewNop())
}

func storedUser(t *testing.T, s *UserStore, id, email string) *entity.User {
	t.Helper()
	ctx := context.Background()
	u, err := entity.NewUser(id)
	require.NoError(t, err)
	require.NoError(t, s.SetUserName(ctx, u, email))
	require.NoError(t, s.CreateUser(ctx, u))
	return u
}

func TestUserStore_DisposedRejectsEveryCall(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := storedUser(t, s, "user-1", "specs@example.com")

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close is idempotent")

	_, err := s.UserName(ctx, u)
	assert.ErrorIs(t, err, apperrors.ErrStoreDisposed)
	_, err = s.FindUserByID(ctx, "user-1")
	assert.ErrorIs(t, err, apperrors.ErrStoreDisposed)
	err = s.SetEmail(ctx, u, "new@example.com")
	assert.ErrorIs(t, err, apperrors.ErrStoreDisposed)
	_, err = s.Users(ctx)
	assert.ErrorIs(t, err, apperrors.ErrStoreDisposed)
}

func TestUserStore_CancelledContextWinsOverDisposal(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FindUserByID(ctx, "user-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUserStore_NilUserRejected(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.UserName(ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrArgumentNull)
	err = s.CreateUser(ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrArgumentNull)
	err = s.SetPasswordHash(ctx, nil, "hash")
	assert.ErrorIs(t, err, apperrors.ErrArgumentNull)
	_, err = s.LockoutEnd(ctx, nil)
	assert.ErrorIs(t, err, apperrors.ErrArgumentNull)
}

func TestUserStore_NilClaimsRejected(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := storedUser(t, s, "user-1", "specs@example.com")

	err := s.AddClaims(ctx, u, nil)
	assert.ErrorIs(t, err, apperrors.ErrArgumentNull)
	err = s.RemoveClaims(ctx, u, nil)
	assert.ErrorIs(t, err, apperrors.ErrArgumentNull)

	// An empty, non-nil slice is a valid no-op argument.
	assert.NoError(t, s.AddClaims(ctx, u, []entity.Claim{}))
}

func TestUserStore_Delegation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := storedUser(t, s, "user-1", "specs@example.com")

	name, err := s.UserName(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, "specs@example.com", name)

	found, err := s.FindUserByName(ctx, "specs@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	id, err := s.UserID(ctx, found)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	require.NoError(t, s.SetEmail(ctx, u, "override+specs@example.com"))
	require.NoError(t, s.UpdateUser(ctx, u))

	gone, err := s.FindUserByEmail(ctx, "specs@example.com")
	require.NoError(t, err)
	assert.Nil(t, gone)
	renamed, err := s.FindUserByEmail(ctx, "override+specs@example.com")
	require.NoError(t, err)
	require.NotNil(t, renamed)

	require.NoError(t, s.AddToRole(ctx, u, "backer"))
	inRole, err := s.IsInRole(ctx, u, "backer")
	require.NoError(t, err)
	assert.True(t, inRole)

	require.NoError(t, s.AddLogin(ctx, u, entity.Login{Provider: "github", Key: "gh-1"}))
	require.NoError(t, s.UpdateUser(ctx, u))
	byLogin, err := s.FindUserByLogin(ctx, "github", "gh-1")
	require.NoError(t, err)
	require.NotNil(t, byLogin)

	hasPassword, err := s.HasPassword(ctx, u)
	require.NoError(t, err)
	assert.False(t, hasPassword)
	require.NoError(t, s.SetPasswordHash(ctx, u, "hash"))
	hasPassword, err = s.HasPassword(ctx, u)
	require.NoError(t, err)
	assert.True(t, hasPassword)

	require.NoError(t, s.DeleteUser(ctx, u))
	absent, err := s.FindUserByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, absent)
}
