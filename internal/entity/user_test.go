package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdbase/identity-service/internal/apperrors"
)

func mutate(t *testing.T, u *User) *UserMutator {
	t.Helper()
	m, err := u.Mutate()
	require.NoError(t, err)
	return m
}

func TestNewUser_RequiresID(t *testing.T) {
	_, err := NewUser("")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	u, err := NewUser("user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID())
	assert.True(t, u.Active())
	assert.Empty(t, u.Emails())
}

func TestUserName_ReturnsPrimaryEmailAddress(t *testing.T) {
	u, _ := NewUser("user-1")
	require.NoError(t, mutate(t, u).SetUserName("specs@example.com"))

	name, err := u.UserName()
	require.NoError(t, err)
	assert.Equal(t, "specs@example.com", name)

	// Reading twice without an intervening write returns the same value.
	again, err := u.UserName()
	require.NoError(t, err)
	assert.Equal(t, name, again)
}

func TestUserName_FailsWithoutPrimaryEmail(t *testing.T) {
	u, _ := NewUser("user-1")

	_, err := u.UserName()
	assert.ErrorIs(t, err, apperrors.ErrInvalidOperation)
	assert.ErrorContains(t, err, "no primary email")

	// A secondary-only email collection is still nameless.
	mutate(t, u).AddSecondaryEmail("side@example.com", true)
	_, err = u.UserName()
	assert.ErrorContains(t, err, "no primary email")
}

func TestSetUserName_DemotesPreviousPrimary(t *testing.T) {
	u, _ := NewUser("user-1")
	require.NoError(t, mutate(t, u).SetUserName("old@x.com"))
	require.NoError(t, mutate(t, u).SetUserName("new@x.com"))

	emails := u.Emails()
	require.Len(t, emails, 2)

	var primaries int
	for _, e := range emails {
		if e.Primary {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries)

	assert.Equal(t, "old@x.com", emails[0].Address)
	assert.False(t, emails[0].Primary)
	assert.Equal(t, "new@x.com", emails[1].Address)
	assert.True(t, emails[1].Primary)
	assert.False(t, emails[1].Confirmed)

	name, err := u.UserName()
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", name)
}

func TestSetUserName_KeepsConfirmationOfDemotedEntries(t *testing.T) {
	u, _ := NewUser("user-1")
	require.NoError(t, mutate(t, u).SetUserName("specs@example.com"))
	require.NoError(t, mutate(t, u).ConfirmPrimaryEmail(true))

	require.NoError(t, mutate(t, u).SetUserName("override+specs@example.com"))

	emails := u.Emails()
	require.Len(t, emails, 2)
	assert.Equal(t, "specs@example.com", emails[0].Address)
	assert.True(t, emails[0].Confirmed, "demotion must not touch confirmation")
	assert.False(t, emails[0].Primary)

	name, err := u.UserName()
	require.NoError(t, err)
	assert.Equal(t, "override+specs@example.com", name)
}

func TestSetUserName_EmptyValue(t *testing.T) {
	u, _ := NewUser("user-1")
	require.NoError(t, mutate(t, u).SetUserName("specs@example.com"))

	err := mutate(t, u).SetUserName("")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOperation)
	assert.ErrorContains(t, err, "empty")
	assert.Len(t, u.Emails(), 1, "email collection must be unchanged")
}

func TestSetUserName_InvalidAddress(t *testing.T) {
	u, _ := NewUser("user-1")
	require.NoError(t, mutate(t, u).SetUserName("specs@example.com"))

	for _, bad := range []string{"not an email", "a@", "@x.com", "a b@x.com"} {
		err := mutate(t, u).SetUserName(bad)
		assert.ErrorIs(t, err, apperrors.ErrInvalidOperation, bad)
		assert.ErrorContains(t, err, "invalid", bad)
	}
	assert.Len(t, u.Emails(), 1, "email collection must be unchanged")
}

func TestSetUserName_SameAddressAccumulatesEntries(t *testing.T) {
	u, _ := NewUser("user-1")
	require.NoError(t, mutate(t, u).SetUserName("specs@example.com"))
	require.NoError(t, mutate(t, u).SetUserName("specs@example.com"))

	emails := u.Emails()
	require.Len(t, emails, 2)
	assert.False(t, emails[0].Primary)
	assert.True(t, emails[1].Primary)
}

func TestMutate_Sentinel(t *testing.T) {
	_, err := EmptyUser.Mutate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	var nilUser *User
	_, err = nilUser.Mutate()
	assert.ErrorIs(t, err, apperrors.ErrArgumentNull)
}

func TestClaimOperations(t *testing.T) {
	u, _ := NewUser("user-1")
	mutate(t, u).
		AddClaim("scope", "read").
		AddClaim("scope", "write").
		AddClaim("tenant", "acme")

	assert.Len(t, u.Claims(), 3)
	assert.Len(t, u.ClaimsOfType("scope"), 2)

	// Replace touches only the first claim of the type.
	mutate(t, u).ReplaceClaimByType("scope", "admin")
	scopes := u.ClaimsOfType("scope")
	require.Len(t, scopes, 2)
	assert.Equal(t, "admin", scopes[0].Value)
	assert.Equal(t, "write", scopes[1].Value)

	// Replace of an absent type is a no-op.
	mutate(t, u).ReplaceClaimByType("missing", "x")
	assert.Len(t, u.Claims(), 3)

	// Remove takes out every claim sharing a type.
	mutate(t, u).RemoveClaimsByType("scope")
	assert.Len(t, u.Claims(), 1)
	assert.Equal(t, "tenant", u.Claims()[0].Type)
}

func TestLoginOperations(t *testing.T) {
	u, _ := NewUser("user-1")
	mutate(t, u).
		AddLogin(Login{Provider: "github", DisplayName: "GitHub", Key: "gh-1"}).
		AddLogin(Login{Provider: "google", DisplayName: "Google", Key: "go-1"})

	assert.True(t, u.HasLogin("github", "gh-1"))
	assert.False(t, u.HasLogin("github", "go-1"), "provider and key must both match")

	mutate(t, u).RemoveLoginByKey("github", "gh-1")
	assert.False(t, u.HasLogin("github", "gh-1"))
	assert.Len(t, u.Logins(), 1)
}

func TestRoleMembershipOperations(t *testing.T) {
	u, _ := NewUser("user-1")
	mutate(t, u).AddRole("backer").AddRole("backer").AddRole("creator")

	assert.Len(t, u.Roles(), 2, "duplicate role adds collapse")
	assert.True(t, u.IsInRole("backer"))

	mutate(t, u).RemoveRole("backer")
	assert.False(t, u.IsInRole("backer"))
	assert.True(t, u.IsInRole("creator"))
}

func TestLockoutCounter(t *testing.T) {
	u, _ := NewUser("user-1")
	m := mutate(t, u)
	assert.Equal(t, 1, m.IncrementAccessFailedCount())
	assert.Equal(t, 2, m.IncrementAccessFailedCount())
	assert.Equal(t, 2, u.AccessFailedCount())

	m.ResetAccessFailedCount()
	assert.Equal(t, 0, u.AccessFailedCount())
}

func TestSnapshotIsolation(t *testing.T) {
	u, _ := NewUser("user-1")
	end := time.Now().Add(time.Hour)
	require.NoError(t, mutate(t, u).SetUserName("specs@example.com"))
	mutate(t, u).SetLockoutEnd(&end).AddClaim("scope", "read")

	snap := u.Snapshot()
	snap.Emails[0].Address = "tampered@example.com"
	snap.Claims[0].Value = "tampered"
	*snap.LockoutEnd = snap.LockoutEnd.Add(time.Hour)

	name, err := u.UserName()
	require.NoError(t, err)
	assert.Equal(t, "specs@example.com", name)
	assert.Equal(t, "read", u.Claims()[0].Value)
	assert.True(t, u.LockoutEnd().Equal(end))

	clone := RehydrateUser(u.Snapshot())
	cloneName, err := clone.UserName()
	require.NoError(t, err)
	assert.Equal(t, name, cloneName)
}

func TestRoleAggregate(t *testing.T) {
	_, err := NewRole(1, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	r, err := NewRole(1, "administrator")
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.ID())

	_, err = EmptyRole.Mutate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidOperation)

	m, err := r.Mutate()
	require.NoError(t, err)
	assert.ErrorContains(t, m.SetName(""), "empty")
	require.NoError(t, m.SetName("moderator"))
	assert.Equal(t, "moderator", r.Name())

	m.AddClaim("permission", "publish").AddClaim("permission", "review")
	m.ReplaceClaimByType("permission", "archive")
	claims := r.ClaimsOfType("permission")
	require.Len(t, claims, 2)
	assert.Equal(t, "archive", claims[0].Value)

	m.RemoveClaimsByType("permission")
	assert.Empty(t, r.Claims())
}
