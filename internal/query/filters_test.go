package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdbase/identity-service/internal/apperrors"
	"github.com/crowdbase/identity-service/internal/entity"
)

func newUser(t *testing.T, id, primary string) *entity.User {
	t.Helper()
	u, err := entity.NewUser(id)
	require.NoError(t, err)
	if primary != "" {
		m, err := u.Mutate()
		require.NoError(t, err)
		require.NoError(t, m.SetUserName(primary))
	}
	return u
}

func TestByUserName_RequiresInput(t *testing.T) {
	_, err := ByUserName("")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = ByEmail("")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	_, err = ByName("")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestPrimaryEmailFilter_MatchesPrimaryOnly(t *testing.T) {
	f, err := ByUserName("specs@example.com")
	require.NoError(t, err)

	primary := newUser(t, "u1", "specs@example.com")
	assert.True(t, f.Matches(primary))

	// Same address present only as a secondary entry must not match.
	secondary := newUser(t, "u2", "other@example.com")
	m, _ := secondary.Mutate()
	m.AddSecondaryEmail("specs@example.com", true)
	assert.False(t, f.Matches(secondary))

	nameless, _ := entity.NewUser("u3")
	assert.False(t, f.Matches(nameless))
}

func TestPrimaryEmailFilter_ExactMatchOnly(t *testing.T) {
	f, err := ByUserName("specs@example.com")
	require.NoError(t, err)

	// No substring or case-folded matching.
	assert.False(t, f.Matches(newUser(t, "u1", "thespecs@example.com")))
	assert.False(t, f.Matches(newUser(t, "u2", "SPECS@example.com")))
}

func TestClaimTypeFilter(t *testing.T) {
	f := ByClaim("scope")

	withClaim := newUser(t, "u1", "a@example.com")
	m, _ := withClaim.Mutate()
	m.AddClaim("scope", "read")
	assert.True(t, f.Matches(withClaim))

	withOther := newUser(t, "u2", "b@example.com")
	m, _ = withOther.Mutate()
	m.AddClaim("tenant", "acme")
	assert.False(t, f.Matches(withOther))
}

func TestLoginFilter_BothFieldsMustMatch(t *testing.T) {
	u := newUser(t, "u1", "a@example.com")
	m, _ := u.Mutate()
	m.AddLogin(entity.Login{Provider: "github", Key: "gh-1"})

	assert.True(t, ByLogin("github", "gh-1").Matches(u))
	assert.False(t, ByLogin("github", "gh-2").Matches(u))
	assert.False(t, ByLogin("google", "gh-1").Matches(u))
}

func TestRoleMemberFilter(t *testing.T) {
	u := newUser(t, "u1", "a@example.com")
	m, _ := u.Mutate()
	m.AddRole("backer")

	assert.True(t, ByRole("backer").Matches(u))
	assert.False(t, ByRole("creator").Matches(u))
}

func TestRoleNameFilter(t *testing.T) {
	r, err := entity.NewRole(1, "administrator")
	require.NoError(t, err)

	f, err := ByName("administrator")
	require.NoError(t, err)
	assert.True(t, f.Matches(r))

	other, err := ByName("Administrator")
	require.NoError(t, err)
	assert.False(t, other.Matches(r), "role lookup is case-sensitive")
}
