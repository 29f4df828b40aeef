package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/query"
)

func seedUsers(t *testing.T, s *MemorySession, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		u, err := entity.NewUser(fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
		m, err := u.Mutate()
		require.NoError(t, err)
		require.NoError(t, m.SetUserName(fmt.Sprintf("%d+suffix@example.com", i)))
		require.NoError(t, s.StoreUser(ctx, u))
	}
	require.NoError(t, s.SaveChanges(ctx))
}

func TestMemorySession_QueryByUserNameRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySession()
	seedUsers(t, s, 5)

	f, err := query.ByUserName("3+suffix@example.com")
	require.NoError(t, err)
	users, err := s.QueryUsers(ctx, f)
	require.NoError(t, err)
	require.Len(t, users, 1)
	name, err := users[0].UserName()
	require.NoError(t, err)
	assert.Equal(t, "3+suffix@example.com", name)

	missing, err := query.ByUserName("99+suffix@example.com")
	require.NoError(t, err)
	none, err := s.QueryUsers(ctx, missing)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemorySession_EmptyStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySession()

	f, err := query.ByUserName("specs@example.com")
	require.NoError(t, err)
	users, err := s.QueryUsers(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestMemorySession_SecondaryEmailsDoNotMatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySession()

	// Three users carrying the target address only as a secondary entry.
	for i := 0; i < 3; i++ {
		u, err := entity.NewUser(fmt.Sprintf("user-%d", i))
		require.NoError(t, err)
		m, err := u.Mutate()
		require.NoError(t, err)
		require.NoError(t, m.SetUserName(fmt.Sprintf("primary-%d@example.com", i)))
		m.AddSecondaryEmail("wanted@example.com", true)
		require.NoError(t, s.StoreUser(ctx, u))
	}
	require.NoError(t, s.SaveChanges(ctx))

	f, err := query.ByUserName("wanted@example.com")
	require.NoError(t, err)
	users, err := s.QueryUsers(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestMemorySession_LoadAbsentIsNil(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySession()

	u, err := s.LoadUser(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, u)

	r, err := s.LoadRole(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestMemorySession_ChangeTrackingPersistsMutations(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySession()
	seedUsers(t, s, 1)

	u, err := s.LoadUser(ctx, "user-0")
	require.NoError(t, err)
	require.NotNil(t, u)

	m, err := u.Mutate()
	require.NoError(t, err)
	m.SetPhoneNumber("+1-555-0100")
	require.NoError(t, s.SaveChanges(ctx))

	assert.Equal(t, "+1-555-0100", s.users["user-0"].PhoneNumber)
}

func TestMemorySession_UnchangedAggregatesNotRewritten(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySession()
	seedUsers(t, s, 1)
	before := s.users["user-0"]

	_, err := s.LoadUser(ctx, "user-0")
	require.NoError(t, err)
	require.NoError(t, s.SaveChanges(ctx))

	assert.Equal(t, before, s.users["user-0"])
}

func TestMemorySession_IdentityMap(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySession()
	seedUsers(t, s, 1)

	a, err := s.LoadUser(ctx, "user-0")
	require.NoError(t, err)
	f, err := query.ByUserName("0+suffix@example.com")
	require.NoError(t, err)
	matched, err := s.QueryUsers(ctx, f)
	require.NoError(t, err)
	require.Len(t, matched, 1)

	assert.Same(t, a, matched[0], "one session must hand out one aggregate per document")
}

func TestMemorySession_DeleteUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySession()
	seedUsers(t, s, 2)

	u, err := s.LoadUser(ctx, "user-0")
	require.NoError(t, err)
	require.NoError(t, s.DeleteUser(ctx, u))

	// Gone from loads and queries even before the flush.
	gone, err := s.LoadUser(ctx, "user-0")
	require.NoError(t, err)
	assert.Nil(t, gone)

	require.NoError(t, s.SaveChanges(ctx))
	gone, err = s.LoadUser(ctx, "user-0")
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := s.LoadUser(ctx, "user-1")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestMemorySession_Roles(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySession()

	r, err := entity.NewRole(1, "administrator")
	require.NoError(t, err)
	require.NoError(t, s.StoreRole(ctx, r))
	require.NoError(t, s.SaveChanges(ctx))

	f, err := query.ByName("administrator")
	require.NoError(t, err)
	roles, err := s.QueryRoles(ctx, f)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, int64(1), roles[0].ID())

	loaded, err := s.LoadRole(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	m, err := loaded.Mutate()
	require.NoError(t, err)
	require.NoError(t, m.SetName("moderator"))
	require.NoError(t, s.SaveChanges(ctx))
	assert.Equal(t, "moderator", s.roles[1].Name)

	require.NoError(t, s.DeleteRole(ctx, loaded))
	require.NoError(t, s.SaveChanges(ctx))
	absent, err := s.LoadRole(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, absent)
}
