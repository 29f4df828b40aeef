package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/crowdbase/identity-service/internal/apperrors"
	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/query"
)

func TestCompileUserFilter(t *testing.T) {
	byName, err := query.ByUserName("specs@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter query.UserFilter
		want   bson.M
	}{
		{
			name:   "nil matches all",
			filter: nil,
			want:   bson.M{},
		},
		{
			name:   "primary email binds both conditions to one entry",
			filter: byName,
			want:   bson.M{"emails": bson.M{"$elemMatch": bson.M{"address": "specs@example.com", "primary": true}}},
		},
		{
			name:   "claim type",
			filter: query.ByClaim("scope"),
			want:   bson.M{"claims.type": "scope"},
		},
		{
			name:   "login provider and key",
			filter: query.ByLogin("github", "gh-1"),
			want:   bson.M{"logins": bson.M{"$elemMatch": bson.M{"provider": "github", "key": "gh-1"}}},
		},
		{
			name:   "role membership",
			filter: query.ByRole("backer"),
			want:   bson.M{"roles": "backer"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := compileUserFilter(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileUserFilter_Unsupported(t *testing.T) {
	_, err := compileUserFilter(unsupportedFilter{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

type unsupportedFilter struct{}

func (unsupportedFilter) Matches(*entity.User) bool { return false }

func TestCompileRoleFilter(t *testing.T) {
	f, err := query.ByName("administrator")
	require.NoError(t, err)

	got, err := compileRoleFilter(f)
	require.NoError(t, err)
	assert.Equal(t, bson.M{"name": "administrator"}, got)

	all, err := compileRoleFilter(nil)
	require.NoError(t, err)
	assert.Equal(t, bson.M{}, all)
}

func TestUserDocRoundTrip(t *testing.T) {
	end := time.Now().Add(time.Hour).Truncate(time.Millisecond)
	u, err := entity.NewUser("user-1")
	require.NoError(t, err)
	m, err := u.Mutate()
	require.NoError(t, err)
	require.NoError(t, m.SetUserName("specs@example.com"))
	m.SetPasswordHash("hash").
		SetPhoneNumber("+1-555-0100").
		SetPhoneNumberConfirmed(true).
		SetTwoFactorEnabled(true).
		SetLockoutEnabled(true).
		SetLockoutEnd(&end).
		SetSecurityStamp("stamp").
		AddClaim("scope", "read").
		AddLogin(entity.Login{Provider: "github", DisplayName: "GitHub", Key: "gh-1"}).
		AddRole("backer")

	doc := userDocFromData(u.Snapshot())
	back := entity.RehydrateUser(doc.toData())

	assert.Equal(t, u.Snapshot(), back.Snapshot())
}

func TestUserDocRoundTrip_ThroughBson(t *testing.T) {
	u, err := entity.NewUser("user-1")
	require.NoError(t, err)
	m, err := u.Mutate()
	require.NoError(t, err)
	require.NoError(t, m.SetUserName("specs@example.com"))

	doc := userDocFromData(u.Snapshot())
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var decoded userDoc
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, doc.Emails, decoded.Emails)
	assert.Equal(t, doc.ID, decoded.ID)
}

func TestRoleDocRoundTrip(t *testing.T) {
	r, err := entity.NewRole(7, "moderator")
	require.NoError(t, err)
	m, err := r.Mutate()
	require.NoError(t, err)
	m.AddClaim("permission", "review")

	doc := roleDocFromData(r.Snapshot())
	back := entity.RehydrateRole(doc.toData())
	assert.Equal(t, r.Snapshot(), back.Snapshot())
}
