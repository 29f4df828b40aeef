// Package query provides the deferred filter builders the identity services
// use to locate users and roles. A filter is plain data; each session
// backend decides how to execute it (a bson translation for MongoDB, an
// in-memory scan for the memory session). Matching is exact and
// case-sensitive: callers pass values they have already normalized, and the
// query layer does not second-guess them.
package query

import (
	"github.com/crowdbase/identity-service/internal/apperrors"
	"github.com/crowdbase/identity-service/internal/entity"
)

// UserFilter selects users from the raw collection. Matches is the
// reference semantics; backends may compile the filter instead of calling it.
type UserFilter interface {
	Matches(u *entity.User) bool
}

// RoleFilter selects roles from the raw collection.
type RoleFilter interface {
	Matches(r *entity.Role) bool
}

// PrimaryEmailFilter selects users whose primary email has exactly the
// given address. Secondary entries never match.
type PrimaryEmailFilter struct {
	Address string
}

func (f PrimaryEmailFilter) Matches(u *entity.User) bool {
	e, ok := u.PrimaryEmail()
	return ok && e.Address == f.Address
}

// ClaimTypeFilter selects users holding any claim of the given type.
type ClaimTypeFilter struct {
	ClaimType string
}

func (f ClaimTypeFilter) Matches(u *entity.User) bool {
	return len(u.ClaimsOfType(f.ClaimType)) > 0
}

// LoginFilter selects users holding a login that matches both provider and
// key exactly.
type LoginFilter struct {
	Provider string
	Key      string
}

func (f LoginFilter) Matches(u *entity.User) bool {
	return u.HasLogin(f.Provider, f.Key)
}

// RoleMemberFilter selects users belonging to the named role.
type RoleMemberFilter struct {
	Role string
}

func (f RoleMemberFilter) Matches(u *entity.User) bool {
	return u.IsInRole(f.Role)
}

// RoleNameFilter selects the role with exactly the given name.
type RoleNameFilter struct {
	Name string
}

func (f RoleNameFilter) Matches(r *entity.Role) bool {
	return r.Name() == f.Name
}

// ByUserName builds a filter for users whose sign-in name (primary email
// address) equals username.
func ByUserName(username string) (UserFilter, error) {
	if username == "" {
		return nil, apperrors.InvalidArgumentf("user name is empty")
	}
	return PrimaryEmailFilter{Address: username}, nil
}

// ByEmail builds a filter for users whose primary email address equals
// normalizedEmail. Same shape as ByUserName; the sign-in name is the
// primary email.
func ByEmail(normalizedEmail string) (UserFilter, error) {
	if normalizedEmail == "" {
		return nil, apperrors.InvalidArgumentf("email is empty")
	}
	return PrimaryEmailFilter{Address: normalizedEmail}, nil
}

// ByClaim builds a filter for users holding a claim of the given type.
func ByClaim(claimType string) UserFilter {
	return ClaimTypeFilter{ClaimType: claimType}
}

// ByLogin builds a filter for users holding the given provider binding.
func ByLogin(provider, key string) UserFilter {
	return LoginFilter{Provider: provider, Key: key}
}

// ByRole builds a filter for users belonging to the named role.
func ByRole(roleName string) UserFilter {
	return RoleMemberFilter{Role: roleName}
}

// ByName builds a filter for the role with the given name.
func ByName(roleName string) (RoleFilter, error) {
	if roleName == "" {
		return nil, apperrors.InvalidArgumentf("role name is empty")
	}
	return RoleNameFilter{Name: roleName}, nil
}
