// Package membership declares the capability contracts a pluggable
// identity backend provides to the hosting framework. Each interface is
// one narrow capability; the store façade implements the full set.
package membership

import (
	"context"
	"time"

	"github.com/crowdbase/identity-service/internal/entity"
)

// UserStore is the base user capability: identity, sign-in name, and
// lifecycle.
type UserStore interface {
	UserID(ctx context.Context, u *entity.User) (string, error)
	UserName(ctx context.Context, u *entity.User) (string, error)
	SetUserName(ctx context.Context, u *entity.User, name string) error
	CreateUser(ctx context.Context, u *entity.User) error
	UpdateUser(ctx context.Context, u *entity.User) error
	DeleteUser(ctx context.Context, u *entity.User) error
	FindUserByID(ctx context.Context, id string) (*entity.User, error)
	FindUserByName(ctx context.Context, name string) (*entity.User, error)
}

// UserEmailStore exposes the email of record and its confirmation state.
type UserEmailStore interface {
	Email(ctx context.Context, u *entity.User) (string, error)
	SetEmail(ctx context.Context, u *entity.User, email string) error
	EmailConfirmed(ctx context.Context, u *entity.User) (bool, error)
	SetEmailConfirmed(ctx context.Context, u *entity.User, confirmed bool) error
	FindUserByEmail(ctx context.Context, normalizedEmail string) (*entity.User, error)
}

// UserClaimStore exposes the claim collection.
type UserClaimStore interface {
	Claims(ctx context.Context, u *entity.User) ([]entity.Claim, error)
	AddClaims(ctx context.Context, u *entity.User, claims []entity.Claim) error
	ReplaceClaim(ctx context.Context, u *entity.User, old, replacement entity.Claim) error
	RemoveClaims(ctx context.Context, u *entity.User, claims []entity.Claim) error
	UsersForClaim(ctx context.Context, claimType string) ([]*entity.User, error)
}

// UserLoginStore exposes external-provider credential bindings.
type UserLoginStore interface {
	Logins(ctx context.Context, u *entity.User) ([]entity.Login, error)
	AddLogin(ctx context.Context, u *entity.User, l entity.Login) error
	RemoveLogin(ctx context.Context, u *entity.User, provider, key string) error
	FindUserByLogin(ctx context.Context, provider, key string) (*entity.User, error)
}

// UserRoleStore exposes role memberships.
type UserRoleStore interface {
	AddToRole(ctx context.Context, u *entity.User, roleName string) error
	RemoveFromRole(ctx context.Context, u *entity.User, roleName string) error
	Roles(ctx context.Context, u *entity.User) ([]string, error)
	IsInRole(ctx context.Context, u *entity.User, roleName string) (bool, error)
	UsersInRole(ctx context.Context, roleName string) ([]*entity.User, error)
}

// UserPasswordStore exposes the password hash.
type UserPasswordStore interface {
	PasswordHash(ctx context.Context, u *entity.User) (string, error)
	SetPasswordHash(ctx context.Context, u *entity.User, hash string) error
	HasPassword(ctx context.Context, u *entity.User) (bool, error)
}

// UserSecurityStampStore exposes the security stamp.
type UserSecurityStampStore interface {
	SecurityStamp(ctx context.Context, u *entity.User) (string, error)
	SetSecurityStamp(ctx context.Context, u *entity.User, stamp string) error
}

// UserPhoneNumberStore exposes the phone number and its confirmation.
type UserPhoneNumberStore interface {
	PhoneNumber(ctx context.Context, u *entity.User) (string, error)
	SetPhoneNumber(ctx context.Context, u *entity.User, number string) error
	PhoneNumberConfirmed(ctx context.Context, u *entity.User) (bool, error)
	SetPhoneNumberConfirmed(ctx context.Context, u *entity.User, confirmed bool) error
}

// UserTwoFactorStore exposes the two-factor flag.
type UserTwoFactorStore interface {
	TwoFactorEnabled(ctx context.Context, u *entity.User) (bool, error)
	SetTwoFactorEnabled(ctx context.Context, u *entity.User, enabled bool) error
}

// UserLockoutStore exposes the lockout state.
type UserLockoutStore interface {
	LockoutEnd(ctx context.Context, u *entity.User) (*time.Time, error)
	SetLockoutEnd(ctx context.Context, u *entity.User, end *time.Time) error
	IncrementAccessFailedCount(ctx context.Context, u *entity.User) (int, error)
	ResetAccessFailedCount(ctx context.Context, u *entity.User) error
	AccessFailedCount(ctx context.Context, u *entity.User) (int, error)
	LockoutEnabled(ctx context.Context, u *entity.User) (bool, error)
	SetLockoutEnabled(ctx context.Context, u *entity.User, enabled bool) error
}

// QueryableUserStore exposes the whole user collection.
type QueryableUserStore interface {
	Users(ctx context.Context) ([]*entity.User, error)
}

// FullUserStore is the complete set of user capabilities a backend
// provides, plus disposal.
type FullUserStore interface {
	UserStore
	UserEmailStore
	UserClaimStore
	UserLoginStore
	UserRoleStore
	UserPasswordStore
	UserSecurityStampStore
	UserPhoneNumberStore
	UserTwoFactorStore
	UserLockoutStore
	QueryableUserStore
	Close() error
}

// RoleStore is the base role capability.
type RoleStore interface {
	RoleID(ctx context.Context, r *entity.Role) (string, error)
	RoleName(ctx context.Context, r *entity.Role) (string, error)
	SetRoleName(ctx context.Context, r *entity.Role, name string) error
	CreateRole(ctx context.Context, r *entity.Role) error
	UpdateRole(ctx context.Context, r *entity.Role) error
	DeleteRole(ctx context.Context, r *entity.Role) error
	FindRoleByID(ctx context.Context, id string) (*entity.Role, error)
	FindRoleByName(ctx context.Context, name string) (*entity.Role, error)
}

// RoleClaimStore exposes the role's claim collection.
type RoleClaimStore interface {
	RoleClaims(ctx context.Context, r *entity.Role) ([]entity.Claim, error)
	AddRoleClaim(ctx context.Context, r *entity.Role, c entity.Claim) error
	RemoveRoleClaim(ctx context.Context, r *entity.Role, c entity.Claim) error
}

// QueryableRoleStore exposes the whole role collection.
type QueryableRoleStore interface {
	AllRoles(ctx context.Context) ([]*entity.Role, error)
}

// FullRoleStore is the complete set of role capabilities, plus disposal.
type FullRoleStore interface {
	RoleStore
	RoleClaimStore
	QueryableRoleStore
	Close() error
}
