// Package session provides the document-store adapter the identity
// services run against: a unit-of-work session over user and role
// aggregates with staged writes and a batched flush.
package session

import (
	"context"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/query"
)

// Session is a single-use, non-shared document session. Loads and queries
// register the returned aggregates with the session; StoreUser/StoreRole
// stage new aggregates; DeleteUser/DeleteRole stage removals. Nothing
// touches the underlying store until SaveChanges, which flushes every
// staged write, every tracked aggregate that changed since it was loaded,
// and every staged delete in one batch.
//
// A session is not safe for concurrent use. Absent documents are reported
// as nil results, never as errors.
type Session interface {
	// LoadUser returns the user with the given key, or nil if absent.
	LoadUser(ctx context.Context, id string) (*entity.User, error)

	// LoadRole returns the role with the given key, or nil if absent.
	LoadRole(ctx context.Context, id int64) (*entity.Role, error)

	// QueryUsers returns the users matching f. A nil filter matches all.
	QueryUsers(ctx context.Context, f query.UserFilter) ([]*entity.User, error)

	// QueryRoles returns the roles matching f. A nil filter matches all.
	QueryRoles(ctx context.Context, f query.RoleFilter) ([]*entity.Role, error)

	// StoreUser stages u to be written at the next SaveChanges.
	StoreUser(ctx context.Context, u *entity.User) error

	// StoreRole stages r to be written at the next SaveChanges.
	StoreRole(ctx context.Context, r *entity.Role) error

	// DeleteUser stages removal of u at the next SaveChanges.
	DeleteUser(ctx context.Context, u *entity.User) error

	// DeleteRole stages removal of r at the next SaveChanges.
	DeleteRole(ctx context.Context, r *entity.Role) error

	// SaveChanges flushes all pending work in one batch.
	SaveChanges(ctx context.Context) error
}
