package session

import (
	"context"

	"github.com/crowdbase/identity-service/internal/apperrors"
	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/query"
)

// MemorySession is a map-backed Session with the same unit-of-work
// semantics as MongoSession. It backs tests and dry runs; filters execute
// through their Matches reference implementation.
type MemorySession struct {
	users map[string]entity.UserData
	roles map[int64]entity.RoleData

	trackedUsers map[string]*trackedUser
	trackedRoles map[int64]*trackedRole
	storedUsers  map[string]*entity.User
	storedRoles  map[int64]*entity.Role
	deletedUsers map[string]struct{}
	deletedRoles map[int64]struct{}
}

// NewMemorySession returns an empty in-memory session.
func NewMemorySession() *MemorySession {
	return &MemorySession{
		users:        make(map[string]entity.UserData),
		roles:        make(map[int64]entity.RoleData),
		trackedUsers: make(map[string]*trackedUser),
		trackedRoles: make(map[int64]*trackedRole),
		storedUsers:  make(map[string]*entity.User),
		storedRoles:  make(map[int64]*entity.Role),
		deletedUsers: make(map[string]struct{}),
		deletedRoles: make(map[int64]struct{}),
	}
}

// LoadUser returns the user with the given key, or nil if absent.
func (s *MemorySession) LoadUser(_ context.Context, id string) (*entity.User, error) {
	if id == "" {
		return nil, apperrors.InvalidArgumentf("user id is empty")
	}
	if _, gone := s.deletedUsers[id]; gone {
		return nil, nil
	}
	if t, ok := s.trackedUsers[id]; ok {
		return t.user, nil
	}
	if u, ok := s.storedUsers[id]; ok {
		return u, nil
	}
	d, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return s.track(d), nil
}

// LoadRole returns the role with the given key, or nil if absent.
func (s *MemorySession) LoadRole(_ context.Context, id int64) (*entity.Role, error) {
	if _, gone := s.deletedRoles[id]; gone {
		return nil, nil
	}
	if t, ok := s.trackedRoles[id]; ok {
		return t.role, nil
	}
	if r, ok := s.storedRoles[id]; ok {
		return r, nil
	}
	d, ok := s.roles[id]
	if !ok {
		return nil, nil
	}
	return s.trackR(d), nil
}

// QueryUsers returns the users matching f. A nil filter matches all.
func (s *MemorySession) QueryUsers(_ context.Context, f query.UserFilter) ([]*entity.User, error) {
	out := make([]*entity.User, 0)
	for id, d := range s.users {
		if _, gone := s.deletedUsers[id]; gone {
			continue
		}
		u := s.track(d)
		if f == nil || f.Matches(u) {
			out = append(out, u)
		}
	}
	return out, nil
}

// QueryRoles returns the roles matching f. A nil filter matches all.
func (s *MemorySession) QueryRoles(_ context.Context, f query.RoleFilter) ([]*entity.Role, error) {
	out := make([]*entity.Role, 0)
	for id, d := range s.roles {
		if _, gone := s.deletedRoles[id]; gone {
			continue
		}
		r := s.trackR(d)
		if f == nil || f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// StoreUser stages u to be written at the next SaveChanges.
func (s *MemorySession) StoreUser(_ context.Context, u *entity.User) error {
	if u == nil {
		return apperrors.ArgumentNull("user")
	}
	delete(s.deletedUsers, u.ID())
	s.storedUsers[u.ID()] = u
	return nil
}

// StoreRole stages r to be written at the next SaveChanges.
func (s *MemorySession) StoreRole(_ context.Context, r *entity.Role) error {
	if r == nil {
		return apperrors.ArgumentNull("role")
	}
	delete(s.deletedRoles, r.ID())
	s.storedRoles[r.ID()] = r
	return nil
}

// DeleteUser stages removal of u at the next SaveChanges.
func (s *MemorySession) DeleteUser(_ context.Context, u *entity.User) error {
	if u == nil {
		return apperrors.ArgumentNull("user")
	}
	delete(s.storedUsers, u.ID())
	delete(s.trackedUsers, u.ID())
	s.deletedUsers[u.ID()] = struct{}{}
	return nil
}

// DeleteRole stages removal of r at the next SaveChanges.
func (s *MemorySession) DeleteRole(_ context.Context, r *entity.Role) error {
	if r == nil {
		return apperrors.ArgumentNull("role")
	}
	delete(s.storedRoles, r.ID())
	delete(s.trackedRoles, r.ID())
	s.deletedRoles[r.ID()] = struct{}{}
	return nil
}

// SaveChanges applies staged writes, changed tracked aggregates, and
// staged deletes to the backing maps.
func (s *MemorySession) SaveChanges(_ context.Context) error {
	for id, u := range s.storedUsers {
		s.users[id] = u.Snapshot()
	}
	for id, t := range s.trackedUsers {
		if _, staged := s.storedUsers[id]; staged {
			continue
		}
		snap := t.user.Snapshot()
		if !userDataEqual(snap, t.origin) {
			s.users[id] = snap
		}
	}
	for id := range s.deletedUsers {
		delete(s.users, id)
	}

	for id, r := range s.storedRoles {
		s.roles[id] = r.Snapshot()
	}
	for id, t := range s.trackedRoles {
		if _, staged := s.storedRoles[id]; staged {
			continue
		}
		snap := t.role.Snapshot()
		if !roleDataEqual(snap, t.origin) {
			s.roles[id] = snap
		}
	}
	for id := range s.deletedRoles {
		delete(s.roles, id)
	}

	s.settleMemory()
	return nil
}

func (s *MemorySession) settleMemory() {
	for id, u := range s.storedUsers {
		s.trackedUsers[id] = &trackedUser{user: u, origin: u.Snapshot()}
	}
	for _, t := range s.trackedUsers {
		t.origin = t.user.Snapshot()
	}
	for id, r := range s.storedRoles {
		s.trackedRoles[id] = &trackedRole{role: r, origin: r.Snapshot()}
	}
	for _, t := range s.trackedRoles {
		t.origin = t.role.Snapshot()
	}
	s.storedUsers = make(map[string]*entity.User)
	s.storedRoles = make(map[int64]*entity.Role)
	s.deletedUsers = make(map[string]struct{})
	s.deletedRoles = make(map[int64]struct{})
}

func (s *MemorySession) track(d entity.UserData) *entity.User {
	if t, ok := s.trackedUsers[d.ID]; ok {
		return t.user
	}
	u := entity.RehydrateUser(d)
	s.trackedUsers[d.ID] = &trackedUser{user: u, origin: u.Snapshot()}
	return u
}

func (s *MemorySession) trackR(d entity.RoleData) *entity.Role {
	if t, ok := s.trackedRoles[d.ID]; ok {
		return t.role
	}
	r := entity.RehydrateRole(d)
	s.trackedRoles[d.ID] = &trackedRole{role: r, origin: r.Snapshot()}
	return r
}
