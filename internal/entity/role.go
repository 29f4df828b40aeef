package entity

import (
	"github.com/crowdbase/identity-service/internal/apperrors"
)

// Role is the role aggregate root: an integer key, a name, and an owned
// claim collection. Like User it is frozen by default.
type Role struct {
	id     int64
	name   string
	claims []Claim
}

// EmptyRole is the shared sentinel for an uninitialized role reference.
var EmptyRole = &Role{}

// NewRole creates a role with the given key and name.
func NewRole(id int64, name string) (*Role, error) {
	if name == "" {
		return nil, apperrors.InvalidArgumentf("role name is empty")
	}
	return &Role{id: id, name: name}, nil
}

// RoleData is a plain snapshot of a role's state for store adapters.
type RoleData struct {
	ID     int64
	Name   string
	Claims []Claim
}

// RehydrateRole builds a role aggregate from stored state.
func RehydrateRole(d RoleData) *Role {
	return &Role{
		id:     d.ID,
		name:   d.Name,
		claims: append([]Claim(nil), d.Claims...),
	}
}

// Snapshot returns a copy of the role's state.
func (r *Role) Snapshot() RoleData {
	return RoleData{
		ID:     r.id,
		Name:   r.name,
		Claims: append([]Claim(nil), r.claims...),
	}
}

func (r *Role) ID() int64    { return r.id }
func (r *Role) Name() string { return r.name }

// Claims returns a copy of the claim collection.
func (r *Role) Claims() []Claim { return append([]Claim(nil), r.claims...) }

// ClaimsOfType returns every claim whose type matches exactly.
func (r *Role) ClaimsOfType(claimType string) []Claim {
	var out []Claim
	for _, c := range r.claims {
		if c.Type == claimType {
			out = append(out, c)
		}
	}
	return out
}

// Mutate grants write access to the aggregate. It fails on the EmptyRole
// sentinel.
func (r *Role) Mutate() (*RoleMutator, error) {
	if r == nil {
		return nil, apperrors.ArgumentNull("role")
	}
	if r == EmptyRole {
		return nil, apperrors.InvalidOperationf("cannot mutate the empty role sentinel")
	}
	return &RoleMutator{r: r}, nil
}

// RoleMutator is the transient write capability for a role aggregate.
type RoleMutator struct {
	r *Role
}

// Freeze returns the underlying aggregate, safe to read again.
func (m *RoleMutator) Freeze() *Role { return m.r }

// SetName renames the role.
func (m *RoleMutator) SetName(name string) error {
	if name == "" {
		return apperrors.InvalidOperationf("role name is empty")
	}
	m.r.name = name
	return nil
}

// AddClaim appends a claim unconditionally.
func (m *RoleMutator) AddClaim(claimType, value string) *RoleMutator {
	m.r.claims = append(m.r.claims, Claim{Type: claimType, Value: value})
	return m
}

// ReplaceClaimByType overwrites the value of the first claim with the given
// type; a role without such a claim is left unchanged.
func (m *RoleMutator) ReplaceClaimByType(claimType, value string) *RoleMutator {
	for i := range m.r.claims {
		if m.r.claims[i].Type == claimType {
			m.r.claims[i].Value = value
			break
		}
	}
	return m
}

// RemoveClaimsByType removes every claim whose type matches any of the
// given types.
func (m *RoleMutator) RemoveClaimsByType(claimTypes ...string) *RoleMutator {
	kept := m.r.claims[:0]
	for _, c := range m.r.claims {
		if !containsString(claimTypes, c.Type) {
			kept = append(kept, c)
		}
	}
	m.r.claims = kept
	return m
}
