package entity

import (
	"net/mail"
	"time"

	"github.com/crowdbase/identity-service/internal/apperrors"
)

// Email is one address owned by a user. A user's sign-in name is defined as
// the address of the entry with Primary set; at most one entry is primary.
type Email struct {
	Address   string
	Confirmed bool
	Primary   bool
}

// Login is an external-provider credential binding, identified by the
// (Provider, Key) pair.
type Login struct {
	Provider    string
	DisplayName string
	Key         string
}

// Claim is a typed key/value fact attached to a user or role.
type Claim struct {
	Type  string
	Value string
}

// User is the identity aggregate root. It is read-only from outside the
// package; all writes go through a UserMutator obtained via Mutate.
type User struct {
	id                   string
	passwordHash         string
	phoneNumber          string
	phoneNumberConfirmed bool
	active               bool
	twoFactorEnabled     bool
	lockoutEnabled       bool
	lockoutEnd           *time.Time
	accessFailedCount    int
	securityStamp        string
	emails               []Email
	logins               []Login
	roles                []string
	claims               []Claim
}

// EmptyUser is the shared sentinel for an uninitialized user reference.
// Mutate fails on it.
var EmptyUser = &User{}

// NewUser creates a user with the given id and no emails, logins, roles or
// claims. The user has no sign-in name until SetUserName is called.
func NewUser(id string) (*User, error) {
	if id == "" {
		return nil, apperrors.InvalidArgumentf("user id is empty")
	}
	return &User{id: id, active: true}, nil
}

// UserData is a plain snapshot of a user's state, used by store adapters to
// rehydrate aggregates from documents and to serialize them back.
type UserData struct {
	ID                   string
	PasswordHash         string
	PhoneNumber          string
	PhoneNumberConfirmed bool
	Active               bool
	TwoFactorEnabled     bool
	LockoutEnabled       bool
	LockoutEnd           *time.Time
	AccessFailedCount    int
	SecurityStamp        string
	Emails               []Email
	Logins               []Login
	Roles                []string
	Claims               []Claim
}

// RehydrateUser builds a user aggregate from stored state. This is the
// deserialization path; invariants are not re-checked because the data is
// assumed to have been written through the aggregate in the first place.
func RehydrateUser(d UserData) *User {
	return &User{
		id:                   d.ID,
		passwordHash:         d.PasswordHash,
		phoneNumber:          d.PhoneNumber,
		phoneNumberConfirmed: d.PhoneNumberConfirmed,
		active:               d.Active,
		twoFactorEnabled:     d.TwoFactorEnabled,
		lockoutEnabled:       d.LockoutEnabled,
		lockoutEnd:           copyTime(d.LockoutEnd),
		accessFailedCount:    d.AccessFailedCount,
		securityStamp:        d.SecurityStamp,
		emails:               append([]Email(nil), d.Emails...),
		logins:               append([]Login(nil), d.Logins...),
		roles:                append([]string(nil), d.Roles...),
		claims:               append([]Claim(nil), d.Claims...),
	}
}

// Snapshot returns a copy of the user's state. Mutating the snapshot does
// not affect the aggregate.
func (u *User) Snapshot() UserData {
	return UserData{
		ID:                   u.id,
		PasswordHash:         u.passwordHash,
		PhoneNumber:          u.phoneNumber,
		PhoneNumberConfirmed: u.phoneNumberConfirmed,
		Active:               u.active,
		TwoFactorEnabled:     u.twoFactorEnabled,
		LockoutEnabled:       u.lockoutEnabled,
		LockoutEnd:           copyTime(u.lockoutEnd),
		AccessFailedCount:    u.accessFailedCount,
		SecurityStamp:        u.securityStamp,
		Emails:               append([]Email(nil), u.emails...),
		Logins:               append([]Login(nil), u.logins...),
		Roles:                append([]string(nil), u.roles...),
		Claims:               append([]Claim(nil), u.claims...),
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func (u *User) ID() string                 { return u.id }
func (u *User) PasswordHash() string       { return u.passwordHash }
func (u *User) HasPassword() bool          { return u.passwordHash != "" }
func (u *User) PhoneNumber() string        { return u.phoneNumber }
func (u *User) PhoneNumberConfirmed() bool { return u.phoneNumberConfirmed }
func (u *User) Active() bool               { return u.active }
func (u *User) TwoFactorEnabled() bool     { return u.twoFactorEnabled }
func (u *User) LockoutEnabled() bool       { return u.lockoutEnabled }
func (u *User) LockoutEnd() *time.Time     { return copyTime(u.lockoutEnd) }
func (u *User) AccessFailedCount() int     { return u.accessFailedCount }
func (u *User) SecurityStamp() string      { return u.securityStamp }

// Emails returns a copy of the email collection.
func (u *User) Emails() []Email { return append([]Email(nil), u.emails...) }

// Logins returns a copy of the login collection.
func (u *User) Logins() []Login { return append([]Login(nil), u.logins...) }

// Roles returns a copy of the role-name collection.
func (u *User) Roles() []string { return append([]string(nil), u.roles...) }

// Claims returns a copy of the claim collection.
func (u *User) Claims() []Claim { return append([]Claim(nil), u.claims...) }

// PrimaryEmail returns the email entry marked primary, if any.
func (u *User) PrimaryEmail() (Email, bool) {
	for _, e := range u.emails {
		if e.Primary {
			return e, true
		}
	}
	return Email{}, false
}

// UserName returns the address of the primary email. A user with no primary
// email has no sign-in name yet, which is an invalid state to read.
func (u *User) UserName() (string, error) {
	e, ok := u.PrimaryEmail()
	if !ok {
		return "", apperrors.InvalidOperationf("user %q has no primary email", u.id)
	}
	return e.Address, nil
}

// ClaimsOfType returns every claim whose type matches exactly.
func (u *User) ClaimsOfType(claimType string) []Claim {
	var out []Claim
	for _, c := range u.claims {
		if c.Type == claimType {
			out = append(out, c)
		}
	}
	return out
}

// HasLogin reports whether a login with the given provider and key exists.
func (u *User) HasLogin(provider, key string) bool {
	for _, l := range u.logins {
		if l.Provider == provider && l.Key == key {
			return true
		}
	}
	return false
}

// IsInRole reports whether the user belongs to the named role.
func (u *User) IsInRole(name string) bool {
	for _, r := range u.roles {
		if r == name {
			return true
		}
	}
	return false
}

// Mutate grants write access to the aggregate. It fails on the EmptyUser
// sentinel, which exists only to back uninitialized references.
func (u *User) Mutate() (*UserMutator, error) {
	if u == nil {
		return nil, apperrors.ArgumentNull("user")
	}
	if u == EmptyUser {
		return nil, apperrors.InvalidOperationf("cannot mutate the empty user sentinel")
	}
	return &UserMutator{u: u}, nil
}

// UserMutator is the transient write capability for a user aggregate.
// Every field write funnels through it; Freeze hands the aggregate back.
type UserMutator struct {
	u *User
}

// Freeze returns the underlying aggregate, safe to read again.
func (m *UserMutator) Freeze() *User { return m.u }

// SetUserName makes value the user's sign-in name: the new address is
// appended as an unconfirmed primary entry and every existing entry is
// demoted to secondary, its confirmation status untouched. Entries are
// never removed or merged, so renaming to an address that was already
// present leaves the older entry behind as a stale secondary.
func (m *UserMutator) SetUserName(value string) error {
	if value == "" {
		return apperrors.InvalidOperationf("user name is empty")
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return apperrors.InvalidOperationf("user name %q is not a parseable email address", value)
	}
	for i := range m.u.emails {
		m.u.emails[i].Primary = false
	}
	m.u.emails = append(m.u.emails, Email{Address: value, Confirmed: false, Primary: true})
	return nil
}

// ConfirmPrimaryEmail sets the confirmation flag on the primary email.
func (m *UserMutator) ConfirmPrimaryEmail(confirmed bool) error {
	for i := range m.u.emails {
		if m.u.emails[i].Primary {
			m.u.emails[i].Confirmed = confirmed
			return nil
		}
	}
	return apperrors.InvalidOperationf("user %q has no primary email", m.u.id)
}

// AddSecondaryEmail appends a non-primary address.
func (m *UserMutator) AddSecondaryEmail(address string, confirmed bool) *UserMutator {
	m.u.emails = append(m.u.emails, Email{Address: address, Confirmed: confirmed})
	return m
}

func (m *UserMutator) SetPasswordHash(hash string) *UserMutator {
	m.u.passwordHash = hash
	return m
}

func (m *UserMutator) SetPhoneNumber(number string) *UserMutator {
	m.u.phoneNumber = number
	return m
}

func (m *UserMutator) SetPhoneNumberConfirmed(confirmed bool) *UserMutator {
	m.u.phoneNumberConfirmed = confirmed
	return m
}

func (m *UserMutator) SetActive(active bool) *UserMutator {
	m.u.active = active
	return m
}

func (m *UserMutator) SetTwoFactorEnabled(enabled bool) *UserMutator {
	m.u.twoFactorEnabled = enabled
	return m
}

func (m *UserMutator) SetLockoutEnabled(enabled bool) *UserMutator {
	m.u.lockoutEnabled = enabled
	return m
}

func (m *UserMutator) SetLockoutEnd(end *time.Time) *UserMutator {
	m.u.lockoutEnd = copyTime(end)
	return m
}

func (m *UserMutator) SetSecurityStamp(stamp string) *UserMutator {
	m.u.securityStamp = stamp
	return m
}

// IncrementAccessFailedCount bumps the failed-access counter and returns
// the post-increment value.
func (m *UserMutator) IncrementAccessFailedCount() int {
	m.u.accessFailedCount++
	return m.u.accessFailedCount
}

// ResetAccessFailedCount zeroes the failed-access counter.
func (m *UserMutator) ResetAccessFailedCount() *UserMutator {
	m.u.accessFailedCount = 0
	return m
}

// AddClaim appends a claim unconditionally; duplicates by type are allowed.
func (m *UserMutator) AddClaim(claimType, value string) *UserMutator {
	m.u.claims = append(m.u.claims, Claim{Type: claimType, Value: value})
	return m
}

// ReplaceClaimByType overwrites the value of the first claim with the given
// type. A user without such a claim is left unchanged.
func (m *UserMutator) ReplaceClaimByType(claimType, value string) *UserMutator {
	for i := range m.u.claims {
		if m.u.claims[i].Type == claimType {
			m.u.claims[i].Value = value
			break
		}
	}
	return m
}

// RemoveClaimsByType removes every claim whose type matches any of the
// given types.
func (m *UserMutator) RemoveClaimsByType(claimTypes ...string) *UserMutator {
	kept := m.u.claims[:0]
	for _, c := range m.u.claims {
		if !containsString(claimTypes, c.Type) {
			kept = append(kept, c)
		}
	}
	m.u.claims = kept
	return m
}

// AddLogin appends an external-provider binding.
func (m *UserMutator) AddLogin(l Login) *UserMutator {
	m.u.logins = append(m.u.logins, l)
	return m
}

// RemoveLoginByKey removes the login matching provider and key exactly.
func (m *UserMutator) RemoveLoginByKey(provider, key string) *UserMutator {
	kept := m.u.logins[:0]
	for _, l := range m.u.logins {
		if !(l.Provider == provider && l.Key == key) {
			kept = append(kept, l)
		}
	}
	m.u.logins = kept
	return m
}

// AddRole adds the user to the named role. Adding a role the user already
// has is a no-op.
func (m *UserMutator) AddRole(name string) *UserMutator {
	if !m.u.IsInRole(name) {
		m.u.roles = append(m.u.roles, name)
	}
	return m
}

// RemoveRole removes the user from the named role.
func (m *UserMutator) RemoveRole(name string) *UserMutator {
	kept := m.u.roles[:0]
	for _, r := range m.u.roles {
		if r != name {
			kept = append(kept, r)
		}
	}
	m.u.roles = kept
	return m
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
