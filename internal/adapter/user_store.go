// Package adapter provides the store façade: one concrete type per
// aggregate implementing the full membership capability contract by
// delegating to the per-concern services. The façade owns the uniform
// per-call preamble (cancellation, disposal, nil arguments) and contains
// no business logic of its own.
package adapter

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/apperrors"
	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/membership"
	"github.com/crowdbase/identity-service/internal/service"
	"github.com/crowdbase/identity-service/internal/session"
)

// UserStore implements every user-side membership capability.
type UserStore struct {
	users     *service.UserService
	emails    *service.UserEmailService
	claims    *service.UserClaimService
	logins    *service.UserLoginService
	roles     *service.UserRoleService
	passwords *service.UserPasswordService
	stamps    *service.UserSecurityStampService
	phones    *service.UserPhoneNumberService
	twoFactor *service.UserTwoFactorService
	lockout   *service.UserLockoutService
	logger    *zap.Logger
	closed    atomic.Bool
}

var _ membership.FullUserStore = (*UserStore)(nil)

// NewUserStore builds the façade and its per-concern services over sess.
func NewUserStore(sess session.Session, logger *zap.Logger) *UserStore {
	return &UserStore{
		users:     service.NewUserService(sess, logger),
		emails:    service.NewUserEmailService(sess, logger),
		claims:    service.NewUserClaimService(sess, logger),
		logins:    service.NewUserLoginService(sess, logger),
		roles:     service.NewUserRoleService(sess, logger),
		passwords: service.NewUserPasswordService(sess, logger),
		stamps:    service.NewUserSecurityStampService(sess, logger),
		phones:    service.NewUserPhoneNumberService(sess, logger),
		twoFactor: service.NewUserTwoFactorService(sess, logger),
		lockout:   service.NewUserLockoutService(sess, logger),
		logger:    logger.Named("UserStore"),
	}
}

// Close flips the disposal flag. It is idempotent, synchronous, and does
// not flush pending session work.
func (s *UserStore) Close() error {
	s.closed.Store(true)
	return nil
}

// guard runs the uniform preamble: cancellation first, then disposal.
func (s *UserStore) guard(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return apperrors.Disposed("user store")
	}
	return nil
}

func (s *UserStore) guardUser(ctx context.Context, u *entity.User) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if u == nil {
		return apperrors.ArgumentNull("user")
	}
	return nil
}

func (s *UserStore) UserID(ctx context.Context, u *entity.User) (string, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return "", err
	}
	return s.users.UserID(ctx, u)
}

func (s *UserStore) UserName(ctx context.Context, u *entity.User) (string, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return "", err
	}
	return s.users.UserName(ctx, u)
}

func (s *UserStore) SetUserName(ctx context.Context, u *entity.User, name string) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.users.SetUserName(ctx, u, name)
}

func (s *UserStore) CreateUser(ctx context.Context, u *entity.User) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.users.Create(ctx, u)
}

func (s *UserStore) UpdateUser(ctx context.Context, u *entity.User) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.users.Update(ctx, u)
}

func (s *UserStore) DeleteUser(ctx context.Context, u *entity.User) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.users.Delete(ctx, u)
}

func (s *UserStore) FindUserByID(ctx context.Context, id string) (*entity.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, id)
}

func (s *UserStore) FindUserByName(ctx context.Context, name string) (*entity.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.users.FindByName(ctx, name)
}

func (s *UserStore) Email(ctx context.Context, u *entity.User) (string, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return "", err
	}
	return s.emails.Email(ctx, u)
}

func (s *UserStore) SetEmail(ctx context.Context, u *entity.User, email string) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.emails.SetEmail(ctx, u, email)
}

func (s *UserStore) EmailConfirmed(ctx context.Context, u *entity.User) (bool, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return false, err
	}
	return s.emails.EmailConfirmed(ctx, u)
}

func (s *UserStore) SetEmailConfirmed(ctx context.Context, u *entity.User, confirmed bool) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.emails.SetEmailConfirmed(ctx, u, confirmed)
}

func (s *UserStore) FindUserByEmail(ctx context.Context, normalizedEmail string) (*entity.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.emails.FindByEmail(ctx, normalizedEmail)
}

func (s *UserStore) Claims(ctx context.Context, u *entity.User) ([]entity.Claim, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return nil, err
	}
	return s.claims.Claims(ctx, u)
}

func (s *UserStore) AddClaims(ctx context.Context, u *entity.User, claims []entity.Claim) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	if claims == nil {
		return apperrors.ArgumentNull("claims")
	}
	return s.claims.AddClaims(ctx, u, claims)
}

func (s *UserStore) ReplaceClaim(ctx context.Context, u *entity.User, old, replacement entity.Claim) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.claims.ReplaceClaim(ctx, u, old, replacement)
}

func (s *UserStore) RemoveClaims(ctx context.Context, u *entity.User, claims []entity.Claim) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	if claims == nil {
		return apperrors.ArgumentNull("claims")
	}
	return s.claims.RemoveClaims(ctx, u, claims)
}

func (s *UserStore) UsersForClaim(ctx context.Context, claimType string) ([]*entity.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.claims.UsersForClaim(ctx, claimType)
}

func (s *UserStore) Logins(ctx context.Context, u *entity.User) ([]entity.Login, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return nil, err
	}
	return s.logins.Logins(ctx, u)
}

func (s *UserStore) AddLogin(ctx context.Context, u *entity.User, l entity.Login) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.logins.AddLogin(ctx, u, l)
}

func (s *UserStore) RemoveLogin(ctx context.Context, u *entity.User, provider, key string) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.logins.RemoveLogin(ctx, u, provider, key)
}

func (s *UserStore) FindUserByLogin(ctx context.Context, provider, key string) (*entity.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.logins.FindByLogin(ctx, provider, key)
}

func (s *UserStore) AddToRole(ctx context.Context, u *entity.User, roleName string) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.roles.AddToRole(ctx, u, roleName)
}

func (s *UserStore) RemoveFromRole(ctx context.Context, u *entity.User, roleName string) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.roles.RemoveFromRole(ctx, u, roleName)
}

func (s *UserStore) Roles(ctx context.Context, u *entity.User) ([]string, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return nil, err
	}
	return s.roles.Roles(ctx, u)
}

func (s *UserStore) IsInRole(ctx context.Context, u *entity.User, roleName string) (bool, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return false, err
	}
	return s.roles.IsInRole(ctx, u, roleName)
}

func (s *UserStore) UsersInRole(ctx context.Context, roleName string) ([]*entity.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.roles.UsersInRole(ctx, roleName)
}

func (s *UserStore) PasswordHash(ctx context.Context, u *entity.User) (string, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return "", err
	}
	return s.passwords.PasswordHash(ctx, u)
}

func (s *UserStore) SetPasswordHash(ctx context.Context, u *entity.User, hash string) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.passwords.SetPasswordHash(ctx, u, hash)
}

func (s *UserStore) HasPassword(ctx context.Context, u *entity.User) (bool, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return false, err
	}
	return s.passwords.HasPassword(ctx, u)
}

func (s *UserStore) SecurityStamp(ctx context.Context, u *entity.User) (string, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return "", err
	}
	return s.stamps.SecurityStamp(ctx, u)
}

func (s *UserStore) SetSecurityStamp(ctx context.Context, u *entity.User, stamp string) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.stamps.SetSecurityStamp(ctx, u, stamp)
}

func (s *UserStore) PhoneNumber(ctx context.Context, u *entity.User) (string, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return "", err
	}
	return s.phones.PhoneNumber(ctx, u)
}

func (s *UserStore) SetPhoneNumber(ctx context.Context, u *entity.User, number string) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.phones.SetPhoneNumber(ctx, u, number)
}

func (s *UserStore) PhoneNumberConfirmed(ctx context.Context, u *entity.User) (bool, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return false, err
	}
	return s.phones.PhoneNumberConfirmed(ctx, u)
}

func (s *UserStore) SetPhoneNumberConfirmed(ctx context.Context, u *entity.User, confirmed bool) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.phones.SetPhoneNumberConfirmed(ctx, u, confirmed)
}

func (s *UserStore) TwoFactorEnabled(ctx context.Context, u *entity.User) (bool, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return false, err
	}
	return s.twoFactor.TwoFactorEnabled(ctx, u)
}

func (s *UserStore) SetTwoFactorEnabled(ctx context.Context, u *entity.User, enabled bool) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.twoFactor.SetTwoFactorEnabled(ctx, u, enabled)
}

func (s *UserStore) LockoutEnd(ctx context.Context, u *entity.User) (*time.Time, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return nil, err
	}
	return s.lockout.LockoutEnd(ctx, u)
}

func (s *UserStore) SetLockoutEnd(ctx context.Context, u *entity.User, end *time.Time) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.lockout.SetLockoutEnd(ctx, u, end)
}

func (s *UserStore) IncrementAccessFailedCount(ctx context.Context, u *entity.User) (int, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return 0, err
	}
	return s.lockout.IncrementAccessFailedCount(ctx, u)
}

func (s *UserStore) ResetAccessFailedCount(ctx context.Context, u *entity.User) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.lockout.ResetAccessFailedCount(ctx, u)
}

func (s *UserStore) AccessFailedCount(ctx context.Context, u *entity.User) (int, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return 0, err
	}
	return s.lockout.AccessFailedCount(ctx, u)
}

func (s *UserStore) LockoutEnabled(ctx context.Context, u *entity.User) (bool, error) {
	if err := s.guardUser(ctx, u); err != nil {
		return false, err
	}
	return s.lockout.LockoutEnabled(ctx, u)
}

func (s *UserStore) SetLockoutEnabled(ctx context.Context, u *entity.User, enabled bool) error {
	if err := s.guardUser(ctx, u); err != nil {
		return err
	}
	return s.lockout.SetLockoutEnabled(ctx, u, enabled)
}

func (s *UserStore) Users(ctx context.Context) ([]*entity.User, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.users.All(ctx)
}
