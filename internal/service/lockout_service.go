package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/session"
)

// UserLockoutService tracks the failed-access counter and the lockout-end
// timestamp directly as aggregate fields.
type UserLockoutService struct {
	session session.Session
	logger  *zap.Logger
}

func NewUserLockoutService(sess session.Session, logger *zap.Logger) *UserLockoutService {
	return &UserLockoutService{session: sess, logger: logger.Named("UserLockoutService")}
}

// LockoutEnd returns the lockout-end timestamp, nil when not locked out.
func (s *UserLockoutService) LockoutEnd(_ context.Context, u *entity.User) (*time.Time, error) {
	return u.LockoutEnd(), nil
}

// SetLockoutEnd sets or clears the lockout-end timestamp.
func (s *UserLockoutService) SetLockoutEnd(_ context.Context, u *entity.User, end *time.Time) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	m.SetLockoutEnd(end)
	if end != nil {
		s.logger.Info("User locked out", zap.String("userID", u.ID()), zap.Time("until", *end))
	}
	return nil
}

// IncrementAccessFailedCount bumps the counter and returns the new value.
func (s *UserLockoutService) IncrementAccessFailedCount(_ context.Context, u *entity.User) (int, error) {
	m, err := u.Mutate()
	if err != nil {
		return 0, err
	}
	return m.IncrementAccessFailedCount(), nil
}

// ResetAccessFailedCount zeroes the counter.
func (s *UserLockoutService) ResetAccessFailedCount(_ context.Context, u *entity.User) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	m.ResetAccessFailedCount()
	return nil
}

// AccessFailedCount returns the current counter value.
func (s *UserLockoutService) AccessFailedCount(_ context.Context, u *entity.User) (int, error) {
	return u.AccessFailedCount(), nil
}

// LockoutEnabled reports whether lockout applies to this user.
func (s *UserLockoutService) LockoutEnabled(_ context.Context, u *entity.User) (bool, error) {
	return u.LockoutEnabled(), nil
}

// SetLockoutEnabled flips whether lockout applies to this user.
func (s *UserLockoutService) SetLockoutEnabled(_ context.Context, u *entity.User, enabled bool) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	m.SetLockoutEnabled(enabled)
	return nil
}
