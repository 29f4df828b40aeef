package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/session"
)

// UserTwoFactorService reads and writes the two-factor flag.
type UserTwoFactorService struct {
	session session.Session
	logger  *zap.Logger
}

func NewUserTwoFactorService(sess session.Session, logger *zap.Logger) *UserTwoFactorService {
	return &UserTwoFactorService{session: sess, logger: logger.Named("UserTwoFactorService")}
}

// TwoFactorEnabled reports whether two-factor is enabled for the user.
func (s *UserTwoFactorService) TwoFactorEnabled(_ context.Context, u *entity.User) (bool, error) {
	return u.TwoFactorEnabled(), nil
}

// SetTwoFactorEnabled flips the two-factor flag.
func (s *UserTwoFactorService) SetTwoFactorEnabled(_ context.Context, u *entity.User, enabled bool) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	m.SetTwoFactorEnabled(enabled)
	return nil
}
