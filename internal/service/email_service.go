package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/query"
	"github.com/crowdbase/identity-service/internal/session"
)

// UserEmailService covers the email slice of identity. The email of record
// is the primary entry, which is also the sign-in name, so SetEmail runs
// the same primary-email transition as SetUserName.
type UserEmailService struct {
	session session.Session
	logger  *zap.Logger
}

func NewUserEmailService(sess session.Session, logger *zap.Logger) *UserEmailService {
	return &UserEmailService{session: sess, logger: logger.Named("UserEmailService")}
}

// Email returns the primary email address.
func (s *UserEmailService) Email(_ context.Context, u *entity.User) (string, error) {
	return u.UserName()
}

// SetEmail makes email the new primary address via the username transition.
func (s *UserEmailService) SetEmail(_ context.Context, u *entity.User, email string) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	return m.SetUserName(email)
}

// EmailConfirmed reports whether the primary email is confirmed.
func (s *UserEmailService) EmailConfirmed(_ context.Context, u *entity.User) (bool, error) {
	e, ok := u.PrimaryEmail()
	if !ok {
		// Same failure as reading the user name: there is nothing to confirm.
		_, err := u.UserName()
		return false, err
	}
	return e.Confirmed, nil
}

// SetEmailConfirmed flips the confirmation flag on the primary email.
func (s *UserEmailService) SetEmailConfirmed(_ context.Context, u *entity.User, confirmed bool) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	if err := m.ConfirmPrimaryEmail(confirmed); err != nil {
		return err
	}
	s.logger.Info("Primary email confirmation updated",
		zap.String("userID", u.ID()), zap.Bool("confirmed", confirmed))
	return nil
}

// FindByEmail returns the user whose primary email equals normalizedEmail,
// or nil. Matching is exact; the caller owns normalization.
func (s *UserEmailService) FindByEmail(ctx context.Context, normalizedEmail string) (*entity.User, error) {
	f, err := query.ByEmail(normalizedEmail)
	if err != nil {
		return nil, err
	}
	users, err := s.session.QueryUsers(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}
