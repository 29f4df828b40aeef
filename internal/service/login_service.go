package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/query"
	"github.com/crowdbase/identity-service/internal/session"
)

// UserLoginService covers external-provider credential bindings. A login
// is identified by its (provider, key) pair; removal is exact-match.
type UserLoginService struct {
	session session.Session
	logger  *zap.Logger
}

func NewUserLoginService(sess session.Session, logger *zap.Logger) *UserLoginService {
	return &UserLoginService{session: sess, logger: logger.Named("UserLoginService")}
}

// Logins projects the user's login collection.
func (s *UserLoginService) Logins(_ context.Context, u *entity.User) ([]entity.Login, error) {
	return u.Logins(), nil
}

// AddLogin appends a provider binding.
func (s *UserLoginService) AddLogin(_ context.Context, u *entity.User, l entity.Login) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	m.AddLogin(l)
	s.logger.Info("Login added", zap.String("userID", u.ID()), zap.String("provider", l.Provider))
	return nil
}

// RemoveLogin removes the binding matching provider and key exactly.
func (s *UserLoginService) RemoveLogin(_ context.Context, u *entity.User, provider, key string) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	m.RemoveLoginByKey(provider, key)
	return nil
}

// FindByLogin returns the user holding the given provider binding, or nil.
func (s *UserLoginService) FindByLogin(ctx context.Context, provider, key string) (*entity.User, error) {
	users, err := s.session.QueryUsers(ctx, query.ByLogin(provider, key))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}
