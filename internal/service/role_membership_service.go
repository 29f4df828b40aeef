package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/query"
	"github.com/crowdbase/identity-service/internal/session"
)

// UserRoleService covers a user's role memberships, stored as role names
// on the user document.
type UserRoleService struct {
	session session.Session
	logger  *zap.Logger
}

func NewUserRoleService(sess session.Session, logger *zap.Logger) *UserRoleService {
	return &UserRoleService{session: sess, logger: logger.Named("UserRoleService")}
}

// AddToRole adds the user to the named role.
func (s *UserRoleService) AddToRole(_ context.Context, u *entity.User, roleName string) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	m.AddRole(roleName)
	s.logger.Info("User added to role", zap.String("userID", u.ID()), zap.String("role", roleName))
	return nil
}

// RemoveFromRole removes the user from the named role.
func (s *UserRoleService) RemoveFromRole(_ context.Context, u *entity.User, roleName string) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	m.RemoveRole(roleName)
	return nil
}

// Roles projects the user's role names.
func (s *UserRoleService) Roles(_ context.Context, u *entity.User) ([]string, error) {
	return u.Roles(), nil
}

// IsInRole reports whether the user belongs to the named role.
func (s *UserRoleService) IsInRole(_ context.Context, u *entity.User, roleName string) (bool, error) {
	return u.IsInRole(roleName), nil
}

// UsersInRole returns every user belonging to the named role.
func (s *UserRoleService) UsersInRole(ctx context.Context, roleName string) ([]*entity.User, error) {
	return s.session.QueryUsers(ctx, query.ByRole(roleName))
}
