// Package service implements the per-concern identity services. Each
// service wraps the document session plus the aggregate's mutation
// operations for one cohesive slice of identity behavior. Argument
// validation happens at the store façade; services assume non-nil input
// and surface only the domain errors intrinsic to their operation.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/query"
	"github.com/crowdbase/identity-service/internal/session"
)

// UserService covers the user lifecycle and the sign-in-name operations.
type UserService struct {
	session session.Session
	logger  *zap.Logger
}

func NewUserService(sess session.Session, logger *zap.Logger) *UserService {
	return &UserService{session: sess, logger: logger.Named("UserService")}
}

// UserID returns the user's stored primary key.
func (s *UserService) UserID(_ context.Context, u *entity.User) (string, error) {
	return u.ID(), nil
}

// UserName returns the user's sign-in name, the primary email address.
func (s *UserService) UserName(_ context.Context, u *entity.User) (string, error) {
	return u.UserName()
}

// SetUserName runs the primary-email transition on the aggregate.
func (s *UserService) SetUserName(_ context.Context, u *entity.User, name string) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	if err := m.SetUserName(name); err != nil {
		return err
	}
	s.logger.Info("User name set", zap.String("userID", u.ID()))
	return nil
}

// Create stages the user and flushes. The store and the flush are two
// sequential calls; a crash between them is the caller's accepted risk.
func (s *UserService) Create(ctx context.Context, u *entity.User) error {
	if err := s.session.StoreUser(ctx, u); err != nil {
		return err
	}
	if err := s.session.SaveChanges(ctx); err != nil {
		s.logger.Error("Failed to flush user creation", zap.String("userID", u.ID()), zap.Error(err))
		return err
	}
	s.logger.Info("User created", zap.String("userID", u.ID()))
	return nil
}

// Update flushes the session; the session's change tracking picks up every
// mutation made to the loaded aggregate.
func (s *UserService) Update(ctx context.Context, u *entity.User) error {
	if err := s.session.SaveChanges(ctx); err != nil {
		s.logger.Error("Failed to flush user update", zap.String("userID", u.ID()), zap.Error(err))
		return err
	}
	s.logger.Info("User updated", zap.String("userID", u.ID()))
	return nil
}

// Delete stages removal and flushes.
func (s *UserService) Delete(ctx context.Context, u *entity.User) error {
	if err := s.session.DeleteUser(ctx, u); err != nil {
		return err
	}
	if err := s.session.SaveChanges(ctx); err != nil {
		s.logger.Error("Failed to flush user deletion", zap.String("userID", u.ID()), zap.Error(err))
		return err
	}
	s.logger.Info("User deleted", zap.String("userID", u.ID()))
	return nil
}

// FindByID returns the user with the given key, or nil if absent.
func (s *UserService) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return s.session.LoadUser(ctx, id)
}

// FindByName returns the user whose sign-in name equals name, or nil.
func (s *UserService) FindByName(ctx context.Context, name string) (*entity.User, error) {
	f, err := query.ByUserName(name)
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

// All returns every user in the store.
func (s *UserService) All(ctx context.Context) ([]*entity.User, error) {
	return s.session.QueryUsers(ctx, nil)
}
