package adapter

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/apperrors"
	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/membership"
	"github.com/crowdbase/identity-service/internal/service"
	"github.com/crowdbase/identity-service/internal/session"
)

// RoleStore implements every role-side membership capability.
type RoleStore struct {
	roles  *service.RoleService
	logger *zap.Logger
	closed atomic.Bool
}

var _ membership.FullRoleStore = (*RoleStore)(nil)

// NewRoleStore builds the façade and its role service over sess.
func NewRoleStore(sess session.Session, logger *zap.Logger) *RoleStore {
	return &RoleStore{
		roles:  service.NewRoleService(sess, logger),
		logger: logger.Named("RoleStore"),
	}
}

// Close flips the disposal flag. Idempotent; flushes nothing.
func (s *RoleStore) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *RoleStore) guard(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return apperrors.Disposed("role store")
	}
	return nil
}

func (s *RoleStore) guardRole(ctx context.Context, r *entity.Role) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if r == nil {
		return apperrors.ArgumentNull("role")
	}
	return nil
}

func (s *RoleStore) RoleID(ctx context.Context, r *entity.Role) (string, error) {
	if err := s.guardRole(ctx, r); err != nil {
		return "", err
	}
	return s.roles.RoleID(ctx, r)
}

func (s *RoleStore) RoleName(ctx context.Context, r *entity.Role) (string, error) {
	if err := s.guardRole(ctx, r); err != nil {
		return "", err
	}
	return s.roles.RoleName(ctx, r)
}

func (s *RoleStore) SetRoleName(ctx context.Context, r *entity.Role, name string) error {
	if err := s.guardRole(ctx, r); err != nil {
		return err
	}
	return s.roles.SetRoleName(ctx, r, name)
}

func (s *RoleStore) CreateRole(ctx context.Context, r *entity.Role) error {
	if err := s.guardRole(ctx, r); err != nil {
		return err
	}
	return s.roles.Create(ctx, r)
}

func (s *RoleStore) UpdateRole(ctx context.Context, r *entity.Role) error {
	if err := s.guardRole(ctx, r); err != nil {
		return err
	}
	return s.roles.Update(ctx, r)
}

func (s *RoleStore) DeleteRole(ctx context.Context, r *entity.Role) error {
	if err := s.guardRole(ctx, r); err != nil {
		return err
	}
	return s.roles.Delete(ctx, r)
}

func (s *RoleStore) FindRoleByID(ctx context.Context, id string) (*entity.Role, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.roles.FindByID(ctx, id)
}

func (s *RoleStore) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.roles.FindByName(ctx, name)
}

func (s *RoleStore) RoleClaims(ctx context.Context, r *entity.Role) ([]entity.Claim, error) {
	if err := s.guardRole(ctx, r); err != nil {
		return nil, err
	}
	return s.roles.Claims(ctx, r)
}

func (s *RoleStore) AddRoleClaim(ctx context.Context, r *entity.Role, c entity.Claim) error {
	if err := s.guardRole(ctx, r); err != nil {
		return err
	}
	return s.roles.AddClaim(ctx, r, c)
}

func (s *RoleStore) RemoveRoleClaim(ctx context.Context, r *entity.Role, c entity.Claim) error {
	if err := s.guardRole(ctx, r); err != nil {
		return err
	}
	return s.roles.RemoveClaim(ctx, r, c)
}

func (s *RoleStore) AllRoles(ctx context.Context) ([]*entity.Role, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}
	return s.roles.All(ctx)
}
