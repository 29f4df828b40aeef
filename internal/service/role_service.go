package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/query"
	"github.com/crowdbase/identity-service/internal/session"
)

// RoleService covers the role lifecycle, role lookup, and role claims.
type RoleService struct {
	session session.Session
	logger  *zap.Logger
}

func NewRoleService(sess session.Session, logger *zap.Logger) *RoleService {
	return &RoleService{session: sess, logger: logger.Named("RoleService")}
}

// RoleID returns the role's stored key rendered as a string.
func (s *RoleService) RoleID(_ context.Context, r *entity.Role) (string, error) {
	return strconv.FormatInt(r.ID(), 10), nil
}

// RoleName returns the role's name.
func (s *RoleService) RoleName(_ context.Context, r *entity.Role) (string, error) {
	return r.Name(), nil
}

// SetRoleName renames the role in memory; Update persists it.
func (s *RoleService) SetRoleName(_ context.Context, r *entity.Role, name string) error {
	m, err := r.Mutate()
	if err != nil {
		return err
	}
	return m.SetName(name)
}

// Create stages the role and flushes.
func (s *RoleService) Create(ctx context.Context, r *entity.Role) error {
	if err := s.session.StoreRole(ctx, r); err != nil {
		return err
	}
	if err := s.session.SaveChanges(ctx); err != nil {
		s.logger.Error("Failed to flush role creation", zap.Int64("roleID", r.ID()), zap.Error(err))
		return err
	}
	s.logger.Info("Role created", zap.Int64("roleID", r.ID()), zap.String("name", r.Name()))
	return nil
}

// Update flushes tracked role mutations.
func (s *RoleService) Update(ctx context.Context, r *entity.Role) error {
	if err := s.session.SaveChanges(ctx); err != nil {
		s.logger.Error("Failed to flush role update", zap.Int64("roleID", r.ID()), zap.Error(err))
		return err
	}
	return nil
}

// Delete stages removal and flushes.
func (s *RoleService) Delete(ctx context.Context, r *entity.Role) error {
	if err := s.session.DeleteRole(ctx, r); err != nil {
		return err
	}
	if err := s.session.SaveChanges(ctx); err != nil {
		s.logger.Error("Failed to flush role deletion", zap.Int64("roleID", r.ID()), zap.Error(err))
		return err
	}
	s.logger.Info("Role deleted", zap.Int64("roleID", r.ID()))
	return nil
}

// FindByID parses id as the integer role key and returns the role, or nil
// if absent. A non-numeric or out-of-range id surfaces the parse failure.
func (s *RoleService) FindByID(ctx context.Context, id string) (*entity.Role, error) {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse role id %q: %w", id, err)
	}
	return s.session.LoadRole(ctx, key)
}

// FindByName returns the role with exactly the given name, or nil.
func (s *RoleService) FindByName(ctx context.Context, name string) (*entity.Role, error) {
	f, err := query.ByName(name)
	if err != nil {
		return nil, err
	}
	roles, err := s.session.QueryRoles(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, nil
	}
	return roles[0], nil
}

// All returns every role in the store.
func (s *RoleService) All(ctx context.Context) ([]*entity.Role, error) {
	return s.session.QueryRoles(ctx, nil)
}

// Claims projects the role's claim collection.
func (s *RoleService) Claims(_ context.Context, r *entity.Role) ([]entity.Claim, error) {
	return r.Claims(), nil
}

// AddClaim appends a claim to the role.
func (s *RoleService) AddClaim(_ context.Context, r *entity.Role, c entity.Claim) error {
	m, err := r.Mutate()
	if err != nil {
		return err
	}
	m.AddClaim(c.Type, c.Value)
	return nil
}

// RemoveClaim removes every role claim sharing the given claim's type.
func (s *RoleService) RemoveClaim(_ context.Context, r *entity.Role, c entity.Claim) error {
	m, err := r.Mutate()
	if err != nil {
		return err
	}
	m.RemoveClaimsByType(c.Type)
	return nil
}
