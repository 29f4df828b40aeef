package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/session"
)

// UserSecurityStampService reads and writes the security stamp, the opaque
// value the framework rotates whenever credentials change.
type UserSecurityStampService struct {
	session session.Session
	logger  *zap.Logger
}

func NewUserSecurityStampService(sess session.Session, logger *zap.Logger) *UserSecurityStampService {
	return &UserSecurityStampService{session: sess, logger: logger.Named("UserSecurityStampService")}
}

// SecurityStamp returns the stored stamp.
func (s *UserSecurityStampService) SecurityStamp(_ context.Context, u *entity.User) (string, error) {
	return u.SecurityStamp(), nil
}

// SetSecurityStamp stores the stamp on the aggregate.
func (s *UserSecurityStampService) SetSecurityStamp(_ context.Context, u *entity.User, stamp string) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	m.SetSecurityStamp(stamp)
	return nil
}

// NewStamp generates a fresh stamp value.
func (s *UserSecurityStampService) NewStamp() string {
	return uuid.NewString()
}
