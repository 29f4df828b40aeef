package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/query"
	"github.com/crowdbase/identity-service/internal/session"
)

// UserClaimService covers the claim slice of identity. Claims are not
// unique by type: adding duplicates is allowed, and replace/remove treat
// type as the grouping key.
type UserClaimService struct {
	session session.Session
	logger  *zap.Logger
}

func NewUserClaimService(sess session.Session, logger *zap.Logger) *UserClaimService {
	return &UserClaimService{session: sess, logger: logger.Named("UserClaimService")}
}

// Claims projects the user's claim collection.
func (s *UserClaimService) Claims(_ context.Context, u *entity.User) ([]entity.Claim, error) {
	return u.Claims(), nil
}

// AddClaims appends each claim unconditionally.
func (s *UserClaimService) AddClaims(_ context.Context, u *entity.User, claims []entity.Claim) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	for _, c := range claims {
		m.AddClaim(c.Type, c.Value)
	}
	return nil
}

// ReplaceClaim overwrites the value of the first claim whose type matches
// old's. A user without such a claim is left unchanged; that is not an
// error.
func (s *UserClaimService) ReplaceClaim(_ context.Context, u *entity.User, old, replacement entity.Claim) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	m.ReplaceClaimByType(old.Type, replacement.Value)
	return nil
}

// RemoveClaims removes every claim whose type matches any supplied claim.
func (s *UserClaimService) RemoveClaims(_ context.Context, u *entity.User, claims []entity.Claim) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	types := make([]string, len(claims))
	for i, c := range claims {
		types[i] = c.Type
	}
	m.RemoveClaimsByType(types...)
	return nil
}

// UsersForClaim returns every user holding a claim of the given type.
func (s *UserClaimService) UsersForClaim(ctx context.Context, claimType string) ([]*entity.User, error) {
	return s.session.QueryUsers(ctx, query.ByClaim(claimType))
}
