package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/session"
)

// UserPasswordService stores and reads the password hash. Hashing itself
// is the PasswordHasher's job; the membership framework hands this service
// already-hashed material.
type UserPasswordService struct {
	session session.Session
	logger  *zap.Logger
}

func NewUserPasswordService(sess session.Session, logger *zap.Logger) *UserPasswordService {
	return &UserPasswordService{session: sess, logger: logger.Named("UserPasswordService")}
}

// PasswordHash returns the stored hash, empty when no password is set.
func (s *UserPasswordService) PasswordHash(_ context.Context, u *entity.User) (string, error) {
	return u.PasswordHash(), nil
}

// SetPasswordHash stores the hash on the aggregate.
func (s *UserPasswordService) SetPasswordHash(_ context.Context, u *entity.User, hash string) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	m.SetPasswordHash(hash)
	s.logger.Info("Password hash updated", zap.String("userID", u.ID()))
	return nil
}

// HasPassword reports whether a hash is stored.
func (s *UserPasswordService) HasPassword(_ context.Context, u *entity.User) (bool, error) {
	return u.HasPassword(), nil
}

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher builds a hasher with the given bcrypt cost; costs
// outside bcrypt's range fall back to the default cost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash.
func (h *PasswordHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
