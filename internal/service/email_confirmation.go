package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/mailer"
	"github.com/crowdbase/identity-service/internal/session"
)

// ErrConfirmationCodeMismatch is returned when a confirmation code is
// wrong, expired, or was never issued.
var ErrConfirmationCodeMismatch = errors.New("confirmation code mismatch or expired")

const confirmCodePrefix = "identity:confirm:"

// ConfirmationCodeStore holds one-time confirmation codes with expiry.
type ConfirmationCodeStore interface {
	Set(ctx context.Context, key, code string, ttl time.Duration) error
	// Get returns the stored code, or empty when absent or expired.
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}

// RedisCodeStore backs ConfirmationCodeStore with Redis TTL keys.
type RedisCodeStore struct {
	client *redis.Client
}

func NewRedisCodeStore(client *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{client: client}
}

func (s *RedisCodeStore) Set(ctx context.Context, key, code string, ttl time.Duration) error {
	return s.client.Set(ctx, key, code, ttl).Err()
}

func (s *RedisCodeStore) Get(ctx context.Context, key string) (string, error) {
	code, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return code, err
}

func (s *RedisCodeStore) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// EmailConfirmationService issues and validates one-time codes that
// confirm ownership of the primary email address.
type EmailConfirmationService struct {
	session session.Session
	codes   ConfirmationCodeStore
	mail    mailer.Mailer
	ttl     time.Duration
	logger  *zap.Logger
}

func NewEmailConfirmationService(sess session.Session, codes ConfirmationCodeStore, mail mailer.Mailer, ttl time.Duration, logger *zap.Logger) *EmailConfirmationService {
	return &EmailConfirmationService{
		session: sess,
		codes:   codes,
		mail:    mail,
		ttl:     ttl,
		logger:  logger.Named("EmailConfirmationService"),
	}
}

// Begin generates a code, stores it against the user with the configured
// TTL, and mails it to the primary address. A user without a primary email
// cannot start confirmation.
func (s *EmailConfirmationService) Begin(ctx context.Context, u *entity.User) error {
	addr, err := u.UserName()
	if err != nil {
		return err
	}
	code := uuid.NewString()
	if err := s.codes.Set(ctx, confirmCodePrefix+u.ID(), code, s.ttl); err != nil {
		s.logger.Error("Failed to store confirmation code", zap.String("userID", u.ID()), zap.Error(err))
		return err
	}
	if err := s.mail.SendConfirmationCode(addr, code); err != nil {
		s.logger.Error("Failed to send confirmation code", zap.String("userID", u.ID()), zap.Error(err))
		return err
	}
	s.logger.Info("Confirmation code issued", zap.String("userID", u.ID()))
	return nil
}

// Confirm validates the code, marks the primary email confirmed, discards
// the code, and flushes the session.
func (s *EmailConfirmationService) Confirm(ctx context.Context, u *entity.User, code string) error {
	stored, err := s.codes.Get(ctx, confirmCodePrefix+u.ID())
	if err != nil {
		return err
	}
	if stored == "" || stored != code {
		s.logger.Warn("Confirmation code rejected", zap.String("userID", u.ID()))
		return ErrConfirmationCodeMismatch
	}

	m, err := u.Mutate()
	if err != nil {
		return err
	}
	if err := m.ConfirmPrimaryEmail(true); err != nil {
		return err
	}
	if err := s.codes.Del(ctx, confirmCodePrefix+u.ID()); err != nil {
		s.logger.Warn("Failed to discard used confirmation code, proceeding", zap.String("userID", u.ID()), zap.Error(err))
	}
	if err := s.session.SaveChanges(ctx); err != nil {
		return err
	}
	s.logger.Info("Primary email confirmed", zap.String("userID", u.ID()))
	return nil
}
