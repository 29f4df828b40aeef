package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/crowdbase/identity-service/internal/entity"
	"github.com/crowdbase/identity-service/internal/session"
)

// UserPhoneNumberService reads and writes the phone number fields.
type UserPhoneNumberService struct {
	session session.Session
	logger  *zap.Logger
}

func NewUserPhoneNumberService(sess session.Session, logger *zap.Logger) *UserPhoneNumberService {
	return &UserPhoneNumberService{session: sess, logger: logger.Named("UserPhoneNumberService")}
}

// PhoneNumber returns the stored number, empty when unset.
func (s *UserPhoneNumberService) PhoneNumber(_ context.Context, u *entity.User) (string, error) {
	return u.PhoneNumber(), nil
}

// SetPhoneNumber stores the number and resets its confirmation.
func (s *UserPhoneNumberService) SetPhoneNumber(_ context.Context, u *entity.User, number string) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	m.SetPhoneNumber(number).SetPhoneNumberConfirmed(false)
	return nil
}

// PhoneNumberConfirmed reports whether the number is confirmed.
func (s *UserPhoneNumberService) PhoneNumberConfirmed(_ context.Context, u *entity.User) (bool, error) {
	return u.PhoneNumberConfirmed(), nil
}

// SetPhoneNumberConfirmed flips the confirmation flag.
func (s *UserPhoneNumberService) SetPhoneNumberConfirmed(_ context.Context, u *entity.User, confirmed bool) error {
	m, err := u.Mutate()
	if err != nil {
		return err
	}
	m.SetPhoneNumberConfirmed(confirmed)
	return nil
}
