package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"neynegar/internal/domain"
	"neynegar/internal/repos"
)

var ErrBadCreds = errors.New("invalid phone or password")

type AuthService struct {
	Users *repos.UserRepo
}

func (s *AuthService) Login(sid, phone, password string) (*domain.User, error) {
	u, err := s.Users.ByPhone(phone)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}

// UpdateAddress stores the user's shipping address for future orders.
func (s *AuthService) UpdateAddress(userID, address, postCode string) error {
	return s.Users.UpdateAddress(userID, address, postCode)
}
