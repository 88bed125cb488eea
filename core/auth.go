package core

import (
	"context"
	"errors"
)

// ErrInvalidSession is returned when a request carries no resolvable,
// authenticated session.
var ErrInvalidSession = errors.New("invalid session")

// AuthService orchestrates registration and login over the account store.
type AuthService struct {
	accounts AccountRepository
	cost     int
}

// NewAuthService builds an AuthService hashing at the given work factor.
// cost <= 0 selects DefaultHashCost.
func NewAuthService(accounts AccountRepository, cost int) *AuthService {
	if cost <= 0 {
		cost = DefaultHashCost
	}
	return &AuthService{accounts: accounts, cost: cost}
}

// Register creates the credential and the profile as one atomic unit. A
// fresh salt is generated per credential; the password is hashed at the
// configured cost. Returns ErrUsernameTaken when the username exists.
func (s *AuthService) Register(ctx context.Context, username, pseudo, password string) (Author, error) {
	salt := NewSalt()
	hash := HashPassword(password, salt, s.cost)
	return s.accounts.CreateAccount(ctx, username, pseudo, hash, salt)
}

// Login returns the author matching the credentials, or nil, nil when the
// username is unknown or the password is wrong. The two cases are
// indistinguishable to the caller so responses cannot enumerate usernames.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Author, error) {
	login, err := s.accounts.FindLogin(ctx, username)
	if err != nil {
		return nil, err
	}
	if login == nil {
		return nil, nil
	}
	if !VerifyPassword(password, login.Salt, s.cost, login.Password) {
		return nil, nil
	}
	return s.accounts.FindAuthor(ctx, login.ID)
}
