package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"budget-advisor/internal/models"
	"budget-advisor/internal/store"

	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      models.Identity
}

type Service struct {
	users  store.UserStore
	tokens *TokenManager
	cost   int
}

func NewService(users store.UserStore, tokens *TokenManager) *Service {
	return &Service{users: users, tokens: tokens, cost: passwordCost}
}

// Register checks for the username before inserting. Two concurrent
// registrations can both pass the check; the loser is rejected by the unique
// constraint and gets ErrUsernameTaken as well.
func (s *Service) Register(ctx context.Context, username, password string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return models.User{}, ErrUsernameTaken
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login returns ErrInvalidCredentials for an unknown username and for a wrong
// password alike.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	if username == "" || password == "" {
		return Session{}, ErrMissingCredentials
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	identity := models.Identity{UserID: user.ID, Username: user.Username}
	token, expiresAt, err := s.tokens.Issue(identity)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: identity}, nil
}
