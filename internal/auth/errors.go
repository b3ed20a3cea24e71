package auth

import (
	"errors"

	"budget-advisor/internal/store"
)

var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrUsernameTaken      = store.ErrUsernameTaken
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("access token required")
	ErrInvalidToken       = errors.New("invalid token")
)
