package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type SignupRequest struct {
	Email    string
	Name     string
	Password string
}

type LoginRequest struct {
	Email    string
	Password string
}

// AuthResult carries the session token issued on signup/login.
type AuthResult struct {
	User    User
	Session Session
}

type Service interface {
	Signup(ctx context.Context, req SignupRequest) (AuthResult, error)
	Login(ctx context.Context, req LoginRequest) (AuthResult, error)
	Logout(ctx context.Context, token string) error
	ResolveSession(ctx context.Context, token string) (User, error)
	GetUser(ctx context.Context, id snowflake.ID) (User, error)
}

var (
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrUserExists         = errors.New("user_exists")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidSession     = errors.New("invalid_session")
	ErrSessionExpired     = errors.New("session_expired")
)
