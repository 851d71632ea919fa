package ports

import (
	"context"
	"time"

	"github.com/99minutos/user-admin/internal/core/domain"
)

// LoginResult is returned after a successful authentication.
type LoginResult struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
	// Redirect is the destination chosen from the user's roles.
	Redirect string
	User     domain.User
}

// Claims identify the principal behind a verified access token.
type Claims struct {
	UserID    uint
	SessionID string
	Email     string
	Roles     []string
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Logout(ctx context.Context, userID uint, sessionID string) error
	Authenticate(ctx context.Context, token string) (Claims, error)
}
