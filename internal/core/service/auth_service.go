package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-admin/internal/core/domain"
	"github.com/99minutos/user-admin/internal/core/ports"
)

// AuthService implements login, logout and token verification.
type AuthService struct {
	users     ports.UserRepository
	encoder   ports.PasswordEncoder
	sessions  ports.SessionStore
	redirects RedirectPolicy
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

type tokenClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

func NewAuthService(
	users ports.UserRepository,
	encoder ports.PasswordEncoder,
	sessions ports.SessionStore,
	redirects RedirectPolicy,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		encoder:   encoder,
		sessions:  sessions,
		redirects: redirects,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
		now:       time.Now,
	}
}

// Login verifies the credentials, opens a session and picks the post-login
// destination from the user's roles.
func (s *AuthService) Login(ctx context.Context, email, password string) (ports.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return ports.LoginResult{}, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Info().Str("email", email).Msg("login for unknown email")
			return ports.LoginResult{}, domain.ErrInvalidCredentials
		}
		return ports.LoginResult{}, err
	}

	if !s.encoder.Matches(password, user.PasswordHash) {
		s.log.Info().Str("email", email).Msg("login with wrong password")
		return ports.LoginResult{}, domain.ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	if err := s.sessions.Save(ctx, user.ID, sessionID, s.tokenTTL); err != nil {
		return ports.LoginResult{}, fmt.Errorf("open session: %w", err)
	}

	expiresAt := s.now().Add(s.tokenTTL)
	token, err := s.generateToken(user, sessionID, expiresAt)
	if err != nil {
		return ports.LoginResult{}, err
	}

	redirect := s.redirects.Resolve(func() ([]string, error) {
		return user.RoleNames(), nil
	})

	s.log.Info().Uint("user_id", user.ID).Str("email", user.Email).Str("redirect", redirect).Msg("user logged in")
	return ports.LoginResult{
		Token:     token,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
		Redirect:  redirect,
		User:      user,
	}, nil
}

// Logout revokes a single session.
func (s *AuthService) Logout(ctx context.Context, userID uint, sessionID string) error {
	if userID == 0 || sessionID == "" {
		return domain.ErrInvalidCredentials
	}
	if err := s.sessions.Delete(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	s.log.Info().Uint("user_id", userID).Msg("user logged out")
	return nil
}

// Authenticate validates the token signature and expiry and checks the session
// it names is still open.
func (s *AuthService) Authenticate(ctx context.Context, token string) (ports.Claims, error) {
	if token == "" {
		return ports.Claims{}, domain.ErrInvalidCredentials
	}

	claims := &tokenClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}); err != nil {
		return ports.Claims{}, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}

	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || uid == 0 || claims.ID == "" {
		return ports.Claims{}, fmt.Errorf("%w: malformed subject", domain.ErrInvalidCredentials)
	}

	open, err := s.sessions.Exists(ctx, uint(uid), claims.ID)
	if err != nil {
		return ports.Claims{}, fmt.Errorf("check session: %w", err)
	}
	if !open {
		return ports.Claims{}, fmt.Errorf("%w: session revoked", domain.ErrInvalidCredentials)
	}

	return ports.Claims{
		UserID:    uint(uid),
		SessionID: claims.ID,
		Email:     claims.Email,
		Roles:     claims.Roles,
	}, nil
}

func (s *AuthService) generateToken(user domain.User, sessionID string, expiresAt time.Time) (string, error) {
	claims := tokenClaims{
		Email: user.Email,
		Roles: user.RoleNames(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
