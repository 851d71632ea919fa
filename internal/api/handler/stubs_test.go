package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-admin/internal/core/domain"
	"github.com/99minutos/user-admin/internal/core/ports"
)

type stubAuthService struct {
	loginFn  func(ctx context.Context, email, password string) (ports.LoginResult, error)
	logoutFn func(ctx context.Context, userID uint, sessionID string) error
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Logout(ctx context.Context, userID uint, sessionID string) error {
	return s.logoutFn(ctx, userID, sessionID)
}

func (s *stubAuthService) Authenticate(context.Context, string) (ports.Claims, error) {
	return ports.Claims{}, domain.ErrInvalidCredentials
}

type stubUserService struct {
	createFn   func(ctx context.Context, in ports.CreateUserInput) (domain.User, error)
	registerFn func(ctx context.Context, in ports.RegisterInput) (domain.User, error)
	updateFn   func(ctx context.Context, in ports.UpdateUserInput) (domain.User, error)
	deleteFn   func(ctx context.Context, id uint) error
	getFn      func(ctx context.Context, id uint) (domain.User, error)
	listFn     func(ctx context.Context) ([]domain.User, error)
}

func (s *stubUserService) Create(ctx context.Context, in ports.CreateUserInput) (domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) Register(ctx context.Context, in ports.RegisterInput) (domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubUserService) Update(ctx context.Context, in ports.UpdateUserInput) (domain.User, error) {
	return s.updateFn(ctx, in)
}

func (s *stubUserService) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func (s *stubUserService) Get(ctx context.Context, id uint) (domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) GetByEmail(context.Context, string) (domain.User, error) {
	return domain.User{}, domain.ErrUserNotFound
}

func (s *stubUserService) List(ctx context.Context) ([]domain.User, error) {
	return s.listFn(ctx)
}

func (s *stubUserService) ExistsByEmail(context.Context, string) (bool, error) {
	return false, nil
}

type stubRoleService struct {
	roles []domain.Role
}

func (s *stubRoleService) List(context.Context) ([]domain.Role, error) {
	return s.roles, nil
}

func (s *stubRoleService) GetByName(_ context.Context, name string) (domain.Role, error) {
	for _, r := range s.roles {
		if r.Name == name {
			return r, nil
		}
	}
	return domain.Role{}, domain.ErrRoleNotFound
}

type stubAuditReader struct {
	events   []domain.UserEvent
	gotUser  uint
	gotLimit int64
}

func (s *stubAuditReader) ListByUser(_ context.Context, userID uint, limit int64) ([]domain.UserEvent, error) {
	s.gotUser, s.gotLimit = userID, limit
	return s.events, nil
}

// fixedRedirects sends admins to /admin and everyone else to /user.
type fixedRedirects struct{}

func (fixedRedirects) For(roles []string) string {
	for _, r := range roles {
		if r == domain.RoleAdmin {
			return "/admin"
		}
	}
	return "/user"
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// authenticated fills the context values the Auth middleware would set.
func authenticated(c echo.Context, userID uint, sessionID string) {
	c.Set("user_id", userID)
	c.Set("session_id", sessionID)
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}

func aliceAdmin() domain.User {
	return domain.User{
		ID:    1,
		Name:  "Alice",
		Age:   30,
		Email: "alice@example.com",
		Roles: []domain.Role{{ID: 1, Name: domain.RoleAdmin}},
	}
}
