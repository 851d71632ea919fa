package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/99minutos/user-admin/internal/api/middleware"
	"github.com/99minutos/user-admin/internal/core/domain"
	"github.com/99minutos/user-admin/internal/core/ports"
)

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	users := &stubUserService{
		registerFn: func(_ context.Context, in ports.RegisterInput) (domain.User, error) {
			if in.Email != "bob@example.com" || in.Password != "secret" || in.Age != 22 {
				t.Fatalf("unexpected input: %+v", in)
			}
			return domain.User{
				ID:    2,
				Name:  in.Name,
				Age:   in.Age,
				Email: in.Email,
				Roles: []domain.Role{{ID: 2, Name: domain.RoleUser}},
			}, nil
		},
	}
	h := NewAuthHandler(&stubAuthService{}, users, fixedRedirects{}, false)

	req := jsonRequest(http.MethodPost, "/auth/register", `{"name":"Bob","age":22,"email":"bob@example.com","password":"secret"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Email != "bob@example.com" || len(resp.Roles) != 1 || resp.Roles[0] != domain.RoleUser {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	e := newTestEcho()
	users := &stubUserService{
		registerFn: func(context.Context, ports.RegisterInput) (domain.User, error) {
			return domain.User{}, domain.ErrUserExists
		},
	}
	h := NewAuthHandler(&stubAuthService{}, users, fixedRedirects{}, false)

	req := jsonRequest(http.MethodPost, "/auth/register", `{"email":"bob@example.com","password":"secret"}`)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := h.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	users := &stubUserService{
		registerFn: func(context.Context, ports.RegisterInput) (domain.User, error) {
			t.Fatalf("should not be called")
			return domain.User{}, nil
		},
	}
	h := NewAuthHandler(&stubAuthService{}, users, fixedRedirects{}, false)

	cases := []struct {
		name string
		body string
		code int
	}{
		{"not json", "not-json", http.StatusBadRequest},
		{"missing password", `{"email":"bob@example.com"}`, http.StatusUnprocessableEntity},
		{"bad email", `{"email":"bob","password":"secret"}`, http.StatusUnprocessableEntity},
		{"negative age", `{"email":"bob@example.com","password":"secret","age":-1}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", tc.body), httptest.NewRecorder())
			if got := httpCode(h.Register(c)); got != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, got)
			}
		})
	}
}

func TestAuthHandler_Login_SetsCookieAndRedirect(t *testing.T) {
	e := newTestEcho()
	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	auth := &stubAuthService{
		loginFn: func(_ context.Context, email, password string) (ports.LoginResult, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return ports.LoginResult{
				Token:     "token123",
				SessionID: "sid",
				ExpiresAt: expires,
				Redirect:  "/admin",
				User:      aliceAdmin(),
			}, nil
		},
	}
	h := NewAuthHandler(auth, &stubUserService{}, fixedRedirects{}, true)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"secret"}`), rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token123" || resp.Redirect != "/admin" || resp.ExpiresAt != "2030-01-02T03:04:05Z" {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != middleware.CookieName || ck.Value != "token123" || !ck.HttpOnly || !ck.Secure {
		t.Fatalf("unexpected cookie: %+v", ck)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	auth := &stubAuthService{
		loginFn: func(context.Context, string, string) (ports.LoginResult, error) {
			return ports.LoginResult{}, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(auth, &stubUserService{}, fixedRedirects{}, false)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"wrong"}`), rec)

	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("no cookie must be set on failure")
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	e := newTestEcho()
	var gotUser uint
	var gotSession string
	auth := &stubAuthService{
		logoutFn: func(_ context.Context, userID uint, sessionID string) error {
			gotUser, gotSession = userID, sessionID
			return nil
		},
	}
	h := NewAuthHandler(auth, &stubUserService{}, fixedRedirects{}, false)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), rec)
	authenticated(c, 7, "sid-7")

	if err := h.Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if gotUser != 7 || gotSession != "sid-7" {
		t.Fatalf("unexpected logout args: %d %q", gotUser, gotSession)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != middleware.CookieName || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", cookies)
	}
}

func TestAuthHandler_Logout_WithoutClaims(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAuthService{}, &stubUserService{}, fixedRedirects{}, false)

	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), httptest.NewRecorder())
	if got := httpCode(h.Logout(c)); got != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", got)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := newTestEcho()
	users := &stubUserService{
		getFn: func(_ context.Context, id uint) (domain.User, error) {
			if id != 1 {
				return domain.User{}, domain.ErrUserNotFound
			}
			return aliceAdmin(), nil
		},
	}
	h := NewAuthHandler(&stubAuthService{}, users, fixedRedirects{}, false)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/user", nil), rec)
	authenticated(c, 1, "sid")

	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp meResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.User.Email != "alice@example.com" || resp.Redirect != "/admin" {
		t.Fatalf("unexpected payload: %+v", resp)
	}

	gone := e.NewContext(httptest.NewRequest(http.MethodGet, "/user", nil), httptest.NewRecorder())
	authenticated(gone, 9, "sid")
	if got := httpCode(h.Me(gone)); got != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a deleted user, got %d", got)
	}
}
