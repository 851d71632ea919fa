package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-admin/internal/api/metrics"
	"github.com/99minutos/user-admin/internal/api/middleware"
	"github.com/99minutos/user-admin/internal/core/domain"
	"github.com/99minutos/user-admin/internal/core/ports"
)

// RedirectDecider picks the landing page for a role set.
type RedirectDecider interface {
	For(roles []string) string
}

type AuthHandler struct {
	auth          ports.AuthService
	users         ports.UserService
	redirects     RedirectDecider
	secureCookies bool
}

func NewAuthHandler(auth ports.AuthService, users ports.UserService, redirects RedirectDecider, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		auth:          auth,
		users:         users,
		redirects:     redirects,
		secureCookies: secureCookies,
	}
}

// Register creates a self-service account holding ROLE_USER.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.users.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Age:      req.Age,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	metrics.UsersCreatedTotal.WithLabelValues(domain.SourceRegister).Inc()
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login authenticates a user, sets the auth cookie and reports where the
// client should go next.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	res, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		} else {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.LoginRedirectsTotal.WithLabelValues(res.Redirect).Inc()

	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: formatTime(res.ExpiresAt),
		Redirect:  res.Redirect,
		User:      toUserResponse(res.User),
	})
}

// Logout revokes the current session and clears the auth cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, sessionID, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.Request().Context(), userID, sessionID); err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// Me returns the authenticated user's profile and landing page.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorResponse
// @Router       /user [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "user no longer exists")
		}
		return err
	}
	return c.JSON(http.StatusOK, meResponse{
		User:     toUserResponse(user),
		Redirect: h.redirects.For(user.RoleNames()),
	})
}
