package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-admin/internal/core/ports"
)

// CookieName is the cookie the login handler stores the access token in.
const CookieName = "auth_token"

// Authenticator verifies an access token and the session behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (ports.Claims, error)
}

// Auth validates the access token and injects the claims into the context.
// The token is read from the Authorization header and, failing that, from the
// auth cookie.
func Auth(authenticator Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := tokenFromRequest(c)
			if err != nil {
				return err
			}

			claims, err := authenticator.Authenticate(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set("user_id", claims.UserID)
			c.Set("session_id", claims.SessionID)
			c.Set("email", claims.Email)
			c.Set("roles", claims.Roles)

			return next(c)
		}
	}
}

func tokenFromRequest(c echo.Context) (string, error) {
	if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		return parts[1], nil
	}
	if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
}
