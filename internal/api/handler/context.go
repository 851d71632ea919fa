package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ctxClaims extracts the identity injected by the Auth middleware. A missing
// user id means the middleware did not run on this route.
func ctxClaims(c echo.Context) (userID uint, sessionID string, err error) {
	userID, _ = c.Get("user_id").(uint)
	if userID == 0 {
		return 0, "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	sessionID, _ = c.Get("session_id").(string)
	return userID, sessionID, nil
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return uint(id), nil
}
