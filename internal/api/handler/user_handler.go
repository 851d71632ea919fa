package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/user-admin/internal/api/metrics"
	"github.com/99minutos/user-admin/internal/core/domain"
	"github.com/99minutos/user-admin/internal/core/ports"
)

const defaultEventsLimit = 50

// UserHandler serves the admin user management endpoints.
type UserHandler struct {
	users ports.UserService
	roles ports.RoleService
	audit ports.AuditReader
}

// NewUserHandler builds the handler. audit may be nil when no audit store is
// configured; the events endpoint then answers 404.
func NewUserHandler(users ports.UserService, roles ports.RoleService, audit ports.AuditReader) *UserHandler {
	return &UserHandler{users: users, roles: roles, audit: audit}
}

// List handles GET /admin/users.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userListResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /admin/users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	resp := userListResponse{Users: make([]userResponse, 0, len(users)), Total: len(users)}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /admin/users/:id.
//
// @Summary      Get a user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Create handles POST /admin/users.
//
// @Summary      Create a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /admin/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.users.Create(c.Request().Context(), ports.CreateUserInput{
		Name:     req.Name,
		Age:      req.Age,
		Email:    req.Email,
		Password: req.Password,
		RoleIDs:  req.RoleIDs,
	})
	if err != nil {
		return err
	}

	metrics.UsersCreatedTotal.WithLabelValues(domain.SourceAdmin).Inc()
	c.Response().Header().Set(echo.HeaderLocation, "/admin/users/"+strconv.FormatUint(uint64(user.ID), 10))
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Update handles PUT /admin/users/:id.
//
// @Summary      Update a user
// @Description  Blank fields keep their stored value. An empty role_ids keeps the current roles.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User id"
// @Param        body  body      updateUserRequest  true  "Candidate state"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /admin/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	user, err := h.users.Update(c.Request().Context(), ports.UpdateUserInput{
		ID:       id,
		Name:     req.Name,
		Age:      req.Age,
		Email:    req.Email,
		Password: req.Password,
		RoleIDs:  req.RoleIDs,
	})
	if err != nil {
		return err
	}

	metrics.UsersUpdatedTotal.Inc()
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete handles DELETE /admin/users/:id.
//
// @Summary      Delete a user
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  int  true  "User id"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /admin/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if self, _, _ := ctxClaims(c); self == id {
		return echo.NewHTTPError(http.StatusForbidden, "administrators cannot delete their own account")
	}
	if err := h.users.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	metrics.UsersDeletedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

// Roles handles GET /admin/roles.
//
// @Summary      List roles
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   roleResponse
// @Router       /admin/roles [get]
func (h *UserHandler) Roles(c echo.Context) error {
	roles, err := h.roles.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponses(roles))
}

// Events handles GET /admin/users/:id/events.
//
// @Summary      Audit trail of a user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      int  true   "User id"
// @Param        limit  query     int  false  "Maximum number of events (default 50)"
// @Success      200    {array}   userEventResponse
// @Failure      404    {object}  errorResponse
// @Router       /admin/users/{id}/events [get]
func (h *UserHandler) Events(c echo.Context) error {
	if h.audit == nil {
		return echo.NewHTTPError(http.StatusNotFound, "audit trail is disabled")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	limit := int64(defaultEventsLimit)
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 || n > 500 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 500")
		}
		limit = n
	}

	events, err := h.audit.ListByUser(c.Request().Context(), id, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserEventResponses(events))
}
