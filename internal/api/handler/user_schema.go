package handler

import (
	"time"

	"github.com/99minutos/user-admin/internal/core/domain"
)

// errorResponse mirrors the envelope rendered by the central error handler.
type errorResponse struct {
	Error string `json:"error"`
}

type registerRequest struct {
	Name     string `json:"name"     validate:"max=255"`
	Age      int    `json:"age"      validate:"gte=0,lte=150"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createUserRequest struct {
	Name     string `json:"name"     validate:"max=255"`
	Age      int    `json:"age"      validate:"gte=0,lte=150"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
	RoleIDs  []uint `json:"role_ids"`
}

// updateUserRequest carries the candidate state for PUT /admin/users/:id.
// Blank fields keep the stored value. The password may be a stored hash
// echoed back by a form; it is then kept verbatim.
type updateUserRequest struct {
	Name     string `json:"name"     validate:"omitempty,max=255"`
	Age      *int   `json:"age"      validate:"omitempty,gte=0,lte=150"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password"`
	RoleIDs  []uint `json:"role_ids"`
}

type roleResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type userResponse struct {
	ID        uint     `json:"id"`
	Name      string   `json:"name"`
	Age       int      `json:"age"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

type userListResponse struct {
	Users []userResponse `json:"users"`
	Total int            `json:"total"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	Redirect  string       `json:"redirect"`
	User      userResponse `json:"user"`
}

type meResponse struct {
	User     userResponse `json:"user"`
	Redirect string       `json:"redirect"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userEventResponse struct {
	Type            string   `json:"type"`
	Email           string   `json:"email"`
	Roles           []string `json:"roles"`
	Source          string   `json:"source"`
	PasswordChanged bool     `json:"password_changed"`
	RolesReplaced   bool     `json:"roles_replaced"`
	OccurredAt      string   `json:"occurred_at"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Age:       u.Age,
		Email:     u.Email,
		Roles:     u.RoleNames(),
		CreatedAt: formatTime(u.CreatedAt),
		UpdatedAt: formatTime(u.UpdatedAt),
	}
}

func toRoleResponses(roles []domain.Role) []roleResponse {
	out := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleResponse{ID: r.ID, Name: r.Name})
	}
	return out
}

func toUserEventResponses(events []domain.UserEvent) []userEventResponse {
	out := make([]userEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, userEventResponse{
			Type:            string(e.Type),
			Email:           e.Email,
			Roles:           e.Roles,
			Source:          e.Source,
			PasswordChanged: e.PasswordChanged,
			RolesReplaced:   e.RolesReplaced,
			OccurredAt:      formatTime(e.OccurredAt),
		})
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
