package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/99minutos/user-admin/internal/core/domain"
	"github.com/99minutos/user-admin/internal/core/ports"
)

func TestUserHandler_List(t *testing.T) {
	e := newTestEcho()
	users := &stubUserService{
		listFn: func(context.Context) ([]domain.User, error) {
			return []domain.User{aliceAdmin(), {ID: 2, Email: "bob@example.com"}}, nil
		},
	}
	h := NewUserHandler(users, &stubRoleService{}, nil)

	rec := httptest.NewRecorder()
	if err := h.List(e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/users", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp userListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Total != 2 || len(resp.Users) != 2 || resp.Users[1].Email != "bob@example.com" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp.Users[1].Roles == nil {
		t.Fatalf("roles must render as an empty list, not null")
	}
}

func TestUserHandler_Get_BadID(t *testing.T) {
	e := newTestEcho()
	h := NewUserHandler(&stubUserService{}, &stubRoleService{}, nil)

	for _, raw := range []string{"abc", "0", "-3"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(raw)
		if got := httpCode(h.Get(c)); got != http.StatusBadRequest {
			t.Fatalf("id %q: expected 400, got %d", raw, got)
		}
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	e := newTestEcho()
	users := &stubUserService{
		getFn: func(context.Context, uint) (domain.User, error) {
			return domain.User{}, domain.ErrUserNotFound
		},
	}
	h := NewUserHandler(users, &stubRoleService{}, nil)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("42")
	if err := h.Get(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserHandler_Create(t *testing.T) {
	e := newTestEcho()
	users := &stubUserService{
		createFn: func(_ context.Context, in ports.CreateUserInput) (domain.User, error) {
			if len(in.RoleIDs) != 2 || in.RoleIDs[0] != 1 || in.RoleIDs[1] != 2 {
				t.Fatalf("unexpected role ids: %v", in.RoleIDs)
			}
			return domain.User{ID: 5, Email: in.Email, Roles: []domain.Role{{ID: 1, Name: domain.RoleAdmin}, {ID: 2, Name: domain.RoleUser}}}, nil
		},
	}
	h := NewUserHandler(users, &stubRoleService{}, nil)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/admin/users", `{"email":"carol@example.com","password":"pw","role_ids":[1,2]}`), rec)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/users/5" {
		t.Fatalf("unexpected location %q", loc)
	}
}

func TestUserHandler_Update_PassesCandidateState(t *testing.T) {
	e := newTestEcho()
	var got ports.UpdateUserInput
	users := &stubUserService{
		updateFn: func(_ context.Context, in ports.UpdateUserInput) (domain.User, error) {
			got = in
			return domain.User{ID: in.ID, Email: "alice@example.com"}, nil
		},
	}
	h := NewUserHandler(users, &stubRoleService{}, nil)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/", `{"name":"Alicia","password":""}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.ID != 3 || got.Name != "Alicia" || got.Password != "" || got.Age != nil || len(got.RoleIDs) != 0 {
		t.Fatalf("unexpected update input: %+v", got)
	}

	c = e.NewContext(jsonRequest(http.MethodPut, "/", `{"age":0}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.Age == nil || *got.Age != 0 {
		t.Fatalf("an explicit zero age must be forwarded, got %v", got.Age)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	e := newTestEcho()
	var deleted uint
	users := &stubUserService{
		deleteFn: func(_ context.Context, id uint) error {
			deleted = id
			return nil
		},
	}
	h := NewUserHandler(users, &stubRoleService{}, nil)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("4")
	authenticated(c, 1, "sid")
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || deleted != 4 {
		t.Fatalf("expected 204 and user 4 deleted, got %d / %d", rec.Code, deleted)
	}
}

func TestUserHandler_Delete_Self(t *testing.T) {
	e := newTestEcho()
	users := &stubUserService{
		deleteFn: func(context.Context, uint) error {
			t.Fatalf("should not be called")
			return nil
		},
	}
	h := NewUserHandler(users, &stubRoleService{}, nil)

	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("1")
	authenticated(c, 1, "sid")
	if got := httpCode(h.Delete(c)); got != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", got)
	}
}

func TestUserHandler_Roles(t *testing.T) {
	e := newTestEcho()
	roles := &stubRoleService{roles: []domain.Role{{ID: 1, Name: domain.RoleAdmin}, {ID: 2, Name: domain.RoleUser}}}
	h := NewUserHandler(&stubUserService{}, roles, nil)

	rec := httptest.NewRecorder()
	if err := h.Roles(e.NewContext(httptest.NewRequest(http.MethodGet, "/admin/roles", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp []roleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 2 || resp[0].Name != domain.RoleAdmin {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestUserHandler_Events(t *testing.T) {
	e := newTestEcho()
	audit := &stubAuditReader{events: []domain.UserEvent{{
		Type:            domain.UserUpdated,
		UserID:          3,
		Email:           "bob@example.com",
		Roles:           []string{domain.RoleUser},
		Source:          domain.SourceAdmin,
		PasswordChanged: true,
		OccurredAt:      time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
	}}}
	h := NewUserHandler(&stubUserService{}, &stubRoleService{}, audit)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?limit=10", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.Events(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if audit.gotUser != 3 || audit.gotLimit != 10 {
		t.Fatalf("unexpected query: user %d limit %d", audit.gotUser, audit.gotLimit)
	}
	var resp []userEventResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 1 || resp[0].Type != "user.updated" || !resp[0].PasswordChanged || resp[0].OccurredAt != "2024-05-06T07:08:09Z" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestUserHandler_Events_LimitAndDisabled(t *testing.T) {
	e := newTestEcho()
	h := NewUserHandler(&stubUserService{}, &stubRoleService{}, &stubAuditReader{})

	for _, q := range []string{"?limit=0", "?limit=501", "?limit=x"} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+q, nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues("3")
		if got := httpCode(h.Events(c)); got != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, got)
		}
	}

	disabled := NewUserHandler(&stubUserService{}, &stubRoleService{}, nil)
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("3")
	if got := httpCode(disabled.Events(c)); got != http.StatusNotFound {
		t.Fatalf("expected 404 when the audit trail is disabled, got %d", got)
	}
}
