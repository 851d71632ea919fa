package service

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/user-admin/internal/core/domain"
)

const (
	AdminDestination   = "/admin"
	UserDestination    = "/user"
	DefaultDestination = "/"
)

// RedirectPolicy maps the roles of a freshly authenticated user to the page
// they land on.
type RedirectPolicy struct {
	Admin   string
	User    string
	Default string
	log     zerolog.Logger
}

func NewRedirectPolicy(log zerolog.Logger) RedirectPolicy {
	return RedirectPolicy{
		Admin:   AdminDestination,
		User:    UserDestination,
		Default: DefaultDestination,
		log:     log,
	}
}

// For picks the admin destination when ROLE_ADMIN is present, then the user
// destination for ROLE_USER, and the default destination otherwise.
func (p RedirectPolicy) For(roles []string) string {
	hasUser := false
	for _, r := range roles {
		switch r {
		case domain.RoleAdmin:
			return orDefault(p.Admin, AdminDestination)
		case domain.RoleUser:
			hasUser = true
		}
	}
	if hasUser {
		return orDefault(p.User, UserDestination)
	}
	return p.fallback()
}

// Resolve obtains the role set from fn and decides the destination. Any error
// or panic along the way yields the default destination; a successful login
// never fails because of its redirect.
func (p RedirectPolicy) Resolve(fn func() ([]string, error)) (dest string) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Err(fmt.Errorf("%v", r)).Msg("redirect decision panicked, using default destination")
			dest = p.fallback()
		}
	}()

	roles, err := fn()
	if err != nil {
		p.log.Warn().Err(err).Msg("could not resolve roles for redirect, using default destination")
		return p.fallback()
	}

	dest = p.For(roles)
	if dest == p.fallback() {
		p.log.Warn().Strs("roles", roles).Msg("no known role, redirecting to default destination")
	}
	return dest
}

func (p RedirectPolicy) fallback() string {
	return orDefault(p.Default, DefaultDestination)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
