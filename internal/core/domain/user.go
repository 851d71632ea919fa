package domain

import "time"

const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
)

// Role is a named authority granted to users. Roles are reference data created
// at bootstrap and never deleted by the application.
type Role struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// User models an account managed by the admin panel.
type User struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleNames returns the names of the roles held by the user.
func (u User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole reports whether the user holds the named role.
func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
