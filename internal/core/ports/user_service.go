package ports

import (
	"context"

	"github.com/99minutos/user-admin/internal/core/domain"
)

// CreateUserInput carries the data an administrator submits for a new user.
// An empty RoleIDs assigns the default ROLE_USER role.
type CreateUserInput struct {
	Name     string
	Age      int
	Email    string
	Password string
	RoleIDs  []uint
}

// RegisterInput carries a self-registration. The role is always ROLE_USER.
type RegisterInput struct {
	Name     string
	Age      int
	Email    string
	Password string
}

// UpdateUserInput carries the candidate state for an existing user.
//
// Password may be blank (keep the stored hash), an already encoded hash
// (stored verbatim) or plaintext (encoded). RoleIDs is a complete replacement
// of the role set; empty keeps the current roles. Age is optional.
type UpdateUserInput struct {
	ID       uint
	Name     string
	Age      *int
	Email    string
	Password string
	RoleIDs  []uint
}

// UserService defines the user management use cases.
type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (domain.User, error)
	Register(ctx context.Context, in RegisterInput) (domain.User, error)
	Update(ctx context.Context, in UpdateUserInput) (domain.User, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RoleService exposes the role directory to the transport layer.
type RoleService interface {
	List(ctx context.Context) ([]domain.Role, error)
	GetByName(ctx context.Context, name string) (domain.Role, error)
}
