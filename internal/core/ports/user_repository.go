package ports

import (
	"context"

	"github.com/99minutos/user-admin/internal/core/domain"
)

// UserRepository defines persistence operations for users and their role links.
// Every read loads the role set; there is no lazy loading.
type UserRepository interface {
	// FindByID returns domain.ErrUserNotFound when no user has the given id.
	FindByID(ctx context.Context, id uint) (domain.User, error)
	// FindByEmail returns domain.ErrUserNotFound when no user has the given email.
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]domain.User, error)

	// Create inserts the user row and its role links in a single transaction.
	// A unique-email violation is reported as domain.ErrUserExists.
	Create(ctx context.Context, user domain.User) (domain.User, error)
	// Update rewrites the profile fields and password hash and replaces the
	// role links with user.Roles, all in a single transaction.
	Update(ctx context.Context, user domain.User) (domain.User, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error
	// Delete removes the user and its role links; roles are left untouched.
	Delete(ctx context.Context, id uint) error
}

// RoleRepository is the role directory.
type RoleRepository interface {
	// FindByName returns domain.ErrRoleNotFound when the role does not exist.
	FindByName(ctx context.Context, name string) (domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Create(ctx context.Context, role domain.Role) (domain.Role, error)
}
