package postgres

import (
	"time"

	"github.com/99minutos/user-admin/internal/core/domain"
)

type roleRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null;size:64"`
}

func (roleRow) TableName() string { return "roles" }

type userRow struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255"`
	Age       int
	Email     string    `gorm:"uniqueIndex;not null;size:255"`
	Password  string    `gorm:"not null;size:255"`
	Roles     []roleRow `gorm:"many2many:user_roles;joinForeignKey:UserID;joinReferences:RoleID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRow) TableName() string { return "users" }

func toRoleRow(r domain.Role) roleRow {
	return roleRow{ID: r.ID, Name: r.Name}
}

func (r roleRow) toDomain() domain.Role {
	return domain.Role{ID: r.ID, Name: r.Name}
}

func toUserRow(u domain.User) userRow {
	row := userRow{
		ID:        u.ID,
		Name:      u.Name,
		Age:       u.Age,
		Email:     u.Email,
		Password:  u.PasswordHash,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	row.Roles = make([]roleRow, 0, len(u.Roles))
	for _, r := range u.Roles {
		row.Roles = append(row.Roles, toRoleRow(r))
	}
	return row
}

func (r userRow) toDomain() domain.User {
	u := domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Age:          r.Age,
		Email:        r.Email,
		PasswordHash: r.Password,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Roles:        make([]domain.Role, 0, len(r.Roles)),
	}
	for _, role := range r.Roles {
		u.Roles = append(u.Roles, role.toDomain())
	}
	return u
}
