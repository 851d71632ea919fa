package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/99minutos/user-admin/internal/core/domain"
	"github.com/99minutos/user-admin/internal/core/ports"
)

// RoleRepository implements ports.RoleRepository using GORM.
type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) ports.RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (domain.Role, error) {
	var row roleRow
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Role{}, domain.ErrRoleNotFound
		}
		return domain.Role{}, storeError("find role by name", err)
	}
	return row.toDomain(), nil
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	var rows []roleRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, storeError("list roles", err)
	}
	roles := make([]domain.Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, row.toDomain())
	}
	return roles, nil
}

func (r *RoleRepository) Create(ctx context.Context, role domain.Role) (domain.Role, error) {
	row := roleRow{Name: role.Name}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Role{}, storeError("create role", err)
	}
	return row.toDomain(), nil
}
