package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/99minutos/user-admin/internal/core/domain"
	"github.com/99minutos/user-admin/internal/core/ports"
)

// UserRepository implements ports.UserRepository using GORM.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) ports.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Preload("Roles").First(&row, id).Error
	if err != nil {
		return domain.User{}, userError("find user by id", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&row).Error
	if err != nil {
		return domain.User{}, userError("find user by email", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&userRow{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, storeError("count users by email", err)
	}
	return count > 0, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Preload("Roles").Order("id").Find(&rows).Error; err != nil {
		return nil, storeError("list users", err)
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

// Create inserts the user row and its user_roles links in one transaction.
// Roles are referenced by id and never inserted or updated here.
func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	row := toUserRow(user)
	row.ID = 0

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Roles").Create(&row).Error; err != nil {
			return err
		}
		if len(row.Roles) > 0 {
			if err := tx.Model(&row).Association("Roles").Append(row.Roles); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.User{}, userError("create user", err)
	}
	return r.FindByID(ctx, row.ID)
}

// Update rewrites the profile columns and replaces the role links in one
// transaction, then reloads the row with its roles.
func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	row := toUserRow(user)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&userRow{ID: row.ID}).Updates(map[string]interface{}{
			"name":     row.Name,
			"age":      row.Age,
			"email":    row.Email,
			"password": row.Password,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&userRow{ID: row.ID}).Association("Roles").Replace(row.Roles)
	})
	if err != nil {
		return domain.User{}, userError("update user", err)
	}
	return r.FindByID(ctx, row.ID)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&userRow{ID: id}).Update("password", hash)
	if res.Error != nil {
		return storeError("update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete clears the user's role links and removes the row. The roles
// themselves are untouched.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := userRow{ID: id}
		if err := tx.Model(&row).Association("Roles").Clear(); err != nil {
			return err
		}
		res := tx.Delete(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return userError("delete user", err)
	}
	return nil
}

// userError maps gorm sentinel errors onto domain errors.
func userError(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, domain.ErrUserExists)
	default:
		return storeError(op, err)
	}
}

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}
