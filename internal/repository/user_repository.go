package repository

import (
	"context"
	"errors"

	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("Employee").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns one page of users filtered by role name and/or username
// search, plus the total match count.
func (r *UserRepository) List(ctx context.Context, filters map[string]string, page, pageSize int) ([]entity.User, int64, error) {
	var users []entity.User
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.User{})

	if role := filters["role"]; role != "" {
		query = query.Joins("JOIN roles ON roles.id = users.role_id").
			Where("roles.name = ?", role)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("username ILIKE ? OR email ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Role").
		Preload("Employee").
		Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	return users, total, err
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateRefreshTokenHash persists the hash of the latest refresh token on the
// user row. Only the stored hash is ever compared, never the token itself.
func (r *UserRepository) UpdateRefreshTokenHash(ctx context.Context, userID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userID).
		Update("refresh_token_hash", hash).Error
}

// Delete removes a user and everything hanging off it: gerant assignments in
// both directions, the employee profile, its bons de commande and their lines.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gerant_id = ?", id).Delete(&entity.GerantEmployee{}).Error; err != nil {
			return err
		}

		var emp entity.Employee
		err := tx.Where("user_id = ?", id).First(&emp).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil {
			if err := tx.Where("employee_id = ?", emp.ID).Delete(&entity.GerantEmployee{}).Error; err != nil {
				return err
			}
			if err := tx.Where("bon_de_commande_id IN (?)",
				tx.Model(&entity.BonDeCommande{}).Select("id").Where("employee_id = ?", emp.ID),
			).Delete(&entity.BonDeCommandeCategory{}).Error; err != nil {
				return err
			}
			if err := tx.Where("employee_id = ?", emp.ID).Delete(&entity.BonDeCommande{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&emp).Error; err != nil {
				return err
			}
		}

		result := tx.Where("id = ?", id).Delete(&entity.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
