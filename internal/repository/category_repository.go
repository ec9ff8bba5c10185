package repository

import (
	"context"
	"errors"

	"github.com/Mo21aziz/erpexpress-sub000/internal/entity"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*entity.Category, error) {
	var cat entity.Category
	err := r.db.WithContext(ctx).
		Preload("Articles", func(db *gorm.DB) *gorm.DB {
			return db.Order("numero ASC NULLS LAST")
		}).
		Where("id = ?", id).
		First(&cat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cat, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]entity.Category, error) {
	var cats []entity.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&cats).Error
	return cats, err
}

func (r *CategoryRepository) CountArticles(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Article{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *CategoryRepository) Create(ctx context.Context, cat *entity.Category) error {
	return r.db.WithContext(ctx).Create(cat).Error
}

func (r *CategoryRepository) Update(ctx context.Context, cat *entity.Category) error {
	return r.db.WithContext(ctx).Save(cat).Error
}

// Delete removes a category. With cascade it also removes its articles and
// any order lines that reference them, then re-packs the remaining article
// numeros so the global ordering stays dense.
func (r *CategoryRepository) Delete(ctx context.Context, id string, cascade bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cascade {
			if err := tx.Where("category_id = ?", id).Delete(&entity.BonDeCommandeCategory{}).Error; err != nil {
				return err
			}
			if err := tx.Where("category_id = ?", id).Delete(&entity.Article{}).Error; err != nil {
				return err
			}
			if err := compactNumeros(tx); err != nil {
				return err
			}
		}
		result := tx.Where("id = ?", id).Delete(&entity.Category{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
